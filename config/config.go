// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBTypes   = []string{"sqlite", "postgres"}
)

type App struct {
	LogLevel string `mapstructure:"log_level"`
	Name     string `mapstructure:"name"`
}

type Server struct {
	Port        int      `mapstructure:"port"`
	BaseURL     string   `mapstructure:"base_url"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   int      `mapstructure:"rate_limit"`
}

type DB struct {
	Type    string `mapstructure:"type"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Security struct {
	MaxLoginAttempts  int           `mapstructure:"max_login_attempts"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
	UnverifiedMaxAge  time.Duration `mapstructure:"unverified_max_age"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	TurnstileEnabled  bool          `mapstructure:"turnstile_enabled"`
	TurnstileSecret   string        `mapstructure:"turnstile_secret"`
}

type Mail struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	SenderAddress string `mapstructure:"sender_address"`
	TemplatesDir  string `mapstructure:"templates_dir"`
}

// Config is the fully resolved application configuration. It's built once by
// Load and handed to every constructor that needs it.
type Config struct {
	App      App      `mapstructure:"app"`
	Server   Server   `mapstructure:"server"`
	DB       DB       `mapstructure:"db"`
	JWT      JWT      `mapstructure:"jwt"`
	Security Security `mapstructure:"security"`
	Mail     Mail     `mapstructure:"mail"`
}

// Flags registers the command line flags understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the config file (default ./config.toml)")
	fs.String("app.log_level", "info", "Log level (debug, info, warn, error, fatal)")
	fs.Int("server.port", 8080, "Port the HTTP server listens on")
}

// GenSecret returns a random hex encoded secret suitable for jwt.secret
func GenSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Load prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is fine, it's only a convenience for local runs
	_ = godotenv.Load()

	v := viper.New()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags, %w", err)
		}
	}

	path := v.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Warn("No config.toml found, using defaults and environment")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	// Comma separated env values don't get split by viper
	if len(c.Server.CORSOrigins) == 1 && strings.Contains(c.Server.CORSOrigins[0], ",") {
		c.Server.CORSOrigins = strings.Split(c.Server.CORSOrigins[0], ",")
	}

	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Keys without a default are invisible to Unmarshal unless bound
func bindEnvs(v *viper.Viper) {
	v.BindEnv("db.dsn", "DB_DSN")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("security.turnstile_secret", "SECURITY_TURNSTILE_SECRET")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.templates_dir", "MAIL_TEMPLATES_DIR")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.name", "Account API")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit", 10)

	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.path", "database.db")
	v.SetDefault("db.log_mode", false)

	v.SetDefault("jwt.ttl", time.Hour*24)

	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.password_min_length", 8)
	v.SetDefault("security.unverified_max_age", time.Hour*24*7)
	v.SetDefault("security.cleanup_interval", time.Hour*24)
	v.SetDefault("security.turnstile_enabled", false)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.sender_address", "noreply@localhost")
}

// Validate checks the values that would otherwise make the application
// misbehave at runtime.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Server.Port <= 0 {
		return errors.New("invalid port provided")
	}

	// cors refuses to start without at least one origin
	if len(c.Server.CORSOrigins) == 0 {
		return errors.New("server.cors_origins needs at least one origin")
	}

	if c.Server.RateLimit <= 0 {
		return errors.New("server.rate_limit must be bigger than 0")
	}

	if !slices.Contains(validDBTypes, c.DB.Type) {
		return errors.New("invalid database type provided")
	}

	if c.DB.Type == "postgres" && c.DB.DSN == "" {
		return errors.New("db.dsn is required for postgres")
	}

	if c.DB.Type == "sqlite" && c.DB.Path == "" {
		return errors.New("db.path is required for sqlite")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is not set. Paste a random one into config.toml, for example:\n\n%s", GenSecret())
	}

	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("security.max_login_attempts must be bigger than 0")
	}

	if c.Security.PasswordMinLength < 8 {
		return errors.New("security.password_min_length can't be lower than 8")
	}

	if c.Security.UnverifiedMaxAge < 0 {
		return errors.New("security.unverified_max_age can't be negative")
	}

	if c.Security.TurnstileEnabled && c.Security.TurnstileSecret == "" {
		return errors.New("turnstile secret token is missing")
	}

	if c.Mail.Host == "" {
		zap.L().Warn("No mail.host specified, emails will fail to send")
	}

	if c.Mail.Port <= 0 {
		return errors.New("invalid mail port provided")
	}

	return nil
}

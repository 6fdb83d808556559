// Package api contains all endpoints available
package api

import (
	"bitwise74/account-api/internal"
	"bitwise74/account-api/internal/metrics"
	"bitwise74/account-api/internal/model"
	"bitwise74/account-api/pkg/middleware"
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Router *gin.Engine
	*internal.Deps
}

// NewRouter builds the gin engine on top of d. Background goroutines started
// by the router stop with ctx.
func NewRouter(ctx context.Context, d *internal.Deps) *API {
	a := &API{Deps: d}

	router := gin.New()
	a.Router = router

	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: d.Config.Server.RateLimit,
	})

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     d.Config.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(d.Config.JWT, d.Users)
	turnstile := middleware.NewTurnstileMiddleware(d.Config.Security)
	staff := middleware.RequireRole(model.RoleManager, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)
	selfOrStaff := middleware.SelfOrRole("id", model.RoleManager, model.RoleAdmin)
	selfOrAdmin := middleware.SelfOrRole("id", model.RoleAdmin)

	// GET /metrics 	-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users/register 	-> Registers a new user
		users.POST("/register", limiter.Handler(), turnstile, a.UserRegister)

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		users.POST("/login", limiter.Handler(), a.UserLogin)

		// GET /api/users/verify/:id/:token	-> Confirms the email of a user
		users.GET("/verify/:id/:token", limiter.Handler(), a.UserVerify)

		// GET /api/users		-> Lists users page by page
		users.GET("", jwt, staff, a.UserList)

		// GET /api/users/:id		-> Returns a single user
		users.GET("/:id", jwt, selfOrStaff, a.UserFetch)

		// PATCH /api/users/:id		-> Updates a user
		users.PATCH("/:id", jwt, selfOrStaff, a.UserUpdate)

		// DELETE /api/users/:id 	-> Deletes a user by their ID
		users.DELETE("/:id", jwt, selfOrStaff, a.UserDelete)

		// POST /api/users/:id/reset-password	-> Sets a new password
		users.POST("/:id/reset-password", jwt, selfOrAdmin, a.UserResetPassword)

		// POST /api/users/:id/lock	-> Locks an account
		users.POST("/:id/lock", jwt, admin, a.UserLock)

		// POST /api/users/:id/unlock	-> Unlocks an account
		users.POST("/:id/unlock", jwt, admin, a.UserUnlock)
	}

	return a
}

// MakeLogger replaces the global zap logger. Development mode gets colored
// console output, otherwise logs are JSON.
func MakeLogger(level string, dev bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q, %w", level, err)
	}

	var cfg zap.Config

	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + t.Format("15:04:05.000") + reset)
		}
		cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + ec.TrimmedPath() + reset)
		}
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}

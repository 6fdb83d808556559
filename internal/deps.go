package internal

import (
	"bitwise74/account-api/config"
	"bitwise74/account-api/db"
	"bitwise74/account-api/internal/mail"
	"bitwise74/account-api/internal/service"
	"bitwise74/account-api/pkg/security"
	"fmt"

	"gorm.io/gorm"
)

// Deps holds everything the API and the CLI commands need
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Argon  *security.ArgonHash
	Emails *service.EmailService
	Users  *service.UserService
}

// NewDeps opens the database and wires the services on top of it
func NewDeps(c *config.Config) (*Deps, error) {
	conn, err := db.New(c.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	return NewDepsWithDB(c, conn, mail.NewSMTPClient(c.Mail)), nil
}

// NewDepsWithDB wires the services on an already opened database and a
// custom mail transport
func NewDepsWithDB(c *config.Config, conn *gorm.DB, transport service.Transport) *Deps {
	d := &Deps{
		Config: c,
		DB:     conn,
		Argon:  security.New(),
	}

	templates := mail.NewTemplateManager(mail.DefaultTemplates(c.Mail.TemplatesDir))
	d.Emails = service.NewEmailService(templates, transport, c.Server.BaseURL)
	d.Users = service.NewUserService(conn, d.Argon, d.Emails, c.Security)

	return d
}

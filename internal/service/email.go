package service

import (
	"bitwise74/account-api/internal/metrics"
	"bitwise74/account-api/internal/model"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

// Renderer turns a named template and its variables into an HTML body
type Renderer interface {
	RenderTemplate(name string, vars map[string]string) (string, error)
}

// Transport delivers one message to one recipient
type Transport interface {
	SendEmail(subject, htmlBody, recipient string) error
}

type emailKind struct {
	subject  string
	template string
}

var emailKinds = map[string]emailKind{
	"email_verification": {subject: "Verify Your Account", template: "email_verification"},
	"password_reset":     {subject: "Your Password Was Reset", template: "password_reset"},
	"account_locked":     {subject: "Account Locked Notification", template: "account_locked"},
}

type EmailService struct {
	renderer  Renderer
	transport Transport
	baseURL   string
}

// NewEmailService builds links in emails relative to baseURL
func NewEmailService(r Renderer, t Transport, baseURL string) *EmailService {
	return &EmailService{
		renderer:  r,
		transport: t,
		baseURL:   baseURL,
	}
}

// SendUserEmail renders the template mapped to emailType with data and sends
// it to data["email"]. Unknown types return ErrUnsupportedEmailType.
func (e *EmailService) SendUserEmail(ctx context.Context, data map[string]string, emailType string) error {
	kind, ok := emailKinds[emailType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedEmailType, emailType)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := e.renderer.RenderTemplate(kind.template, data)
	if err != nil {
		metrics.MailSendFailure.WithLabelValues(emailType).Inc()
		return fmt.Errorf("failed to render %s email, %w", emailType, err)
	}

	if err := e.transport.SendEmail(kind.subject, body, data["email"]); err != nil {
		metrics.MailSendFailure.WithLabelValues(emailType).Inc()
		return fmt.Errorf("failed to send %s email, %w", emailType, err)
	}

	metrics.MailSendSuccess.WithLabelValues(emailType).Inc()
	zap.L().Debug("User email sent", zap.String("type", emailType))

	return nil
}

func (e *EmailService) SendVerificationEmail(ctx context.Context, u *model.User) error {
	var token string
	if u.VerificationToken != nil {
		token = *u.VerificationToken
	}

	return e.SendUserEmail(ctx, map[string]string{
		"id":               u.ID,
		"name":             u.DisplayName(),
		"email":            u.Email,
		"verification_url": e.VerificationURL(u.ID, token),
	}, "email_verification")
}

func (e *EmailService) SendAccountLockedEmail(ctx context.Context, u *model.User, maxAttempts int) error {
	return e.SendUserEmail(ctx, map[string]string{
		"id":           u.ID,
		"name":         u.DisplayName(),
		"email":        u.Email,
		"max_attempts": strconv.Itoa(maxAttempts),
	}, "account_locked")
}

func (e *EmailService) SendPasswordResetEmail(ctx context.Context, u *model.User) error {
	return e.SendUserEmail(ctx, map[string]string{
		"id":    u.ID,
		"name":  u.DisplayName(),
		"email": u.Email,
	}, "password_reset")
}

// VerificationURL is the link that confirms the email of userID
func (e *EmailService) VerificationURL(userID, token string) string {
	return e.baseURL + "/api/users/verify/" + url.PathEscape(userID) + "/" + url.PathEscape(token)
}

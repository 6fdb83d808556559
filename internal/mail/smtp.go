package mail

import (
	"bitwise74/account-api/config"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Dialer is the part of gomail.Dialer the client needs
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPClient sends a single HTML message per call. It does not retry, the
// caller decides what a failed send means.
type SMTPClient struct {
	dialer Dialer
	from   string
	host   string
}

func NewSMTPClient(c config.Mail) *SMTPClient {
	return &SMTPClient{
		dialer: gomail.NewDialer(c.Host, c.Port, c.Username, c.Password),
		from:   c.SenderAddress,
		host:   c.Host,
	}
}

// NewSMTPClientWithDialer is used when the transport has to be swapped out
func NewSMTPClientWithDialer(d Dialer, from string) *SMTPClient {
	return &SMTPClient{dialer: d, from: from}
}

func (s *SMTPClient) SendEmail(subject, htmlBody, recipient string) error {
	if recipient == "" {
		return errors.New("no recipient provided")
	}

	if recipient == s.from {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send, %w", err)
	}

	zap.L().Debug("Email sent", zap.String("to", recipient), zap.String("subject", subject), zap.String("host", s.host))
	return nil
}

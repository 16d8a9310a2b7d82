// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/wneessen/shopkeep/internal/logger"
)

const (
	DryRunResponse = "dry-run succeeded"

	verificationSubject = "Please confirm your email address"
)

var (
	// version is the version of the application (will be set at build time)
	version = "dev"

	// userAgent is the User-Agent that the mailer sends with every message
	userAgent = fmt.Sprintf("shopkeep/%s // https://github.com/wneessen/shopkeep", version)
)

// Config holds the SMTP settings of the Mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	ForceTLS bool
	DryRun   bool

	// GraceDays is the number of days after the day of issue a link stays valid.
	GraceDays int
}

type Mailer struct {
	config Config
	log    *logger.Logger
}

func New(config Config, log *logger.Logger) *Mailer {
	return &Mailer{
		config: config,
		log:    log.With(slog.String("service", "mailer")),
	}
}

// SendVerification sends the verification link to rcpt and returns the
// response of the mail server.
func (m *Mailer) SendVerification(ctx context.Context, rcpt, link string) (string, error) {
	message, err := m.verificationMessage(rcpt, link)
	if err != nil {
		return "", err
	}

	if m.config.DryRun {
		m.log.Info("dry-run mode enabled, skipping actual mail delivery", logger.Email(rcpt))
		return DryRunResponse, nil
	}

	client, err := m.client()
	if err != nil {
		return "", err
	}
	if err = client.DialAndSendWithContext(ctx, message); err != nil {
		return "", fmt.Errorf("failed to send verification mail: %w", err)
	}

	m.log.Debug("verification mail delivered", logger.Email(rcpt))
	return message.ServerResponse(), nil
}

func (m *Mailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithTLSPolicy(mail.DefaultTLSPolicy),
	}
	if m.config.Username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(m.config.Username), mail.WithPassword(m.config.Password))
	}

	client, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	if !m.config.ForceTLS {
		client.SetTLSPolicy(mail.TLSOpportunistic)
	}
	return client, nil
}

func (m *Mailer) verificationMessage(rcpt, link string) (*mail.Msg, error) {
	message := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := message.From(m.config.Sender); err != nil {
		return nil, fmt.Errorf("failed to set sender address: %w", err)
	}
	if err := message.To(rcpt); err != nil {
		return nil, fmt.Errorf("failed to set recipient address: %w", err)
	}
	message.Subject(verificationSubject)
	message.SetUserAgent(userAgent)

	body := strings.Builder{}
	body.WriteString("Thank you for signing up.\n\n")
	body.WriteString("Please confirm your email address by opening the following link:\n\n")
	body.WriteString(link)
	body.WriteString("\n\n" + validity(m.config.GraceDays) + "\n")
	message.SetBodyString(mail.TypeTextPlain, body.String())

	return message, nil
}

func validity(graceDays int) string {
	switch {
	case graceDays <= 0:
		return "The link is valid until the end of today (UTC)."
	case graceDays == 1:
		return "The link is valid until the end of tomorrow (UTC)."
	default:
		return fmt.Sprintf("The link is valid until the end of the %d days following today (UTC).", graceDays)
	}
}

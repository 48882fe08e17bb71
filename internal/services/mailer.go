package services

import (
	"crypto/tls"

	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends through the configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	switch cfg.Port {
	case 465:
		d.SSL = true
	default:
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{dialer: d, from: from}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.Warnf("[Email] Failed to send email to %s: %v", to, err)
		return err
	}
	logger.Infof("[Email] Sent notification to %s", to)
	return nil
}

// LogMailer only logs messages; used when SMTP is disabled.
type LogMailer struct{}

func (LogMailer) Send(to, subject, htmlBody string) error {
	logger.Info().Str("to", to).Str("subject", subject).Msg("[Email] SMTP disabled, message not sent")
	return nil
}

// NewMailer picks the SMTP mailer when SMTP is configured.
func NewMailer(cfg *config.SMTPConfig) Mailer {
	if cfg != nil && cfg.Enabled && cfg.Host != "" {
		return NewSMTPMailer(cfg)
	}
	return LogMailer{}
}

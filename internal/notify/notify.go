package notify

import (
	"context"
	"crypto/tls"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/logx"
)

// Message is one notification to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message over one channel. A nil error means the
// transport accepted it; there is no delivery confirmation beyond that.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// EmailSender sends plain-text mail through an SMTP server. Port 465 uses
// implicit TLS.
type EmailSender struct {
	cfg  SMTPConfig
	send func(*gomail.Message) error
}

func NewEmailSender(cfg SMTPConfig) *EmailSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Port == 465 {
		d.SSL = true
	}
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &EmailSender{cfg: cfg, send: func(m *gomail.Message) error {
		return d.DialAndSend(m)
	}}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.Username == "" || s.cfg.Password == "" || s.cfg.Host == "" {
		return apperr.New(apperr.DownstreamFailure, "email credentials not configured")
	}
	if msg.To == "" {
		return apperr.New(apperr.DownstreamFailure, "no contact email for buyer")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Username)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- s.send(m)
	}()

	log := logx.FromContext(ctx).With(slog.String("to", msg.To))

	select {
	case <-ctx.Done():
		log.Warn("email cancelled", logx.Error(ctx.Err()))
		return apperr.Wrap(ctx.Err(), apperr.DownstreamFailure, "email sending cancelled or timed out")
	case err := <-done:
		if err != nil {
			log.Error("email failed", logx.Error(err))
			return apperr.Wrap(err, apperr.DownstreamFailure, "failed to send email")
		}
	}

	log.Debug("email sent", slog.String("subject", msg.Subject))
	return nil
}

// Func adapts a function to Sender.
type Func func(ctx context.Context, msg Message) error

func (f Func) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

var _ Sender = (*EmailSender)(nil)

package dispatch

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
)

// SMTPConfig holds the connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	ReplyTo  string `yaml:"reply_to"`
	// TLSMode is "starttls" (default), "ssl", or "none" (dev relays only).
	TLSMode string `yaml:"tls_mode"`
}

// SMTPSender submits messages through a third-party SMTP relay. It is an
// explicitly constructed collaborator, not process-global state, so tests
// can substitute a fake transport.
type SMTPSender struct {
	cfg     SMTPConfig
	timeout time.Duration
}

// NewSMTPSender creates a sender for the given relay. timeout bounds the
// whole dial-auth-submit exchange.
func NewSMTPSender(cfg SMTPConfig, timeout time.Duration) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg, timeout: timeout}
}

// Send submits one message. The relay does not hand back an identifier at
// submission time, so we assign the Message-Id header ourselves and report
// that; provider webhooks echo the same header later.
func (s *SMTPSender) Send(ctx context.Context, m *Message) (string, error) {
	messageID := s.newMessageID()

	msg := mail.NewMessage()
	if s.cfg.FromName != "" {
		msg.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	} else {
		msg.SetHeader("From", s.cfg.From)
	}
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetHeader("Message-Id", messageID)
	if s.cfg.ReplyTo != "" {
		msg.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	if m.Text != "" {
		msg.SetBody("text/plain", m.Text)
	}
	if m.HTML != "" {
		if m.Text == "" {
			msg.SetBody("text/html", m.HTML)
		} else {
			msg.AddAlternative("text/html", m.HTML)
		}
	}

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.timeout
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	// DialAndSend has no context plumbing; run it on the side so caller
	// cancellation is still honored.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("smtp send: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp send: %w", err)
		}
	}
	return messageID, nil
}

// newMessageID builds an RFC 5322 Message-Id scoped to the sending domain.
func (s *SMTPSender) newMessageID() string {
	dom := "localhost"
	if i := strings.LastIndex(s.cfg.From, "@"); i >= 0 && i < len(s.cfg.From)-1 {
		dom = s.cfg.From[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), dom)
}

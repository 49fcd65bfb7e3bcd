package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"anoa.com/learnhub/pkg/logger"
)

// Mailer sends plain-text mail. Send never blocks the caller; failures are logged.
type Mailer interface {
	Send(to, subject, body string)
}

type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type smtpMailer struct {
	cfg  Config
	log  *logger.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns an SMTP mailer, or a no-op mailer when no host is configured.
func New(cfg Config, log *logger.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return noopMailer{}
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &smtpMailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *smtpMailer) Send(to, subject, body string) {
	go func() {
		if err := m.deliver(to, subject, body); err != nil {
			m.log.Warn("failed to send email", "email", to, "subject", subject, "error", err)
		}
	}()
}

func (m *smtpMailer) deliver(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	return m.send(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(
		"From: " + from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body + "\r\n")
}

type noopMailer struct{}

func (noopMailer) Send(string, string, string) {}

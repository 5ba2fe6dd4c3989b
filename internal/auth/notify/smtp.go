package notify

import (
	"context"
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds delivery settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// BaseURL is the public origin of the web app, used to compose the
	// verification and reset links (e.g. https://app.ledgerdash.io).
	BaseURL string
}

// SMTPSender sends account emails over SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, msg VerificationEmail) error {
	link := s.link("/verify-email", msg.Token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Confirm your email address to finish setting up your LedgerDash account:</p>"+
			"<p><a href=%q>Verify email</a></p><p>This link expires in 24 hours.</p>",
		msg.Name, link)
	return s.send(msg.To, "Verify your LedgerDash email", body)
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, msg PasswordResetEmail) error {
	link := s.link("/reset-password", msg.Token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received a request to reset your LedgerDash password:</p>"+
			"<p><a href=%q>Reset password</a></p>"+
			"<p>This link expires in 30 minutes. If you did not ask for this, ignore this email.</p>",
		msg.Name, link)
	return s.send(msg.To, "Reset your LedgerDash password", body)
}

func (s *SMTPSender) link(path, token string) string {
	return s.cfg.BaseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *SMTPSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}

// Package mailer delivers one-time codes to users.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the log instead of sending them. Development only.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.logger.Info(ctx, "otp issued", "email", email, "code", code)
	return nil
}

// SMTPMailer relays through an unauthenticated SMTP server.
type SMTPMailer struct {
	addr     string
	from     string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("invalid recipient %q", email)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.from, email, code)
	if err := m.sendMail(m.addr, nil, m.from, []string{email}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your vaultkeeper verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Your verification code is " + code + ".\r\n")
	b.WriteString("It expires shortly. If you did not request it, ignore this email.\r\n")
	return []byte(b.String())
}

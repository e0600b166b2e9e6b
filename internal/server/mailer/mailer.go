// Package mailer delivers one-time verification codes by email.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/logging"
)

// Mailer sends an OTP code to an address and reports delivery failure.
type Mailer interface {
	SendOTP(ctx context.Context, email string, code string) error
}

const otpSubject = "Your verification code"

func otpBody(code string) string {
	return fmt.Sprintf("Your verification code is %s.\r\nIf you did not request it, ignore this message.\r\n", code)
}

// SMTPOptions configure SMTPMailer. Auth is used only when User is set.
type SMTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

type SMTPMailer struct {
	opts SMTPOptions
	log  logging.Logger
}

func NewSMTPMailer(opts SMTPOptions, log logging.Logger) *SMTPMailer {
	return &SMTPMailer{opts: opts, log: log.With("module", "mailer")}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email string, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.opts.Host, strconv.Itoa(m.opts.Port))

	msg := "From: " + m.opts.From + "\r\n" +
		"To: " + email + "\r\n" +
		"Subject: " + otpSubject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		otpBody(code)

	var auth smtp.Auth
	if m.opts.User != "" {
		auth = smtp.PlainAuth("", m.opts.User, m.opts.Password, m.opts.Host)
	}

	if err := sendMail(addr, auth, m.opts.From, []string{email}, []byte(msg)); err != nil {
		m.log.Error(ctx, "otp mail failed", "email", email, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}
	m.log.Info(ctx, "otp mail sent", "email", email)
	return nil
}

// LogMailer writes codes to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("module", "mailer")}
}

func (m *LogMailer) SendOTP(ctx context.Context, email string, code string) error {
	m.log.Warn(ctx, "smtp not configured, otp logged only", "email", email, "code", code)
	return nil
}

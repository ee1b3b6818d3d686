package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
)

// Mailer delivers one notification to one recipient
type Mailer interface {
	Send(ctx context.Context, to string, msg *NotificationMessage) error
}

// SMTPSecurity selects how the relay connection is encrypted
type SMTPSecurity string

const (
	SMTPStartTLS SMTPSecurity = "starttls" // plain connect, then STARTTLS (required)
	SMTPImplicit SMTPSecurity = "tls"      // TLS from the first byte, usually port 465
	SMTPNone     SMTPSecurity = "none"     // unencrypted, for local relays only
)

// SMTPConfig configures SMTPMailer
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Security SMTPSecurity // empty = SMTPStartTLS
}

// SMTPMailer sends multipart notifications through an SMTP relay
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	if config.FromName == "" {
		config.FromName = "Contact Form"
	}
	if config.Security == "" {
		config.Security = SMTPStartTLS
	}
	return &SMTPMailer{config: config}
}

// Compose encodes msg as a multipart/alternative MIME message addressed to to
func (m *SMTPMailer) Compose(to string, msg *NotificationMessage) ([]byte, error) {
	part, err := enmime.Builder().
		From(m.config.FromName, m.config.From).
		To("", to).
		Subject(msg.Subject).
		Text([]byte(msg.Text)).
		HTML([]byte(msg.HTML)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}

// Send implements Mailer. Cancelling ctx aborts the relay conversation and a
// ctx deadline bounds every command.
func (m *SMTPMailer) Send(ctx context.Context, to string, msg *NotificationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := m.Compose(to, msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	client, stop, err := m.dial(ctx, addr)
	if err != nil {
		return m.sendError(ctx, addr, err)
	}
	defer stop()
	defer client.Close()

	if err := m.deliver(client, to, raw); err != nil {
		return m.sendError(ctx, addr, err)
	}
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context, addr string) (*smtp.Client, func() bool, error) {
	tlsConfig := &tls.Config{ServerName: m.config.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if m.config.Security == SMTPImplicit {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, nil, err
	}

	// Closing the socket unblocks whatever command is in flight
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	var client *smtp.Client
	if m.config.Security == SMTPStartTLS {
		client, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			stop()
			return nil, nil, err
		}
	} else {
		client = smtp.NewClient(conn)
	}

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		client.CommandTimeout = remaining
		client.SubmissionTimeout = remaining
	}
	return client, stop, nil
}

func (m *SMTPMailer) deliver(client *smtp.Client, to string, raw []byte) error {
	if m.config.Username != "" {
		if err := client.Auth(sasl.NewPlainClient("", m.config.Username, m.config.Password)); err != nil {
			return err
		}
	}
	if err := client.SendMail(m.config.From, []string{to}, bytes.NewReader(raw)); err != nil {
		return err
	}
	return client.Quit()
}

// sendError prefers the context error so callers can tell a timeout from a
// relay rejection
func (m *SMTPMailer) sendError(ctx context.Context, addr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("failed to send mail to relay %s: %w", addr, ctxErr)
	}
	return fmt.Errorf("failed to send mail to relay %s: %w", addr, err)
}

// LogMailer records notifications in the log instead of sending them. It is
// used when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send implements Mailer
func (m *LogMailer) Send(_ context.Context, to string, msg *NotificationMessage) error {
	m.logger.Info("notification not sent, no SMTP relay configured",
		slog.String("to", to),
		slog.String("subject", msg.Subject),
	)
	return nil
}

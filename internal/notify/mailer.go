package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/swimref/roster/internal/application"
)

//go:embed templates/*.html
var templatesFS embed.FS

var notificationTemplate = template.Must(template.ParseFS(templatesFS, "templates/notification.html"))

// SMTPConfig identifies the relay. Port 465 uses implicit TLS; any other port
// upgrades with STARTTLS.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Email is one rendered message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// SendFunc transmits a rendered email.
type SendFunc func(ctx context.Context, email Email) error

// Mailer emails notifications to recipients that enabled the email channel.
type Mailer struct {
	send      SendFunc
	publicURL string
	logger    *slog.Logger
}

// NewMailer returns a Mailer that sends through the configured relay.
func NewMailer(cfg SMTPConfig, publicURL string, logger *slog.Logger) *Mailer {
	return NewMailerWithSender(SMTPSender(cfg), publicURL, logger)
}

// NewMailerWithSender returns a Mailer that hands rendered emails to send.
func NewMailerWithSender(send SendFunc, publicURL string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		send:      send,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With("component", "notify.Mailer"),
	}
}

// Deliver emails every delivery whose recipient allows the email channel.
// All deliveries are attempted; the joined error reports the failures.
func (m *Mailer) Deliver(ctx context.Context, deliveries []application.Delivery) error {
	var errs []error
	for _, d := range deliveries {
		if !Allows(d.Recipient.Preferences, d.Notification.Category, ChannelEmail) || d.Recipient.Email == "" {
			continue
		}
		email, err := m.Render(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.send(ctx, email); err != nil {
			m.logger.WarnContext(ctx, "notification email failed", "notification_id", d.Notification.ID, "recipient_id", d.Recipient.ID, "error", err)
			errs = append(errs, fmt.Errorf("email %s: %w", d.Notification.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Render builds the email for one delivery.
func (m *Mailer) Render(d application.Delivery) (Email, error) {
	data := struct {
		RecipientName string
		Title         string
		Message       string
		Link          string
	}{
		RecipientName: d.Recipient.Name,
		Title:         d.Notification.Title,
		Message:       d.Notification.Message,
	}
	if d.Notification.LinkTo != "" && m.publicURL != "" {
		data.Link = m.publicURL + "/competitions/" + d.Notification.LinkTo
	}

	var body bytes.Buffer
	if err := notificationTemplate.Execute(&body, data); err != nil {
		return Email{}, fmt.Errorf("render notification email: %w", err)
	}
	return Email{
		To:      d.Recipient.Email,
		Subject: "[SwimRef] " + d.Notification.Title,
		HTML:    body.String(),
	}, nil
}

// SMTPSender returns a SendFunc that talks to the relay in cfg.
func SMTPSender(cfg SMTPConfig) SendFunc {
	return func(ctx context.Context, email Email) error {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
		dialer := &net.Dialer{}

		var conn net.Conn
		var err error
		if cfg.Port == 465 {
			conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		} else {
			conn, err = dialer.DialContext(ctx, "tcp", addr)
		}
		if err != nil {
			return fmt.Errorf("connect smtp: %w", err)
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(deadline)
		}

		client, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("create smtp client: %w", err)
		}
		defer client.Close()

		if cfg.Port != 465 {
			if ok, _ := client.Extension("STARTTLS"); ok {
				if err := client.StartTLS(tlsConfig); err != nil {
					return fmt.Errorf("smtp starttls: %w", err)
				}
			}
		}
		if cfg.User != "" {
			if err := client.Auth(smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
		if err := client.Mail(cfg.From); err != nil {
			return fmt.Errorf("smtp MAIL FROM: %w", err)
		}
		if err := client.Rcpt(email.To); err != nil {
			return fmt.Errorf("smtp RCPT TO: %w", err)
		}
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("smtp DATA: %w", err)
		}
		if _, err := w.Write(buildMessage(cfg.From, email)); err != nil {
			return fmt.Errorf("write smtp message: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close smtp DATA: %w", err)
		}
		return client.Quit()
	}
}

func buildMessage(from string, email Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", email.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

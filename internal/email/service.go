package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"smart-stock-trader/internal/logging"
)

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service handles email sending operations
type Service struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewService creates a new email service
func NewService(config SMTPConfig) *Service {
	if config.FromName == "" {
		config.FromName = "Smart Stock Trader"
	}
	return &Service{
		config: config,
		logger: logging.Component("email"),
	}
}

// IsConfigured checks if the SMTP transport has the required settings
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendEmail sends an email over the configured SMTP transport
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	message := []byte(
		"From: " + from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body + "\r\n",
	)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := s.config.Host + ":" + s.config.Port

	s.logger.Debug().Str("to", to).Str("host", s.config.Host).Msg("Sending email")

	var err error
	// Port 465 expects an implicit TLS handshake, 587/25 use STARTTLS or plain
	if s.config.Port == "465" {
		err = s.sendEmailTLS(addr, auth, s.config.From, []string{to}, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.From, []string{to}, message)
	}

	if err != nil {
		return fmt.Errorf("SMTP error: %w", err)
	}

	s.logger.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

// SendAsync dispatches an email on a background goroutine. Failures are
// logged and never surfaced to the caller.
func (s *Service) SendAsync(to, subject, body string) {
	go func() {
		if err := s.SendEmail(context.Background(), to, subject, body); err != nil {
			s.logger.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("Failed to send email")
		}
	}()
}

// sendEmailTLS sends email using an implicit TLS connection (port 465)
func (s *Service) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host := strings.Split(addr, ":")[0]
	tlsConfig := &tls.Config{
		ServerName: host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write(msg)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

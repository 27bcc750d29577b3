// Package mailer delivers digest messages over SMTP with STARTTLS.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"newsbrief/internal/observability/logging"
	"newsbrief/internal/pkg/config"
	"newsbrief/internal/usecase/digest"
)

// ErrNotConfigured is returned by Send when no SMTP server is set.
var ErrNotConfigured = errors.New("smtp server not configured")

type Config struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
	// SendInterval paces consecutive messages.
	SendInterval time.Duration
}

func (c Config) Enabled() bool { return c.Server != "" }

// LoadConfig reads SMTP_SERVER, SMTP_PORT, SMTP_USER, SMTP_PASSWORD,
// SMTP_FROM, SMTP_TIMEOUT and SMTP_SEND_INTERVAL.
func LoadConfig(loader *config.Loader) Config {
	user := loader.String("SMTP_USER", "", nil)
	return Config{
		Server:       loader.String("SMTP_SERVER", "", nil),
		Port:         loader.Int("SMTP_PORT", 587, config.IntRange(1, 65535)),
		User:         user,
		Password:     loader.Secret("SMTP_PASSWORD"),
		From:         loader.String("SMTP_FROM", user, nil),
		Timeout:      loader.Duration("SMTP_TIMEOUT", 30*time.Second, config.DurationRange(time.Second, 5*time.Minute)),
		SendInterval: loader.Duration("SMTP_SEND_INTERVAL", 200*time.Millisecond, config.ValidateNonNegativeDuration),
	}
}

// transport hands a finished message to the server.
type transport func(ctx context.Context, cfg Config, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg     Config
	limiter *rate.Limiter
	send    transport
	now     func() time.Time
	logger  *slog.Logger
}

var _ digest.Mailer = (*SMTPMailer)(nil)

func New(cfg Config, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	return &SMTPMailer{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		send:    starttlsSend,
		now:     time.Now,
		logger:  logger,
	}
}

// Send waits for the pacing limiter, then delivers msg and returns the
// generated Message-ID.
func (m *SMTPMailer) Send(ctx context.Context, msg digest.Message) (string, error) {
	if !m.cfg.Enabled() {
		return "", ErrNotConfigured
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("smtp rate limiter: %w", err)
	}

	id := messageID(m.cfg.From)
	raw := compose(m.cfg.From, msg, id, m.now())
	if err := m.send(ctx, m.cfg, m.cfg.From, []string{msg.To}, raw); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	m.logger.Debug("mail sent",
		slog.String("message_id", id),
		slog.String("run_id", logging.RunID(ctx)))
	return id, nil
}

func messageID(from string) string {
	domain := "newsbrief.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// compose renders a single-part HTML message with a base64 body.
func compose(from string, msg digest.Message, id string, now time.Time) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", msg.To)
	header("Subject", mime.BEncoding.Encode("UTF-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", id)
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "base64")
	b.WriteString("\r\n")

	enc := base64.StdEncoding.EncodeToString([]byte(msg.HTML))
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	b.WriteString("\r\n")
	return b.Bytes()
}

func starttlsSend(ctx context.Context, cfg Config, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	c, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.StartTLS(&tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Server)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

// Package email holds the transactional e-mail transports.
package email

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/config"
)

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New picks the transport configured by EMAIL_PROVIDER.
func New(cfg config.EmailConfig, log *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGrid(cfg.SendgridAPIKey, cfg.From, cfg.FromName), nil
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			FromName: cfg.FromName,
		}), nil
	case "console", "":
		return NewConsole(log), nil
	}
	return nil, fmt.Errorf("email: unknown provider %q", cfg.Provider)
}

var (
	brRe  = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
	tagRe = regexp.MustCompile(`<[^>]+>`)
)

// plainText derives the text/plain alternative from an HTML body.
func plainText(s string) string {
	s = brRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

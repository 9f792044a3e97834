package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Location    *time.Location
	SchoolName  string

	// Доверенные server-to-server вызовы (webhook, планировщик).
	ServiceSecret string
	JWTSecret     string

	Email    EmailConfig
	WhatsApp WhatsAppConfig

	PhoneCountryCode string
	DispatchTimeout  time.Duration
	SweepWorkers     int

	DailySweepCron       string
	AccumulatedSweepCron string

	// Ops-уведомления админам в Telegram (необязательно).
	TelegramToken string
	AdminIDs      []int64

	// new — при сбросе пароля слать тексты "новый доступ"; reset — отдельные тексты сброса.
	ResetMessaging string
}

type EmailConfig struct {
	Provider       string // sendgrid|smtp|console
	SendgridAPIKey string
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
}

type WhatsAppConfig struct {
	BaseURL    string
	APIKey     string
	Instance   string
	MaxRetries int
}

func Load() (*Config, error) {
	tz := getenv("TZ", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	smtpPort, err := getint("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	workers, err := getint("SWEEP_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	retries, err := getint("WHATSAPP_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	dispatchTimeout, err := time.ParseDuration(getenv("DISPATCH_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("DISPATCH_TIMEOUT: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("ENV", "dev"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Location:      loc,
		SchoolName:    getenv("SCHOOL_NAME", "Escola"),
		ServiceSecret: os.Getenv("SERVICE_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		Email: EmailConfig{
			Provider:       strings.ToLower(getenv("EMAIL_PROVIDER", "console")),
			SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			From:           os.Getenv("EMAIL_FROM"),
			FromName:       getenv("EMAIL_FROM_NAME", "Secretaria"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       smtpPort,
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:    os.Getenv("WHATSAPP_API_URL"),
			APIKey:     os.Getenv("WHATSAPP_API_KEY"),
			Instance:   os.Getenv("WHATSAPP_INSTANCE"),
			MaxRetries: retries,
		},
		PhoneCountryCode:     getenv("PHONE_COUNTRY_CODE", "55"),
		DispatchTimeout:      dispatchTimeout,
		SweepWorkers:         workers,
		DailySweepCron:       getenv("DAILY_SWEEP_CRON", "30 20 * * 1-5"),
		AccumulatedSweepCron: getenv("ACCUMULATED_SWEEP_CRON", "0 22 * * 1-5"),
		TelegramToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminIDs:             adminIDs,
		ResetMessaging:       strings.ToLower(getenv("RESET_MESSAGING", "new")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("required env DATABASE_URL is empty")
	}
	switch c.Email.Provider {
	case "console":
	case "sendgrid":
		if c.Email.SendgridAPIKey == "" || c.Email.From == "" {
			return fmt.Errorf("EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY and EMAIL_FROM")
		}
	case "smtp":
		if c.Email.SMTPHost == "" || c.Email.From == "" {
			return fmt.Errorf("EMAIL_PROVIDER=smtp requires SMTP_HOST and EMAIL_FROM")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER: unknown provider %q", c.Email.Provider)
	}
	switch c.ResetMessaging {
	case "new", "reset":
	default:
		return fmt.Errorf("RESET_MESSAGING: expected new|reset, got %q", c.ResetMessaging)
	}
	if c.SweepWorkers < 1 {
		c.SweepWorkers = 1
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Package notify fans messages out over e-mail and WhatsApp. Channel errors
// are reported in Result and logged; they never abort the caller.
package notify

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/logging"
	"github.com/Spok95/school-notifier/internal/metrics"
	"github.com/Spok95/school-notifier/internal/observability"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Payload carries both renditions; each channel picks what it needs.
type Payload struct {
	Subject string
	HTML    string
	Text    string
}

type Result struct {
	Channel Channel
	Sent    bool
	Err     error
}

type EmailTransport interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type MessagingTransport interface {
	SendText(ctx context.Context, phone, text string) error
}

type Options struct {
	CountryCode string
	Timeout     time.Duration
}

type Dispatcher struct {
	email       EmailTransport
	messaging   MessagingTransport
	log         *zap.Logger
	countryCode string
	timeout     time.Duration
}

// New builds a dispatcher. Either transport may be nil, in which case that
// channel reports Sent=false without error.
func New(email EmailTransport, messaging MessagingTransport, log *zap.Logger, opts Options) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "55"
	}
	return &Dispatcher{
		email:       email,
		messaging:   messaging,
		log:         log.Named("notify"),
		countryCode: opts.CountryCode,
		timeout:     opts.Timeout,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, ch Channel, recipient string, p Payload) Result {
	switch ch {
	case ChannelEmail:
		return d.sendEmail(ctx, recipient, p)
	case ChannelWhatsApp:
		return d.sendWhatsApp(ctx, recipient, p)
	default:
		return Result{Channel: ch, Err: apperr.Newf(apperr.InvalidState, "notify", "unknown channel %q", ch)}
	}
}

// NotifyBoth fires both channels concurrently and waits for both.
func (d *Dispatcher) NotifyBoth(ctx context.Context, email, phone string, p Payload) (emailRes, waRes Result) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		emailRes = d.sendEmail(ctx, email, p)
	}()
	go func() {
		defer wg.Done()
		waRes = d.sendWhatsApp(ctx, phone, p)
	}()
	wg.Wait()
	return emailRes, waRes
}

func (d *Dispatcher) sendEmail(ctx context.Context, to string, p Payload) Result {
	res := Result{Channel: ChannelEmail}
	to = strings.TrimSpace(to)
	if d.email == nil || to == "" {
		metrics.Dispatches.WithLabelValues(string(ChannelEmail), "skipped").Inc()
		return res
	}
	cctx, cancel := ctxutil.WithDispatchTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.email.Send(cctx, to, p.Subject, p.HTML); err != nil {
		res.Err = d.fail(ctx, ChannelEmail, logging.Masked(to), err)
		return res
	}
	metrics.Dispatches.WithLabelValues(string(ChannelEmail), "sent").Inc()
	res.Sent = true
	return res
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, raw string, p Payload) Result {
	res := Result{Channel: ChannelWhatsApp}
	phone, ok := NormalizePhone(raw, d.countryCode)
	if d.messaging == nil || !ok {
		// телефон необязателен — тихо пропускаем
		if raw != "" && !ok {
			d.log.Debug("skip whatsapp: malformed phone", zap.String("phone", logging.Masked(raw)))
		}
		metrics.Dispatches.WithLabelValues(string(ChannelWhatsApp), "skipped").Inc()
		return res
	}
	cctx, cancel := ctxutil.WithDispatchTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.messaging.SendText(cctx, phone, p.Text); err != nil {
		res.Err = d.fail(ctx, ChannelWhatsApp, logging.Masked(phone), err)
		return res
	}
	metrics.Dispatches.WithLabelValues(string(ChannelWhatsApp), "sent").Inc()
	res.Sent = true
	return res
}

func (d *Dispatcher) fail(ctx context.Context, ch Channel, to string, err error) error {
	metrics.Dispatches.WithLabelValues(string(ch), "failed").Inc()
	tags := ctxutil.Tags(ctx, map[string]string{"channel": string(ch)})
	fields := []zap.Field{zap.String("to", to), zap.Error(err)}
	for k, v := range tags {
		fields = append(fields, zap.String(k, v))
	}
	d.log.Warn("dispatch failed", fields...)
	if IsSystemErr(err) {
		observability.CaptureWithTags(err, tags)
	}
	return apperr.New(apperr.DispatchFailure, string(ch), err)
}

// httpStatus — код ответа провайдера в тексте ошибки ("http 503: ...").
var httpStatus = regexp.MustCompile(`\bhttp (\d{3})\b`)

// IsSystemErr: 5xx, 429 и таймауты считаем системными; 4xx и валидацию в Sentry не шлём.
// Если в ошибке есть код ответа, решает только он: тело может содержать что угодно.
func IsSystemErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s := err.Error()
	if m := httpStatus.FindStringSubmatch(s); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code == 429 || code >= 500
	}
	for _, marker := range []string{"timeout", "connection refused"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

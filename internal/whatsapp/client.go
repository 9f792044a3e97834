// Package whatsapp is a client for a WhatsApp HTTP gateway
// (Evolution API style: POST /message/sendText/{instance}).
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/config"
)

type Client struct {
	log        *zap.Logger
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func New(cfg config.WhatsAppConfig, log *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing WHATSAPP_API_URL")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("WHATSAPP_API_URL: %w", err)
	}
	if strings.TrimSpace(cfg.Instance) == "" {
		return nil, fmt.Errorf("missing WHATSAPP_INSTANCE")
	}
	if log == nil {
		log = zap.NewNop()
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		log:        log.Named("whatsapp"),
		baseURL:    base,
		apiKey:     cfg.APIKey,
		instance:   cfg.Instance,
		httpClient: &http.Client{},
		maxRetries: retries,
		backoff:    500 * time.Millisecond,
	}, nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers text to phone (digits with country code, no "+").
// Retries on 429/5xx and transport errors; the caller's ctx bounds the total time.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(sendTextRequest{Number: phone, Text: text})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(c.instance))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return fmt.Errorf("whatsapp: %w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(wait):
			}
		}

		retry, err := c.do(ctx, endpoint, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.log.Debug("retrying send", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("whatsapp: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode/100 == 2 {
		return false, nil
	}
	err = fmt.Errorf("whatsapp: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return retry, err
}

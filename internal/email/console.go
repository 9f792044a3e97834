package email

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Console only logs messages. Used in dev and as the default provider.
type Console struct {
	log *zap.Logger

	mu   sync.Mutex
	Sent []Message
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

func NewConsole(log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{log: log.Named("email.console")}
}

func (c *Console) Send(_ context.Context, to, subject, htmlBody string) error {
	c.mu.Lock()
	c.Sent = append(c.Sent, Message{To: to, Subject: subject, HTML: htmlBody})
	c.mu.Unlock()
	c.log.Info("email", zap.String("to", to), zap.String("subject", subject), zap.String("text", plainText(htmlBody)))
	return nil
}

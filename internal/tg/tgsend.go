// Package tg sends operational notices to admins over Telegram.
package tg

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/observability"
)

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "bot was blocked") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	return strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout")
}

// Sender is the part of *tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

// AdminNotifier рассылает текст всем ADMIN_IDS. Без бота — только лог.
type AdminNotifier struct {
	bot      Sender
	adminIDs []int64
	log      *zap.Logger
}

func NewAdminNotifier(bot Sender, adminIDs []int64, log *zap.Logger) *AdminNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminNotifier{bot: bot, adminIDs: adminIDs, log: log.Named("tg")}
}

// NewBot — nil без токена: ops-уведомления необязательны.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, nil
	}
	return tgbotapi.NewBotAPI(token)
}

// Notify returns the number of admins the message reached.
func (n *AdminNotifier) Notify(text string) int {
	if n == nil || n.bot == nil {
		return 0
	}
	delivered := 0
	for _, id := range n.adminIDs {
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := Send(n.bot, msg); err != nil {
			n.log.Warn("admin notice failed", zap.Int64("chat_id", id), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

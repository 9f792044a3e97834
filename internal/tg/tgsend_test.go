package tg

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	sent []int64
	fail map[int64]error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if err := b.fail[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	b.sent = append(b.sent, msg.ChatID)
	return tgbotapi.Message{}, nil
}

func TestAdminNotifier(t *testing.T) {
	bot := &fakeBot{fail: map[int64]error{2: errors.New("Bad Request: chat not found")}}
	n := NewAdminNotifier(bot, []int64{1, 2, 3}, nil)

	if got := n.Notify("sweep failed"); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
	if len(bot.sent) != 2 || bot.sent[0] != 1 || bot.sent[1] != 3 {
		t.Fatalf("unexpected recipients: %v", bot.sent)
	}
}

func TestAdminNotifier_NoBot(t *testing.T) {
	if got := NewAdminNotifier(nil, []int64{1}, nil).Notify("x"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	var n *AdminNotifier
	if got := n.Notify("x"); got != 0 {
		t.Fatalf("nil notifier must be a no-op")
	}
}

func TestIsSystemErr(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Too Many Requests: retry after 5 (429)"), true},
		{errors.New("Internal Server Error (502)"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("Bad Request: chat not found"), false},
		{errors.New("Forbidden: bot was blocked by the user"), false},
	}
	for _, tt := range tests {
		if got := isSystemErr(tt.err); got != tt.want {
			t.Errorf("isSystemErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

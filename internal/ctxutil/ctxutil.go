package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyOpName key = iota
	keyCaller
)

// WithOp /Op — имя операции (для логов и Sentry)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// WithCaller /Caller — кто вызвал операцию (account id или "service")
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, keyCaller, caller)
}

func Caller(ctx context.Context) (string, bool) {
	v := ctx.Value(keyCaller)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Tags — op и caller из контекста плюс extra; для полей логов и тегов Sentry.
func Tags(ctx context.Context, extra map[string]string) map[string]string {
	out := make(map[string]string, len(extra)+2)
	if op, ok := Op(ctx); ok {
		out["op"] = op
	}
	if c, ok := Caller(ctx); ok {
		out["caller"] = c
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var (
	DefaultDBTimeout       = 5 * time.Second
	DefaultDispatchTimeout = 15 * time.Second
)

// WithDBTimeout — стандартный таймаут для БД.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return capped(parent, DefaultDBTimeout)
}

// WithDispatchTimeout — таймаут на один вызов внешнего провайдера (email/WhatsApp).
func WithDispatchTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultDispatchTimeout
	}
	return capped(parent, d)
}

func capped(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		// если у родителя осталось меньше — берем остаток
		if remain := time.Until(dl); remain < d {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, d)
}

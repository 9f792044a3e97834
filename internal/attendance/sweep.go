package attendance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/ctxutil"
)

type Kind string

const (
	KindDaily       Kind = "daily"
	KindAccumulated Kind = "accumulated"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindDaily, KindAccumulated:
		return Kind(s), true
	}
	return "", false
}

// SweepResult is what a sweep reports to its trigger. Failures are values here,
// never raised, so a scheduler calling over HTTP sees a normal response.
type SweepResult struct {
	OK       bool   `json:"ok"`
	Kind     Kind   `json:"kind"`
	Alerted  int    `json:"alerted"`
	Messages int    `json:"messages"`
	Error    string `json:"error,omitempty"`

	Err error `json:"-"`
}

func (r *SweepResult) fail(err error) {
	r.OK = false
	r.Err = err
	r.Error = err.Error()
}

// Run loads settings once and runs the sweep of the given kind.
func (m *Monitor) Run(ctx context.Context, kind Kind) (res SweepResult) {
	res.Kind = kind
	ctx = ctxutil.WithOp(ctx, "sweep:"+string(kind))

	defer func() {
		if r := recover(); r != nil {
			res.fail(fmt.Errorf("sweep %s panicked: %v", kind, r))
			m.log.Error("sweep panic", zap.String("kind", string(kind)), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	if _, ok := ParseKind(string(kind)); !ok {
		res.fail(fmt.Errorf("unknown sweep kind %q", kind))
		return res
	}

	settings, err := m.store.LoadSettings(ctx)
	if err != nil {
		res.fail(err)
		m.log.Error("load settings failed", zap.Error(err))
		return res
	}

	switch kind {
	case KindDaily:
		r, err := m.RunDailyLateCheck(ctx, settings)
		res.Alerted, res.Messages = r.Alerted, r.Messages
		if err != nil {
			res.fail(err)
			return res
		}
	case KindAccumulated:
		r, err := m.RunAccumulatedCheck(ctx, settings)
		res.Alerted, res.Messages = r.Alerted, r.Messages
		if err != nil {
			res.fail(err)
			return res
		}
	}
	res.OK = true
	return res
}

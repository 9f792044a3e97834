package jobs

import (
	"context"
	"fmt"

	"github.com/Spok95/school-notifier/internal/attendance"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/observability"
)

type Sweeper interface {
	Run(ctx context.Context, kind attendance.Kind) attendance.SweepResult
}

type OpsNotifier interface {
	Notify(text string) int
}

// RegisterSweeps ставит ежедневную и накопительную проверки посещаемости в расписание.
func RegisterSweeps(r *Runner, s Sweeper, ops OpsNotifier, dailySpec, accumulatedSpec string) error {
	if err := r.Schedule(dailySpec, "attendance_daily", SweepJob(s, ops, attendance.KindDaily)); err != nil {
		return err
	}
	return r.Schedule(accumulatedSpec, "attendance_accumulated", SweepJob(s, ops, attendance.KindAccumulated))
}

// SweepJob: неуспешный прогон уходит в Sentry и админам в Telegram.
func SweepJob(s Sweeper, ops OpsNotifier, kind attendance.Kind) Job {
	return func(ctx context.Context) error {
		ctx = ctxutil.WithCaller(ctx, "cron")
		res := s.Run(ctx, kind)
		if res.OK {
			return nil
		}
		err := res.Err
		if err == nil {
			err = fmt.Errorf("sweep %s: %s", kind, res.Error)
		}
		observability.CaptureWithTags(err, ctxutil.Tags(ctx, map[string]string{"sweep": string(kind), "op": "sweep:" + string(kind)}))
		if ops != nil {
			ops.Notify(fmt.Sprintf("⚠️ Проверка посещаемости (%s) завершилась с ошибкой: %s\nУспели отправить: %d", kind, res.Error, res.Messages))
		}
		return err
	}
}

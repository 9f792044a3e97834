package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/observability"
)

type Job func(ctx context.Context) error

// Runner запускает задачи по cron-расписанию. Пересечение запусков одной задачи пропускается.
type Runner struct {
	ctx  context.Context
	cron *cron.Cron
	log  *zap.Logger
}

func New(ctx context.Context, loc *time.Location, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{log.Named("cron")}
	return &Runner{
		ctx:  ctx,
		cron: cron.New(cron.WithLocation(loc), cron.WithLogger(l), cron.WithChain(cron.SkipIfStillRunning(l))),
		log:  log.Named("jobs"),
	}
}

// Schedule регистрирует задачу; пустой spec — задача выключена.
func (r *Runner) Schedule(spec, name string, fn Job) error {
	if spec == "" {
		r.log.Info("job disabled", zap.String("job", name))
		return nil
	}
	_, err := r.cron.AddFunc(spec, func() { r.run(name, fn) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	r.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (r *Runner) Start() { r.cron.Start() }

// Stop ждёт завершения запущенных задач, но не дольше ctx.
func (r *Runner) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.log.Warn("jobs still running at shutdown")
	}
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			jobErrors.WithLabelValues(name).Inc()
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
			r.log.Error("job panic", zap.String("job", name), zap.Any("panic", rec))
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if r.ctx.Err() != nil {
		return
	}
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
}

// cronLogger переводит cron.Logger на zap.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Sugar().Debugw(msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Sugar().Errorw(msg, append(kv, "error", err)...)
}

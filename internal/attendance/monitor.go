// Package attendance runs the daily check-in sweep and the accumulated-absence
// sweep over active students.
package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/lock"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/notify"
)

type Store interface {
	LoadSettings(ctx context.Context) (models.Settings, error)
	ListActiveStudents(ctx context.Context, withPhone bool) ([]models.Student, error)
	PresentStudentIDsSince(ctx context.Context, since time.Time) (map[uuid.UUID]struct{}, error)
	StudentSubjects(ctx context.Context, studentID uuid.UUID) ([]models.Subject, error)
	CountPresence(ctx context.Context, studentID, subjectID uuid.UUID) (int, error)
	InsertAlertIfAbsent(ctx context.Context, a models.AttendanceAlert) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, ch notify.Channel, recipient string, p notify.Payload) notify.Result
}

type Options struct {
	Location *time.Location
	Workers  int
}

type Monitor struct {
	store    Store
	notifier Notifier
	locks    *lock.Limiter
	log      *zap.Logger
	loc      *time.Location
	workers  int
	now      func() time.Time
}

func NewMonitor(store Store, notifier Notifier, locks *lock.Limiter, log *zap.Logger, opts Options) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if locks == nil {
		locks = lock.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Monitor{
		store:    store,
		notifier: notifier,
		locks:    locks,
		log:      log.Named("attendance"),
		loc:      opts.Location,
		workers:  opts.Workers,
		now:      time.Now,
	}
}

// startOfDay — полночь текущего дня в часовом поясе школы.
func (m *Monitor) startOfDay() time.Time {
	n := m.now().In(m.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, m.loc)
}

func (m *Monitor) sendText(ctx context.Context, phone, text string) bool {
	if phone == "" {
		return false
	}
	return m.notifier.Notify(ctx, notify.ChannelWhatsApp, phone, notify.Payload{Text: text}).Sent
}

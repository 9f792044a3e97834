package attendance

import (
	"context"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Spok95/school-notifier/internal/metrics"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/templates"
)

type AccumulatedResult struct {
	Alerted  int
	Messages int
}

// Classify returns the alert severity for an absence count, or false when the
// count is below the alert threshold.
func Classify(absences int, s models.Settings) (models.Severity, bool) {
	if absences <= 0 || absences < s.AlertThreshold {
		return "", false
	}
	if absences >= s.FailThreshold {
		return models.SeverityCritical, true
	}
	return models.SeverityHigh, true
}

// Absences is workload minus presence. A negative value means duplicate
// check-ins; it is clamped to zero and reported via clamped=true.
func Absences(sub models.Subject, presence int) (absences int, clamped bool) {
	n := sub.TotalLessons() - presence
	if n < 0 {
		return 0, true
	}
	return n, false
}

// RunAccumulatedCheck walks every active student and subject, writes one ledger
// row per new absence count and messages the student and the secretary.
// The run is not transactional: rows written before a failure stay. After the
// first failure no new students are started; those already in flight finish
// with the caller's context so their recorded alerts still get delivered.
func (m *Monitor) RunAccumulatedCheck(ctx context.Context, settings models.Settings) (AccumulatedResult, error) {
	students, err := m.store.ListActiveStudents(ctx, false)
	if err != nil {
		return AccumulatedResult{}, err
	}

	var alerted, messages atomic.Int64
	var failed atomic.Bool
	g := new(errgroup.Group)
	g.SetLimit(m.workers)
	for _, st := range students {
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			a, msgs, err := m.checkStudent(ctx, settings, st)
			alerted.Add(int64(a))
			messages.Add(int64(msgs))
			if err != nil {
				failed.Store(true)
			}
			return err
		})
	}
	err = g.Wait()

	res := AccumulatedResult{Alerted: int(alerted.Load()), Messages: int(messages.Load())}
	m.log.Info("accumulated check done",
		zap.Int("students", len(students)),
		zap.Int("alerted", res.Alerted),
		zap.Int("messages", res.Messages),
		zap.Error(err),
	)
	return res, err
}

func (m *Monitor) checkStudent(ctx context.Context, settings models.Settings, st models.Student) (alerted, messages int, err error) {
	subjects, err := m.store.StudentSubjects(ctx, st.ID)
	if err != nil {
		return 0, 0, err
	}
	for _, sub := range subjects {
		sent, ok, err := m.checkSubject(ctx, settings, st, sub)
		if err != nil {
			return alerted, messages, err
		}
		if ok {
			alerted++
			messages += sent
		}
	}
	return alerted, messages, nil
}

// checkSubject держит блокировку по паре (студент, предмет) на время проверки и вставки.
func (m *Monitor) checkSubject(ctx context.Context, settings models.Settings, st models.Student, sub models.Subject) (sent int, alerted bool, err error) {
	unlock, err := m.locks.Lock(ctx, "alert:"+st.ID.String()+":"+sub.ID.String())
	if err != nil {
		return 0, false, err
	}
	defer unlock()

	presence, err := m.store.CountPresence(ctx, st.ID, sub.ID)
	if err != nil {
		return 0, false, err
	}
	absences, clamped := Absences(sub, presence)
	if clamped {
		metrics.NegativeAbsences.Inc()
		m.log.Warn("presence exceeds workload, check for duplicate attendance records",
			zap.String("student_id", st.ID.String()),
			zap.String("subject_id", sub.ID.String()),
			zap.Int("presence", presence),
			zap.Int("workload", sub.TotalLessons()),
		)
	}

	sev, ok := Classify(absences, settings)
	if !ok {
		return 0, false, nil
	}

	inserted, err := m.store.InsertAlertIfAbsent(ctx, models.AttendanceAlert{
		StudentID:     st.ID,
		SubjectID:     sub.ID,
		AbsencesCount: absences,
		Severity:      sev,
		Type:          models.AlertTypeLowAttendance,
	})
	if err != nil {
		return 0, false, err
	}
	if !inserted {
		metrics.AlertsDeduped.Inc()
		return 0, false, nil
	}
	metrics.AlertsInserted.WithLabelValues(string(sev)).Inc()

	// строка в журнале уже есть: повторной попытки не будет, поэтому отправка
	// не зависит от отмены родителя (таймаут ставит диспетчер)
	sendCtx := context.WithoutCancel(ctx)
	text := templates.Render(templates.Alert(settings.Templates, sev), map[string]string{
		templates.KeyName:     st.FirstName(),
		templates.KeyAbsences: strconv.Itoa(absences),
		templates.KeySubject:  sub.Name,
	})
	if m.sendText(sendCtx, st.PhoneNumber(), text) {
		sent++
	}
	if m.sendText(sendCtx, settings.SecretaryPhone, templates.ReportPrefix+st.FullName+": "+text) {
		sent++
	}

	m.log.Info("attendance alert",
		zap.String("student_id", st.ID.String()),
		zap.String("subject", sub.Name),
		zap.Int("absences", absences),
		zap.String("severity", string(sev)),
	)
	return sent, true, nil
}

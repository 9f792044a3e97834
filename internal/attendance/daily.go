package attendance

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/metrics"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/templates"
)

// DailyResult: Alerted is the number of students without a check-in today.
type DailyResult struct {
	Alerted  int
	Messages int
}

// RunDailyLateCheck messages every active student with a phone who has no
// "present" record today, then sends one summary to the secretary.
// Nothing is deduplicated: a student absent on two days is messaged twice.
func (m *Monitor) RunDailyLateCheck(ctx context.Context, settings models.Settings) (DailyResult, error) {
	students, err := m.store.ListActiveStudents(ctx, true)
	if err != nil {
		return DailyResult{}, err
	}
	present, err := m.store.PresentStudentIDsSince(ctx, m.startOfDay())
	if err != nil {
		return DailyResult{}, err
	}

	var missing []models.Student
	for _, st := range students {
		if _, ok := present[st.ID]; !ok {
			missing = append(missing, st)
		}
	}
	metrics.DailyMissing.Set(float64(len(missing)))

	var res DailyResult
	tpl := templates.DailyLate(settings.Templates)
	for _, st := range missing {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		text := templates.Render(tpl, map[string]string{
			templates.KeyName:     st.FirstName(),
			templates.KeyTime:     settings.ClassStartTime,
			templates.KeyDeadline: settings.CheckinDeadline,
		})
		if m.sendText(ctx, st.PhoneNumber(), text) {
			res.Messages++
		}
		res.Alerted++
	}

	if settings.SecretaryPhone != "" && len(missing) > 0 {
		if m.sendText(ctx, settings.SecretaryPhone, m.dailySummary(missing)) {
			res.Messages++
		}
	}

	m.log.Info("daily late check done",
		zap.Int("students", len(students)),
		zap.Int("missing", len(missing)),
		zap.Int("messages", res.Messages),
	)
	return res, nil
}

func (m *Monitor) dailySummary(missing []models.Student) string {
	var b strings.Builder
	b.WriteString(templates.ReportPrefix)
	b.WriteString(templates.DailySummaryHeader)
	b.WriteString(" (")
	b.WriteString(m.now().In(m.loc).Format("02/01/2006"))
	b.WriteString("):")
	for _, st := range missing {
		b.WriteString("\n- ")
		b.WriteString(st.FullName)
	}
	return b.String()
}

package export

import (
	"strconv"
	"time"

	"github.com/Spok95/school-notifier/internal/models"
)

var alertsHeader = []string{"Data", "Aluno", "Matéria", "Faltas", "Gravidade", "Tipo"}

var severityLabel = map[models.Severity]string{
	models.SeverityHigh:     "Alta",
	models.SeverityCritical: "Crítica",
}

// AlertsWorkbook: лист со всеми алертами и отдельный лист только с критическими.
func AlertsWorkbook(rows []models.AlertRow, loc *time.Location) (*Workbook, error) {
	if loc == nil {
		loc = time.UTC
	}
	var all, critical [][]string
	for _, r := range rows {
		line := []string{
			r.CreatedAt.In(loc).Format("02/01/2006 15:04"),
			r.StudentName,
			r.SubjectName,
			strconv.Itoa(r.AbsencesCount),
			severityText(r.Severity),
			r.Type,
		}
		all = append(all, line)
		if r.Severity == models.SeverityCritical {
			critical = append(critical, line)
		}
	}
	return NewWorkbook([]SheetSpec{
		{Title: "Alertas", Header: alertsHeader, Rows: all},
		{Title: "Críticos", Header: alertsHeader, Rows: critical},
	})
}

func severityText(s models.Severity) string {
	if l, ok := severityLabel[s]; ok {
		return l
	}
	return string(s)
}

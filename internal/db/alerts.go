package db

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/models"
)

// InsertAlertIfAbsent — атомарная вставка в журнал. false, если алерт с тем же
// (student, subject, absences_count) уже есть.
func (s *Store) InsertAlertIfAbsent(ctx context.Context, a models.AttendanceAlert) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_alerts (student_id, subject_id, absences_count, severity, type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT attendance_alerts_watermark DO NOTHING
	`, a.StudentID, a.SubjectID, a.AbsencesCount, string(a.Severity), a.Type)
	if err != nil {
		return false, persistErr("insert alert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("insert alert", err)
	}
	return n == 1, nil
}

// ListAlerts — журнал алертов с именами, для выгрузки. Пустой severities — все.
func (s *Store) ListAlerts(ctx context.Context, since time.Time, severities []string) ([]models.AlertRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, a.subject_id, a.absences_count, a.severity, a.type, a.created_at,
		       st.full_name, sub.name
		FROM attendance_alerts a
		JOIN students st ON st.id = a.student_id
		JOIN subjects sub ON sub.id = a.subject_id
		WHERE a.created_at >= $1
		  AND (COALESCE(cardinality($2::text[]), 0) = 0 OR a.severity = ANY($2::text[]))
		ORDER BY a.created_at DESC, st.full_name
	`, since, pq.Array(severities))
	if err != nil {
		return nil, persistErr("list alerts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AlertRow
	for rows.Next() {
		var r models.AlertRow
		if err := rows.Scan(&r.ID, &r.StudentID, &r.SubjectID, &r.AbsencesCount, &r.Severity, &r.Type, &r.CreatedAt,
			&r.StudentName, &r.SubjectName); err != nil {
			return nil, persistErr("list alerts", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list alerts", err)
	}
	return out, nil
}

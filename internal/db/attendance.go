package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/models"
)

// PresentStudentIDsSince — студенты, у которых есть запись "present" с момента since.
func (s *Store) PresentStudentIDsSince(ctx context.Context, since time.Time) (map[uuid.UUID]struct{}, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT student_id
		FROM attendance_records
		WHERE status = 'present' AND created_at >= $1
	`, since)
	if err != nil {
		return nil, persistErr("present since", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, persistErr("present since", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("present since", err)
	}
	return out, nil
}

// StudentSubjects — предметы, по которым у студента есть хоть какая-то посещаемость.
func (s *Store) StudentSubjects(ctx context.Context, studentID uuid.UUID) ([]models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT sub.id, sub.name, sub.workload
		FROM attendance_records ar
		JOIN lessons l ON l.id = ar.lesson_id
		JOIN subjects sub ON sub.id = l.subject_id
		WHERE ar.student_id = $1
		ORDER BY sub.name
	`, studentID)
	if err != nil {
		return nil, persistErr("student subjects", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Subject
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Workload); err != nil {
			return nil, persistErr("student subjects", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("student subjects", err)
	}
	return out, nil
}

// CountPresence — число записей "present" студента по урокам предмета (дубли считаются).
func (s *Store) CountPresence(ctx context.Context, studentID, subjectID uuid.UUID) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM attendance_records ar
		JOIN lessons l ON l.id = ar.lesson_id
		WHERE ar.student_id = $1 AND l.subject_id = $2 AND ar.status = 'present'
	`, studentID, subjectID).Scan(&n)
	if err != nil {
		return 0, persistErr("count presence", err)
	}
	return n, nil
}

// RecordAttendance appends a check-in row. Records are never updated.
func (s *Store) RecordAttendance(ctx context.Context, studentID, lessonID uuid.UUID, status models.AttendanceStatus) (models.AttendanceRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rec := models.AttendanceRecord{StudentID: studentID, LessonID: lessonID, Status: status}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (student_id, lesson_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, studentID, lessonID, string(status)).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return models.AttendanceRecord{}, persistErr("record attendance", err)
	}
	return rec, nil
}

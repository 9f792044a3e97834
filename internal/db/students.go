package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/models"
)

const studentCols = `id, full_name, email, phone, status, modality, credentials_sent_at`

func scanStudent(row interface{ Scan(...any) error }) (models.Student, error) {
	var st models.Student
	var email, phone sql.NullString
	var sentAt sql.NullTime
	if err := row.Scan(&st.ID, &st.FullName, &email, &phone, &st.Status, &st.Modality, &sentAt); err != nil {
		return models.Student{}, err
	}
	if email.Valid {
		st.Email = &email.String
	}
	if phone.Valid {
		st.Phone = &phone.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		st.CredentialsSentAt = &t
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	st, err := scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, apperr.Newf(apperr.NotFound, "get student", "student %s not found", id)
	}
	if err != nil {
		return models.Student{}, persistErr("get student", err)
	}
	return st, nil
}

// ListActiveStudents — активные студенты; withPhone оставляет только тех, у кого есть телефон.
func (s *Store) ListActiveStudents(ctx context.Context, withPhone bool) ([]models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + studentCols + ` FROM students WHERE status = 'active'`
	if withPhone {
		q += ` AND phone IS NOT NULL AND btrim(phone) <> ''`
	}
	q += ` ORDER BY full_name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, persistErr("list active students", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, persistErr("scan student", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list active students", err)
	}
	return out, nil
}

// MarkProvisioned переводит студента в active; credentials_sent_at ставится только если sentAt != nil.
func (s *Store) MarkProvisioned(ctx context.Context, id uuid.UUID, sentAt *time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var ts sql.NullTime
	if sentAt != nil {
		ts = sql.NullTime{Time: *sentAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE students
		SET status = 'active',
		    credentials_sent_at = COALESCE($2, credentials_sent_at),
		    updated_at = now()
		WHERE id = $1
	`, id, ts)
	if err != nil {
		return persistErr("mark provisioned", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "mark provisioned", "student %s not found", id)
	}
	return nil
}

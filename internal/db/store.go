package db

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Spok95/school-notifier/internal/apperr"
)

// Store wraps *sql.DB; all methods apply ctxutil.WithDBTimeout and map
// failures to apperr kinds.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

func (s *Store) DB() *sql.DB { return s.db }

func persistErr(op string, err error) error {
	return apperr.New(apperr.PersistenceFailure, op, err)
}

// isUniqueViolation понимает оба драйвера: pgx (прод) и lib/pq (тесты).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

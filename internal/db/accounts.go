package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/models"
)

// Accounts is the portal identity store, backed by the accounts table.
type Accounts struct {
	db   *sql.DB
	cost int
}

func NewAccounts(database *sql.DB) *Accounts {
	return &Accounts{db: database, cost: bcrypt.DefaultCost}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// CreateAccount returns models.ErrAccountExists when the e-mail is taken.
func (a *Accounts) CreateAccount(ctx context.Context, email, credential string, meta models.AccountMeta) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return uuid.Nil, err
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	err = a.db.QueryRowContext(ctx, `
		INSERT INTO accounts (email, password_hash, full_name, role, student_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, strings.TrimSpace(email), string(hash), meta.FullName, string(meta.Role), nullUUID(meta.StudentID)).Scan(&id)
	if isUniqueViolation(err) {
		return uuid.Nil, models.ErrAccountExists
	}
	if err != nil {
		return uuid.Nil, persistErr("create account", err)
	}
	return id, nil
}

func (a *Accounts) FindAccountIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	err := a.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE lower(email) = lower($1)`, strings.TrimSpace(email)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, persistErr("find account", err)
	}
	return id, true, nil
}

func (a *Accounts) SetCredential(ctx context.Context, id uuid.UUID, credential string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return err
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := a.db.ExecContext(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, string(hash))
	if err != nil {
		return persistErr("set credential", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "set credential", "account %s not found", id)
	}
	return nil
}

func (a *Accounts) UpdateMetadata(ctx context.Context, id uuid.UUID, meta models.AccountMeta) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := a.db.ExecContext(ctx, `
		UPDATE accounts
		SET full_name = $2, role = $3, student_id = $4, updated_at = now()
		WHERE id = $1
	`, id, meta.FullName, string(meta.Role), nullUUID(meta.StudentID))
	if err != nil {
		return persistErr("update account metadata", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "update account metadata", "account %s not found", id)
	}
	return nil
}

// RoleOf — роль аккаунта для проверки прав вызывающего.
func (a *Accounts) RoleOf(ctx context.Context, id uuid.UUID) (models.Role, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var role string
	err := a.db.QueryRowContext(ctx, `SELECT role FROM accounts WHERE id = $1`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.Newf(apperr.NotFound, "role lookup", "account %s not found", id)
	}
	if err != nil {
		return "", persistErr("role lookup", err)
	}
	return models.Role(role), nil
}

// CheckCredential сверяет пароль с хешем; используется в тестах и при входе в портал.
func (a *Accounts) CheckCredential(ctx context.Context, email, credential string) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var hash string
	err := a.db.QueryRowContext(ctx, `SELECT password_hash FROM accounts WHERE lower(email) = lower($1)`, strings.TrimSpace(email)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("check credential", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil, nil
}

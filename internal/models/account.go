package models

import (
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// AccountMeta is the metadata linked to a portal account.
type AccountMeta struct {
	FullName  string
	Role      Role
	StudentID uuid.UUID
}

// ErrAccountExists is returned by identity stores when the e-mail already has an account.
var ErrAccountExists = errors.New("account already exists")

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type StudentStatus string

const (
	StatusPending   StudentStatus = "pending"
	StatusActive    StudentStatus = "active"
	StatusGraduated StudentStatus = "graduated"
	StatusInactive  StudentStatus = "inactive"
)

type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityRemote   Modality = "remote"
)

type Student struct {
	ID                uuid.UUID     `db:"id"`
	FullName          string        `db:"full_name"`
	Email             *string       `db:"email"`
	Phone             *string       `db:"phone"`
	Status            StudentStatus `db:"status"`
	Modality          Modality      `db:"modality"`
	CredentialsSentAt *time.Time    `db:"credentials_sent_at"`
}

// FirstName — первый токен полного имени.
func (s Student) FirstName() string {
	f := strings.Fields(s.FullName)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func (s Student) EmailAddr() string {
	if s.Email == nil {
		return ""
	}
	return strings.TrimSpace(*s.Email)
}

func (s Student) PhoneNumber() string {
	if s.Phone == nil {
		return ""
	}
	return strings.TrimSpace(*s.Phone)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultWorkload is used as the attendance denominator when a subject has none configured.
const DefaultWorkload = 5

type Subject struct {
	ID       uuid.UUID `db:"id"`
	Name     string    `db:"name"`
	Workload int       `db:"workload"`
}

// TotalLessons returns the workload, falling back to DefaultWorkload when unset.
func (s Subject) TotalLessons() int {
	if s.Workload <= 0 {
		return DefaultWorkload
	}
	return s.Workload
}

type Lesson struct {
	ID        uuid.UUID `db:"id"`
	SubjectID uuid.UUID `db:"subject_id"`
	StartsAt  time.Time `db:"starts_at"`
	Mode      Modality  `db:"mode"`
}

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
)

type AttendanceRecord struct {
	ID        uuid.UUID        `db:"id"`
	StudentID uuid.UUID        `db:"student_id"`
	LessonID  uuid.UUID        `db:"lesson_id"`
	Status    AttendanceStatus `db:"status"`
	CreatedAt time.Time        `db:"created_at"`
}

type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const AlertTypeLowAttendance = "low_attendance"

// AttendanceAlert — строка журнала дедупликации. Не обновляется, только вставляется.
type AttendanceAlert struct {
	ID            uuid.UUID `db:"id"`
	StudentID     uuid.UUID `db:"student_id"`
	SubjectID     uuid.UUID `db:"subject_id"`
	AbsencesCount int       `db:"absences_count"`
	Severity      Severity  `db:"severity"`
	Type          string    `db:"type"`
	CreatedAt     time.Time `db:"created_at"`
}

// AlertRow is an alert joined with display names, used by reports.
type AlertRow struct {
	AttendanceAlert
	StudentName string `db:"student_name"`
	SubjectName string `db:"subject_name"`
}

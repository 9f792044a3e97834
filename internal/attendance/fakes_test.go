package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/notify"
)

type alertKey struct {
	student, subject uuid.UUID
	absences         int
}

type fakeStore struct {
	mu sync.Mutex

	settings models.Settings
	students []models.Student
	subjects map[uuid.UUID][]models.Subject // по студенту
	presence map[[2]uuid.UUID]int           // (student, subject) -> present records
	checkins map[uuid.UUID]time.Time        // последний present по студенту
	alerts   map[alertKey]models.AttendanceAlert

	failSettings error
	panicOnList  bool
	// StudentSubjects для этого студента ждёт subjectsDelay и падает
	failSubjectsFor uuid.UUID
	subjectsDelay   time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: models.DefaultSettings(),
		subjects: map[uuid.UUID][]models.Subject{},
		presence: map[[2]uuid.UUID]int{},
		checkins: map[uuid.UUID]time.Time{},
		alerts:   map[alertKey]models.AttendanceAlert{},
	}
}

func (f *fakeStore) addStudent(name, phone string) models.Student {
	st := models.Student{ID: uuid.New(), FullName: name, Status: models.StatusActive}
	if phone != "" {
		st.Phone = &phone
	}
	f.students = append(f.students, st)
	return st
}

func (f *fakeStore) enroll(st models.Student, sub models.Subject, present int) {
	f.subjects[st.ID] = append(f.subjects[st.ID], sub)
	f.presence[[2]uuid.UUID{st.ID, sub.ID}] = present
}

func (f *fakeStore) LoadSettings(context.Context) (models.Settings, error) {
	if f.failSettings != nil {
		return models.Settings{}, f.failSettings
	}
	return f.settings, nil
}

func (f *fakeStore) ListActiveStudents(_ context.Context, withPhone bool) ([]models.Student, error) {
	if f.panicOnList {
		panic("boom")
	}
	var out []models.Student
	for _, st := range f.students {
		if withPhone && st.PhoneNumber() == "" {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeStore) PresentStudentIDsSince(_ context.Context, since time.Time) (map[uuid.UUID]struct{}, error) {
	out := map[uuid.UUID]struct{}{}
	for id, at := range f.checkins {
		if !at.Before(since) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) StudentSubjects(_ context.Context, id uuid.UUID) ([]models.Subject, error) {
	if id == f.failSubjectsFor {
		time.Sleep(f.subjectsDelay)
		return nil, errors.New("transient db error")
	}
	return f.subjects[id], nil
}

func (f *fakeStore) CountPresence(_ context.Context, st, sub uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presence[[2]uuid.UUID{st, sub}], nil
}

func (f *fakeStore) InsertAlertIfAbsent(_ context.Context, a models.AttendanceAlert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := alertKey{a.StudentID, a.SubjectID, a.AbsencesCount}
	if _, ok := f.alerts[k]; ok {
		return false, nil
	}
	f.alerts[k] = a
	return true, nil
}

func (f *fakeStore) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type sent struct {
	to   string
	text string
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sent
	fail  bool
	delay time.Duration // имитация сетевого вызова, уважает ctx
}

func (f *fakeNotifier) Notify(ctx context.Context, ch notify.Channel, to string, p notify.Payload) notify.Result {
	if ch != notify.ChannelWhatsApp {
		panic(fmt.Sprintf("unexpected channel %s", ch))
	}
	if f.fail {
		return notify.Result{Channel: ch, Err: errors.New("provider down")}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return notify.Result{Channel: ch, Err: ctx.Err()}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: to, text: p.Text})
	return notify.Result{Channel: ch, Sent: true}
}

func (f *fakeNotifier) to(phone string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.to == phone {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

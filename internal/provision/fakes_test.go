package provision

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/notify"
)

type fakeStudents struct {
	mu       sync.Mutex
	students map[uuid.UUID]models.Student
	settings models.Settings
	markErr  error
}

func newFakeStudents(st ...models.Student) *fakeStudents {
	f := &fakeStudents{students: map[uuid.UUID]models.Student{}, settings: models.DefaultSettings()}
	for _, s := range st {
		f.students[s.ID] = s
	}
	return f
}

func (f *fakeStudents) GetStudent(_ context.Context, id uuid.UUID) (models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[id]
	if !ok {
		return models.Student{}, apperr.Newf(apperr.NotFound, "get student", "student %s not found", id)
	}
	return st, nil
}

func (f *fakeStudents) MarkProvisioned(_ context.Context, id uuid.UUID, sentAt *time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.students[id]
	st.Status = models.StatusActive
	if sentAt != nil {
		st.CredentialsSentAt = sentAt
	}
	f.students[id] = st
	return nil
}

func (f *fakeStudents) LoadSettings(context.Context) (models.Settings, error) { return f.settings, nil }

func (f *fakeStudents) get(id uuid.UUID) models.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.students[id]
}

type account struct {
	id   uuid.UUID
	cred string
	meta models.AccountMeta
}

type fakeIdentity struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	creates  int
	hideFind bool // FindAccountIDByEmail ничего не находит
	vanish   bool // учётка удаляется сразу после FindAccountIDByEmail
}

func newFakeIdentity() *fakeIdentity { return &fakeIdentity{byEmail: map[string]*account{}} }

func (f *fakeIdentity) CreateAccount(_ context.Context, email, cred string, meta models.AccountMeta) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := f.byEmail[key]; ok {
		return uuid.Nil, models.ErrAccountExists
	}
	a := &account{id: uuid.New(), cred: cred, meta: meta}
	f.byEmail[key] = a
	f.creates++
	return a.id, nil
}

func (f *fakeIdentity) FindAccountIDByEmail(_ context.Context, email string) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[strings.ToLower(email)]
	if !ok || f.hideFind {
		return uuid.Nil, false, nil
	}
	if f.vanish {
		delete(f.byEmail, strings.ToLower(email))
	}
	return a.id, true, nil
}

func (f *fakeIdentity) find(id uuid.UUID) *account {
	for _, a := range f.byEmail {
		if a.id == id {
			return a
		}
	}
	return nil
}

func (f *fakeIdentity) SetCredential(_ context.Context, id uuid.UUID, cred string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(id)
	if a == nil {
		return apperr.Newf(apperr.NotFound, "set credential", "account %s not found", id)
	}
	a.cred = cred
	return nil
}

func (f *fakeIdentity) UpdateMetadata(_ context.Context, id uuid.UUID, meta models.AccountMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(id)
	if a == nil {
		return apperr.Newf(apperr.NotFound, "update account metadata", "account %s not found", id)
	}
	a.meta = meta
	return nil
}

func (f *fakeIdentity) credOf(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byEmail[strings.ToLower(email)]; ok {
		return a.cred
	}
	return ""
}

type fakeNotifier struct {
	mu       sync.Mutex
	emailOK  bool
	waOK     bool
	payloads []notify.Payload
}

func (f *fakeNotifier) NotifyBoth(_ context.Context, email, phone string, p notify.Payload) (notify.Result, notify.Result) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	e := notify.Result{Channel: notify.ChannelEmail, Sent: f.emailOK && email != ""}
	w := notify.Result{Channel: notify.ChannelWhatsApp, Sent: f.waOK && phone != ""}
	if !e.Sent {
		e.Err = apperr.E(apperr.DispatchFailure)
	}
	return e, w
}

func (f *fakeNotifier) last() notify.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[len(f.payloads)-1]
}

func strPtr(s string) *string { return &s }

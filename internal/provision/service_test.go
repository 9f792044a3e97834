package provision

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/templates"
)

func newStudent() models.Student {
	return models.Student{
		ID:       uuid.New(),
		FullName: "Maria Aparecida Souza",
		Email:    strPtr("maria@example.com"),
		Phone:    strPtr("(11) 98765-4321"),
		Status:   models.StatusPending,
		Modality: models.ModalityRemote,
	}
}

func TestProvision_NewThenReset(t *testing.T) {
	st := newStudent()
	students := newFakeStudents(st)
	identity := newFakeIdentity()
	n := &fakeNotifier{emailOK: true, waOK: true}
	svc := NewService(students, identity, n, nil, ResetAsNew, nil)
	ctx := context.Background()

	first, err := svc.Provision(ctx, st.ID, false)
	if err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if first.Outcome != OutcomeCreated || !first.IsNewAccount {
		t.Fatalf("first: expected created/new, got %+v", first)
	}
	if !first.EmailSent || !first.WhatsAppSent {
		t.Fatalf("first: expected both channels sent, got %+v", first)
	}
	if first.Credential != "" {
		t.Fatalf("credential must not be exposed when delivered")
	}
	cred1 := identity.credOf("maria@example.com")
	if !strings.Contains(n.last().Text, cred1) || !strings.Contains(n.last().Text, "Maria") {
		t.Fatalf("whatsapp text must carry first name and credential: %q", n.last().Text)
	}
	got := students.get(st.ID)
	if got.Status != models.StatusActive || got.CredentialsSentAt == nil {
		t.Fatalf("student not marked: %+v", got)
	}

	second, err := svc.Provision(ctx, st.ID, true)
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if second.Outcome != OutcomeReset {
		t.Fatalf("second: expected reset, got %s", second.Outcome)
	}
	if identity.creates != 1 {
		t.Fatalf("expected exactly one account, got %d", identity.creates)
	}
	cred2 := identity.credOf("maria@example.com")
	if cred2 == cred1 {
		t.Fatalf("credential must be rotated")
	}
	if !second.IsNewAccount {
		t.Fatalf("policy %q reports reset as new", ResetAsNew)
	}
	if n.last().Subject != templates.DefaultAccessNewSubject {
		t.Fatalf("expected new-access subject, got %q", n.last().Subject)
	}
}

func TestProvision_ResetPolicyUsesResetTexts(t *testing.T) {
	st := newStudent()
	identity := newFakeIdentity()
	n := &fakeNotifier{emailOK: true}
	svc := NewService(newFakeStudents(st), identity, n, nil, ResetAsPasswordChanged, nil)

	if _, err := svc.Provision(context.Background(), st.ID, false); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Provision(context.Background(), st.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeReset || res.IsNewAccount {
		t.Fatalf("expected reset, not new: %+v", res)
	}
	if n.last().Subject != templates.DefaultAccessResetSubject {
		t.Fatalf("expected reset subject, got %q", n.last().Subject)
	}
}

func TestProvision_ExistingUnlocated(t *testing.T) {
	st := newStudent()
	identity := newFakeIdentity()
	_, _ = identity.CreateAccount(context.Background(), "maria@example.com", "old", models.AccountMeta{})
	identity.hideFind = true
	n := &fakeNotifier{emailOK: false, waOK: false}
	svc := NewService(newFakeStudents(st), identity, n, nil, ResetAsNew, nil)

	res, err := svc.Provision(context.Background(), st.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeExisting || res.IsNewAccount {
		t.Fatalf("expected existing, got %+v", res)
	}
	if identity.credOf("maria@example.com") != "old" {
		t.Fatalf("credential must stay untouched")
	}
	if res.Credential != "" {
		t.Fatalf("no credential was issued, got %q", res.Credential)
	}
	if n.last().Subject != templates.DefaultAccessExistingSubject {
		t.Fatalf("expected existing-access subject, got %q", n.last().Subject)
	}
}

func TestProvision_NoChannelDelivered(t *testing.T) {
	st := newStudent()
	st.Phone = nil
	students := newFakeStudents(st)
	identity := newFakeIdentity()
	svc := NewService(students, identity, &fakeNotifier{}, nil, ResetAsNew, nil)

	res, err := svc.Provision(context.Background(), st.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.EmailSent || res.WhatsAppSent {
		t.Fatalf("nothing should be sent: %+v", res)
	}
	if res.Credential == "" || res.Credential != identity.credOf("maria@example.com") {
		t.Fatalf("credential must be returned for manual delivery")
	}
	got := students.get(st.ID)
	if got.Status != models.StatusActive {
		t.Fatalf("status must become active regardless of delivery")
	}
	if got.CredentialsSentAt != nil {
		t.Fatalf("credentials_sent_at must stay empty")
	}
}

func TestProvision_Errors(t *testing.T) {
	noEmail := newStudent()
	noEmail.Email = strPtr("  ")

	tests := []struct {
		name string
		id   uuid.UUID
		kind apperr.Kind
	}{
		{"unknown student", uuid.New(), apperr.NotFound},
		{"no email", noEmail.ID, apperr.InvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := newFakeIdentity()
			n := &fakeNotifier{emailOK: true}
			svc := NewService(newFakeStudents(noEmail), identity, n, nil, ResetAsNew, nil)
			_, err := svc.Provision(context.Background(), tt.id, false)
			if !apperr.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
			if identity.creates != 0 || len(n.payloads) != 0 {
				t.Fatalf("no side effects expected")
			}
		})
	}
}

func TestProvision_AccountDeletedMidResetIsPersistenceFailure(t *testing.T) {
	st := newStudent()
	identity := newFakeIdentity()
	if _, err := identity.CreateAccount(context.Background(), *st.Email, "old", models.AccountMeta{}); err != nil {
		t.Fatal(err)
	}
	identity.vanish = true
	n := &fakeNotifier{emailOK: true}
	svc := NewService(newFakeStudents(st), identity, n, nil, ResetAsNew, nil)

	_, err := svc.Provision(context.Background(), st.ID, false)
	if !apperr.IsKind(err, apperr.PersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if apperr.Status(err) == http.StatusNotFound {
		t.Fatal("deleted account must not look like an unknown student")
	}
	if len(n.payloads) != 0 {
		t.Fatal("nothing must be sent")
	}
}

func TestProvision_PersistenceFailurePropagates(t *testing.T) {
	st := newStudent()
	students := newFakeStudents(st)
	students.markErr = apperr.Newf(apperr.PersistenceFailure, "mark provisioned", "db down")
	svc := NewService(students, newFakeIdentity(), &fakeNotifier{emailOK: true}, nil, ResetAsNew, nil)

	_, err := svc.Provision(context.Background(), st.ID, false)
	if !apperr.IsKind(err, apperr.PersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
}

func TestProvision_ConcurrentSameStudent(t *testing.T) {
	st := newStudent()
	identity := newFakeIdentity()
	svc := NewService(newFakeStudents(st), identity, &fakeNotifier{emailOK: true}, nil, ResetAsNew, nil)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Provision(context.Background(), st.ID, false)
			if err != nil {
				t.Errorf("provision: %v", err)
				return
			}
			outcomes[i] = res.Outcome
		}(i)
	}
	wg.Wait()

	created := 0
	for _, o := range outcomes {
		if o == OutcomeCreated {
			created++
		}
	}
	if created != 1 || identity.creates != 1 {
		t.Fatalf("expected one created account, got outcomes=%v creates=%d", outcomes, identity.creates)
	}
}

func TestGenerateCredential(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		c, err := GenerateCredential()
		if err != nil {
			t.Fatal(err)
		}
		if len(c) != CredentialLength {
			t.Fatalf("bad length %d", len(c))
		}
		if strings.ContainsAny(c, "0O1lI") {
			t.Fatalf("ambiguous characters in %q", c)
		}
		seen[c] = true
	}
	if len(seen) < 50 {
		t.Fatalf("credentials repeat")
	}
}

func TestParseResetPolicy(t *testing.T) {
	for in, want := range map[string]ResetPolicy{"": ResetAsNew, "new": ResetAsNew, "reset": ResetAsPasswordChanged} {
		got, err := ParseResetPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseResetPolicy("other"); err == nil {
		t.Fatal("expected error")
	}
}

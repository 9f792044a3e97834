// Package provision issues or rotates portal credentials for a student and
// delivers them over e-mail and WhatsApp.
package provision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/lock"
	"github.com/Spok95/school-notifier/internal/logging"
	"github.com/Spok95/school-notifier/internal/metrics"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/notify"
	"github.com/Spok95/school-notifier/internal/templates"
)

// Outcome says what happened to the identity-store account.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"  // новый аккаунт
	OutcomeReset    Outcome = "reset"    // аккаунт был, пароль перезаписан
	OutcomeExisting Outcome = "existing" // аккаунт "есть", но найти не удалось; пароль не менялся
)

// ResetPolicy chooses which texts a reset account receives.
type ResetPolicy string

const (
	ResetAsNew             ResetPolicy = "new"
	ResetAsPasswordChanged ResetPolicy = "reset"
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch ResetPolicy(s) {
	case "", ResetAsNew:
		return ResetAsNew, nil
	case ResetAsPasswordChanged:
		return ResetAsPasswordChanged, nil
	}
	return "", errors.New("unknown reset messaging policy: " + s)
}

type Result struct {
	EmailSent    bool    `json:"email_sent"`
	WhatsAppSent bool    `json:"whatsapp_sent"`
	IsNewAccount bool    `json:"is_new_account"`
	Outcome      Outcome `json:"outcome"`
	// Credential is set only when a credential was issued and no channel delivered it.
	Credential string `json:"credential,omitempty"`
}

type StudentStore interface {
	GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error)
	MarkProvisioned(ctx context.Context, id uuid.UUID, sentAt *time.Time) error
	LoadSettings(ctx context.Context) (models.Settings, error)
}

type IdentityStore interface {
	CreateAccount(ctx context.Context, email, credential string, meta models.AccountMeta) (uuid.UUID, error)
	FindAccountIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error)
	SetCredential(ctx context.Context, id uuid.UUID, credential string) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, meta models.AccountMeta) error
}

type Notifier interface {
	NotifyBoth(ctx context.Context, email, phone string, p notify.Payload) (emailRes, waRes notify.Result)
}

type Service struct {
	students StudentStore
	identity IdentityStore
	notifier Notifier
	locks    *lock.Limiter
	log      *zap.Logger
	policy   ResetPolicy

	now     func() time.Time
	genCred func() (string, error)
}

func NewService(students StudentStore, identity IdentityStore, notifier Notifier, locks *lock.Limiter, policy ResetPolicy, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if locks == nil {
		locks = lock.New()
	}
	if policy == "" {
		policy = ResetAsNew
	}
	return &Service{
		students: students,
		identity: identity,
		notifier: notifier,
		locks:    locks,
		log:      log.Named("provision"),
		policy:   policy,
		now:      time.Now,
		genCred:  GenerateCredential,
	}
}

// Provision creates or rotates the student's portal account and sends the
// access message. forceResend only marks the call in logs; every call issues
// a fresh credential.
func (s *Service) Provision(ctx context.Context, studentID uuid.UUID, forceResend bool) (Result, error) {
	ctx = ctxutil.WithOp(ctx, "provision")

	unlock, err := s.locks.Lock(ctx, "provision:"+studentID.String())
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	st, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return Result{}, err
	}
	email := st.EmailAddr()
	if email == "" {
		return Result{}, apperr.Newf(apperr.InvalidState, "provision", "student %s has no e-mail", studentID)
	}

	settings, err := s.students.LoadSettings(ctx)
	if err != nil {
		return Result{}, err
	}

	cred, err := s.genCred()
	if err != nil {
		return Result{}, apperr.New(apperr.PersistenceFailure, "generate credential", err)
	}

	outcome, err := s.upsertAccount(ctx, st, email, cred)
	if err != nil {
		return Result{}, err
	}
	if outcome == OutcomeExisting {
		cred = ""
	}

	res := Result{Outcome: outcome, IsNewAccount: s.isNew(outcome)}

	tpl := s.texts(outcome, settings.Templates)
	vars := map[string]string{
		templates.KeyName:     st.FirstName(),
		templates.KeyEmail:    email,
		templates.KeyPassword: cred,
	}
	payload := notify.Payload{
		Subject: templates.Render(tpl.Subject, vars),
		HTML:    templates.Render(tpl.Email, vars),
		Text:    templates.Render(tpl.WhatsApp, vars),
	}

	emailRes, waRes := s.notifier.NotifyBoth(ctx, email, st.PhoneNumber(), payload)
	res.EmailSent, res.WhatsAppSent = emailRes.Sent, waRes.Sent

	var sentAt *time.Time
	if res.EmailSent || res.WhatsAppSent {
		t := s.now()
		sentAt = &t
	} else if cred != "" {
		res.Credential = cred
	}

	if err := s.students.MarkProvisioned(ctx, studentID, sentAt); err != nil {
		s.log.Error("mark provisioned failed", zap.String("student_id", studentID.String()), zap.Error(err))
		return Result{}, err
	}

	metrics.Provisions.WithLabelValues(string(outcome)).Inc()
	s.log.Info("access provisioned",
		zap.String("student_id", studentID.String()),
		zap.String("email", logging.Masked(email)),
		zap.String("outcome", string(outcome)),
		zap.Bool("resend", forceResend),
		zap.Any("ctx", ctxutil.Tags(ctx, nil)),
		zap.Bool("email_sent", res.EmailSent),
		zap.Bool("whatsapp_sent", res.WhatsAppSent),
	)
	return res, nil
}

func (s *Service) upsertAccount(ctx context.Context, st models.Student, email, cred string) (Outcome, error) {
	meta := models.AccountMeta{FullName: st.FullName, Role: models.RoleStudent, StudentID: st.ID}

	_, err := s.identity.CreateAccount(ctx, email, cred, meta)
	if err == nil {
		return OutcomeCreated, nil
	}
	if !errors.Is(err, models.ErrAccountExists) {
		return "", persistence("create account", err)
	}

	id, found, err := s.identity.FindAccountIDByEmail(ctx, email)
	if err != nil {
		return "", persistence("find account", err)
	}
	if !found {
		s.log.Warn("account exists but cannot be located", zap.String("email", logging.Masked(email)))
		return OutcomeExisting, nil
	}
	if err := s.identity.SetCredential(ctx, id, cred); err != nil {
		return "", persistence("set credential", err)
	}
	if err := s.identity.UpdateMetadata(ctx, id, meta); err != nil {
		return "", persistence("update account metadata", err)
	}
	return OutcomeReset, nil
}

func (s *Service) isNew(o Outcome) bool {
	switch o {
	case OutcomeCreated:
		return true
	case OutcomeReset:
		return s.policy == ResetAsNew
	}
	return false
}

func (s *Service) texts(o Outcome, t models.Templates) templates.Access {
	switch {
	case o == OutcomeExisting:
		return templates.AccessExisting(t)
	case o == OutcomeReset && s.policy == ResetAsPasswordChanged:
		return templates.AccessReset(t)
	}
	return templates.AccessNew(t)
}

// persistence: NotFound из identity store здесь значит, что учётку удалили между
// поиском и обновлением; для вызывающего это сбой записи, а не неизвестный студент.
func persistence(op string, err error) error {
	if k, ok := apperr.KindOf(err); ok && k != apperr.NotFound {
		return err
	}
	return apperr.New(apperr.PersistenceFailure, op, err)
}

package provision

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/models"
)

type fakeRoles map[uuid.UUID]models.Role

func (f fakeRoles) RoleOf(_ context.Context, id uuid.UUID) (models.Role, error) {
	r, ok := f[id]
	if !ok {
		return "", apperr.Newf(apperr.NotFound, "role lookup", "account %s not found", id)
	}
	return r, nil
}

func TestAuthorizer(t *testing.T) {
	admin, student := uuid.New(), uuid.New()
	a := NewAuthorizer(fakeRoles{admin: models.RoleAdmin, student: models.RoleStudent}, "s3cret")

	tests := []struct {
		name   string
		caller Caller
		kind   apperr.Kind // пусто — доступ разрешён
	}{
		{"admin", Caller{AccountID: admin}, ""},
		{"service secret", Caller{ServiceSecret: "s3cret"}, ""},
		{"wrong secret", Caller{ServiceSecret: "nope", AccountID: admin}, apperr.Unauthorized},
		{"anonymous", Caller{}, apperr.Unauthorized},
		{"student", Caller{AccountID: student}, apperr.Forbidden},
		{"unknown account", Caller{AccountID: uuid.New()}, apperr.Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(context.Background(), tt.caller)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("expected access, got %v", err)
				}
				return
			}
			if !apperr.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestAuthorizer_EmptySecretNeverMatches(t *testing.T) {
	a := NewAuthorizer(fakeRoles{}, "")
	if err := a.Authorize(context.Background(), Caller{ServiceSecret: "x"}); !apperr.IsKind(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

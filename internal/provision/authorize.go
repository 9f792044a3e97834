package provision

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/models"
)

type RoleLookup interface {
	RoleOf(ctx context.Context, accountID uuid.UUID) (models.Role, error)
}

// Caller is an already authenticated identity: either a verified account id or
// the presented service secret.
type Caller struct {
	AccountID     uuid.UUID
	ServiceSecret string
}

// Authorizer admits administrators and trusted internal callers.
type Authorizer struct {
	roles  RoleLookup
	secret string
}

func NewAuthorizer(roles RoleLookup, serviceSecret string) *Authorizer {
	return &Authorizer{roles: roles, secret: serviceSecret}
}

func (a *Authorizer) Authorize(ctx context.Context, c Caller) error {
	if c.ServiceSecret != "" {
		if a.secret != "" && subtle.ConstantTimeCompare([]byte(c.ServiceSecret), []byte(a.secret)) == 1 {
			return nil
		}
		return apperr.Newf(apperr.Unauthorized, "authorize", "invalid service secret")
	}
	if c.AccountID == uuid.Nil {
		return apperr.Newf(apperr.Unauthorized, "authorize", "no caller identity")
	}
	role, err := a.roles.RoleOf(ctx, c.AccountID)
	if apperr.IsKind(err, apperr.NotFound) {
		return apperr.Newf(apperr.Forbidden, "authorize", "unknown account %s", c.AccountID)
	}
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return apperr.Newf(apperr.Forbidden, "authorize", "role %q is not allowed", role)
	}
	return nil
}

package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/auth"
	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/observability"
	"github.com/Spok95/school-notifier/internal/provision"
)

const HeaderServiceSecret = "X-Service-Secret"

// requireAdmin пропускает администратора (Bearer JWT + роль) или доверенный сервис (общий секрет).
// Отказ — до любых побочных эффектов.
func (a *api) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c provision.Caller
		who := "service"
		if secret := r.Header.Get(HeaderServiceSecret); secret != "" {
			c.ServiceSecret = secret
		} else if raw, ok := auth.BearerToken(r.Header.Get("Authorization")); ok && a.Tokens != nil {
			id, err := a.Tokens.Verify(raw)
			if err != nil {
				a.writeError(w, err)
				return
			}
			c.AccountID = id
			who = id.String()
		}

		if err := a.Auth.Authorize(r.Context(), c); err != nil {
			a.Log.Info("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
			a.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithCaller(r.Context(), who)))
	})
}

func (a *api) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
				observability.CaptureErr(err)
				a.Log.Error("handler panic", zap.Error(err), zap.Stack("stack"))
				a.writeError(w, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	kind, ok := apperr.KindOf(err)
	if !ok {
		kind = "internal"
	}
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		// детали внутренних ошибок наружу не отдаём
		msg = http.StatusText(status)
		observability.CaptureErr(err)
	}
	writeJSON(w, status, errorResponse{Error: string(kind), Message: msg})
}

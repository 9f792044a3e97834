package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/attendance"
	"github.com/Spok95/school-notifier/internal/metrics"
	"github.com/Spok95/school-notifier/internal/models"
	"github.com/Spok95/school-notifier/internal/provision"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Provisioner interface {
	Provision(ctx context.Context, studentID uuid.UUID, forceResend bool) (provision.Result, error)
}

type Sweeper interface {
	Run(ctx context.Context, kind attendance.Kind) attendance.SweepResult
}

type AlertLister interface {
	ListAlerts(ctx context.Context, since time.Time, severities []string) ([]models.AlertRow, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, c provision.Caller) error
}

type TokenVerifier interface {
	Verify(raw string) (uuid.UUID, error)
}

type Deps struct {
	DB          Pinger
	Provisioner Provisioner
	Sweeper     Sweeper
	Alerts      AlertLister
	Auth        Authorizer
	Tokens      TokenVerifier
	Location    *time.Location
	SchoolName  string
	Log         *zap.Logger
}

type api struct {
	Deps
	validate *validator.Validate
}

// NewRouter собирает все HTTP-маршруты сервиса.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	a := &api{Deps: d, validate: validator.New(validator.WithRequiredStructEnabled())}
	a.Log = d.Log.Named("http")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.healthz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/provision-access", a.requireAdmin(http.HandlerFunc(a.provisionAccess)))
	mux.Handle("POST /api/attendance-sweep/{kind}", a.requireAdmin(http.HandlerFunc(a.attendanceSweep)))
	mux.Handle("GET /api/reports/alerts.xlsx", a.requireAdmin(http.HandlerFunc(a.alertsReport)))

	return a.recoverer(mux)
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := a.DB.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

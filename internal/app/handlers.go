package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/school-notifier/internal/apperr"
	"github.com/Spok95/school-notifier/internal/attendance"
	"github.com/Spok95/school-notifier/internal/export"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type provisionRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Resend    bool   `json:"resend"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *api) badRequest(w http.ResponseWriter, err error) {
	msg := err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = verrs[0].Field() + ": failed " + verrs[0].Tag()
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: msg})
}

func (a *api) provisionAccess(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		a.badRequest(w, err)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.badRequest(w, err)
		return
	}
	id := uuid.MustParse(req.StudentID)

	res, err := a.Provisioner.Provision(r.Context(), id, req.Resend)
	if err != nil {
		if !apperr.IsKind(err, apperr.NotFound) && !apperr.IsKind(err, apperr.InvalidState) {
			a.Log.Error("provision failed", zap.String("student_id", id.String()), zap.Error(err))
		}
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// attendanceSweep: бизнес-ошибка прогона — 200 с ok=false; неизвестный вид — 400.
func (a *api) attendanceSweep(w http.ResponseWriter, r *http.Request) {
	kind, ok := attendance.ParseKind(r.PathValue("kind"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, attendance.SweepResult{
			Kind:  attendance.Kind(r.PathValue("kind")),
			Error: "unknown sweep kind",
		})
		return
	}
	res := a.Sweeper.Run(r.Context(), kind)
	if !res.OK {
		a.Log.Warn("sweep failed", zap.String("kind", string(kind)), zap.String("error", res.Error))
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) alertsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now().In(a.Location)
	since := now.AddDate(0, 0, -30)
	if s := q.Get("since"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, a.Location)
		if err != nil {
			a.badRequest(w, errors.New("since: expected YYYY-MM-DD"))
			return
		}
		since = t
	}

	rows, err := a.Alerts.ListAlerts(r.Context(), since, q["severity"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	wb, err := export.AlertsWorkbook(rows, a.Location)
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer func() { _ = wb.File.Close() }()

	name := export.BuildAlertsReportFilename(a.SchoolName, since.Format("02-01-2006"), now.Format("02-01-2006"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape(name))
	if _, err := wb.WriteTo(w); err != nil {
		a.Log.Warn("write report failed", zap.Error(err))
	}
}

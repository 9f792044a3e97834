package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/school-notifier/internal/ctxutil"
	"github.com/Spok95/school-notifier/internal/models"
)

// LoadSettings читает singleton system_settings; если строки нет — дефолты.
func (s *Store) LoadSettings(ctx context.Context) (models.Settings, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	st := models.DefaultSettings()
	t := &st.Templates
	err := s.db.QueryRowContext(ctx, `
		SELECT alert_threshold, fail_threshold, class_start_time, checkin_deadline, secretary_phone,
		       tpl_access_new_subject, tpl_access_new_email, tpl_access_new_whatsapp,
		       tpl_access_existing_subject, tpl_access_existing_email, tpl_access_existing_whatsapp,
		       tpl_access_reset_subject, tpl_access_reset_email, tpl_access_reset_whatsapp,
		       tpl_daily_late, tpl_alert_high, tpl_alert_critical
		FROM system_settings WHERE id = 1
	`).Scan(&st.AlertThreshold, &st.FailThreshold, &st.ClassStartTime, &st.CheckinDeadline, &st.SecretaryPhone,
		&t.AccessNewSubject, &t.AccessNewEmail, &t.AccessNewWhatsApp,
		&t.AccessExistingSubject, &t.AccessExistingEmail, &t.AccessExistingWA,
		&t.AccessResetSubject, &t.AccessResetEmail, &t.AccessResetWhatsApp,
		&t.DailyLate, &t.AlertHigh, &t.AlertCritical)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, persistErr("load settings", err)
	}
	return st, nil
}

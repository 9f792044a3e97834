package models

// Settings mirrors the system_settings singleton. Read-only for this service.
type Settings struct {
	AlertThreshold  int    `db:"alert_threshold"`
	FailThreshold   int    `db:"fail_threshold"`
	ClassStartTime  string `db:"class_start_time"`
	CheckinDeadline string `db:"checkin_deadline"`
	SecretaryPhone  string `db:"secretary_phone"`

	Templates Templates
}

// Templates holds admin-editable message texts. Empty fields fall back to built-in defaults.
type Templates struct {
	AccessNewSubject      string `db:"tpl_access_new_subject"`
	AccessNewEmail        string `db:"tpl_access_new_email"`
	AccessNewWhatsApp     string `db:"tpl_access_new_whatsapp"`
	AccessExistingSubject string `db:"tpl_access_existing_subject"`
	AccessExistingEmail   string `db:"tpl_access_existing_email"`
	AccessExistingWA      string `db:"tpl_access_existing_whatsapp"`
	AccessResetSubject    string `db:"tpl_access_reset_subject"`
	AccessResetEmail      string `db:"tpl_access_reset_email"`
	AccessResetWhatsApp   string `db:"tpl_access_reset_whatsapp"`
	DailyLate             string `db:"tpl_daily_late"`
	AlertHigh             string `db:"tpl_alert_high"`
	AlertCritical         string `db:"tpl_alert_critical"`
}

func DefaultSettings() Settings {
	return Settings{
		AlertThreshold:  2,
		FailThreshold:   3,
		ClassStartTime:  "19:30",
		CheckinDeadline: "20:00",
	}
}

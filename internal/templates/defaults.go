package templates

import "github.com/Spok95/school-notifier/internal/models"

// Placeholder keys.
const (
	KeyName     = "nome"
	KeyEmail    = "email"
	KeyPassword = "senha"
	KeyTime     = "horario"
	KeyDeadline = "limite"
	KeyAbsences = "faltas"
	KeySubject  = "materia"
)

const (
	DefaultAccessNewSubject = "Seu acesso ao Portal do Aluno"
	DefaultAccessNewEmail   = `<p>Olá, {nome}!</p>
<p>Sua matrícula foi aprovada. Seguem seus dados de acesso ao portal:</p>
<p><b>E-mail:</b> {email}<br><b>Senha:</b> {senha}</p>
<p>Recomendamos trocar a senha no primeiro acesso.</p>`
	DefaultAccessNewWhatsApp = "Olá, {nome}! Sua matrícula foi aprovada.\nAcesso ao portal:\nE-mail: {email}\nSenha: {senha}"

	DefaultAccessExistingSubject = "Seu acesso ao Portal do Aluno"
	DefaultAccessExistingEmail   = `<p>Olá, {nome}!</p>
<p>Você já possui acesso ao portal com o e-mail <b>{email}</b>. Use sua senha atual para entrar.</p>`
	DefaultAccessExistingWhatsApp = "Olá, {nome}! Você já possui acesso ao portal com o e-mail {email}. Use sua senha atual."

	DefaultAccessResetSubject = "Sua senha do Portal do Aluno foi redefinida"
	DefaultAccessResetEmail   = `<p>Olá, {nome}!</p>
<p>Sua senha de acesso ao portal foi redefinida.</p>
<p><b>E-mail:</b> {email}<br><b>Nova senha:</b> {senha}</p>`
	DefaultAccessResetWhatsApp = "Olá, {nome}! Sua senha do portal foi redefinida.\nE-mail: {email}\nNova senha: {senha}"

	DefaultDailyLate     = "Olá, {nome}! A aula começou às {horario} e ainda não registramos sua presença hoje."
	DefaultAlertHigh     = "Olá, {nome}. Você já tem {faltas} faltas em {materia}. Fique atento à frequência."
	DefaultAlertCritical = "Atenção, {nome}: você atingiu {faltas} faltas em {materia} e está em risco de reprovação por frequência."

	ReportPrefix       = "[Relatório] "
	DailySummaryHeader = "Alunos sem check-in hoje"
)

// Access is the set of texts for one provisioning message variant.
type Access struct {
	Subject  string
	Email    string
	WhatsApp string
}

func AccessNew(t models.Templates) Access {
	return Access{
		Subject:  Or(t.AccessNewSubject, DefaultAccessNewSubject),
		Email:    Or(t.AccessNewEmail, DefaultAccessNewEmail),
		WhatsApp: Or(t.AccessNewWhatsApp, DefaultAccessNewWhatsApp),
	}
}

func AccessExisting(t models.Templates) Access {
	return Access{
		Subject:  Or(t.AccessExistingSubject, DefaultAccessExistingSubject),
		Email:    Or(t.AccessExistingEmail, DefaultAccessExistingEmail),
		WhatsApp: Or(t.AccessExistingWA, DefaultAccessExistingWhatsApp),
	}
}

func AccessReset(t models.Templates) Access {
	return Access{
		Subject:  Or(t.AccessResetSubject, DefaultAccessResetSubject),
		Email:    Or(t.AccessResetEmail, DefaultAccessResetEmail),
		WhatsApp: Or(t.AccessResetWhatsApp, DefaultAccessResetWhatsApp),
	}
}

func DailyLate(t models.Templates) string { return Or(t.DailyLate, DefaultDailyLate) }

// Alert picks the critical or high text.
func Alert(t models.Templates, sev models.Severity) string {
	if sev == models.SeverityCritical {
		return Or(t.AlertCritical, DefaultAlertCritical)
	}
	return Or(t.AlertHigh, DefaultAlertHigh)
}

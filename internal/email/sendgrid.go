package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGrid struct {
	key  string
	host string
	from *sgmail.Email
}

func NewSendGrid(apiKey, fromAddr, fromName string) *SendGrid {
	return &SendGrid{
		key:  apiKey,
		host: sendgridHost,
		from: sgmail.NewEmail(fromName, fromAddr),
	}
}

func (s *SendGrid) prepare(to, subject, htmlBody string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", to))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", plainText(htmlBody)),
		sgmail.NewContent("text/html", htmlBody),
	)
	return m
}

func (s *SendGrid) Send(ctx context.Context, to, subject, htmlBody string) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(to, subject, htmlBody))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: http %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

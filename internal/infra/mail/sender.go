package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/rwa-leads/internal/infra/queue"
)

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>New RWA lead #{{.LeadID}}</h2>
<table>
<tr><td>Name</td><td>{{.Name}}</td></tr>
<tr><td>Gender</td><td>{{.Gender}}</td></tr>
<tr><td>Contact</td><td>{{.Contact}}</td></tr>
<tr><td>Industry</td><td>{{.Industry}}</td></tr>
<tr><td>Job role</td><td>{{.JobRole}}</td></tr>
<tr><td>Preference</td><td>{{.PreferenceType}}</td></tr>
{{if .ExpectedInvestment}}<tr><td>Expected investment</td><td>{{.ExpectedInvestment}}</td></tr>{{end}}
{{if .HighNetWorth}}<tr><td>High net worth</td><td>{{.HighNetWorth}}</td></tr>{{end}}
<tr><td>Submitted</td><td>{{.Submitted}}</td></tr>
<tr><td>Source</td><td>{{.Origin}}</td></tr>
</table>`))

type leadEmailData struct {
	queue.LeadFinalizedPayload
	Submitted string
}

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From   string
	To     string
	Dialer Dialer
}

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		From:   from,
		To:     to,
		Dialer: gomail.NewDialer(host, port, user, password),
	}
}

// BuildLeadMessage renders the notification for one lead.
func (s *EmailSender) BuildLeadMessage(payload queue.LeadFinalizedPayload) (*gomail.Message, error) {
	var body bytes.Buffer
	data := leadEmailData{
		LeadFinalizedPayload: payload,
		Submitted:            payload.CreatedAt.UTC().Format(time.DateTime),
	}
	if err := leadTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render lead email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("New RWA lead: %s (%s)", payload.Name, payload.PreferenceType))
	m.SetBody("text/html", body.String())
	return m, nil
}

func (s *EmailSender) SendLeadNotification(ctx context.Context, payload queue.LeadFinalizedPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.BuildLeadMessage(payload)
	if err != nil {
		return err
	}
	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send lead email: %w", err)
	}
	return nil
}

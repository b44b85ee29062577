package sequences

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"gopkg.in/yaml.v3"

	"prospect-composer/internal/assessment"
	"prospect-composer/internal/models"
)

//go:embed emails.yaml
var emailsYAML []byte

// ErrEmailDisabled is returned by Send when no email sender is configured.
var ErrEmailDisabled = errors.New("sequence email sending is disabled")

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html, text string) (string, error)
}

type emailCopy struct {
	Subject    string   `yaml:"subject"`
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
	CTA        string   `yaml:"cta"`
}

// Email is a rendered sequence email.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// emailData is what the copy templates can reference.
type emailData struct {
	FirstName      string
	Company        string
	Industry       string
	AssessmentName string
	Score          string
	ResultTitle    string
	ResultSummary  string
	NextStep       string
	GuideTitle     string
	DownloadURL    string
	ContentURL     string
	CalendarURL    string
	UnsubscribeURL string
}

type MailerConfig struct {
	SiteURL     string
	CalendarURL string
}

// Mailer renders and sends sequence emails.
type Mailer struct {
	cfg     MailerConfig
	email   EmailSender
	tracker *Tracker
	emails  map[Type]map[int]emailCopy
	now     func() time.Time
}

// NewMailer loads the embedded copy. A nil sender makes Send return
// ErrEmailDisabled. The calendar link defaults to the site's contact page.
func NewMailer(cfg MailerConfig, email EmailSender) (*Mailer, error) {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.CalendarURL == "" {
		cfg.CalendarURL = cfg.SiteURL + "/contact"
	}
	emails, err := parseCopy(emailsYAML)
	if err != nil {
		return nil, err
	}
	return &Mailer{
		cfg:     cfg,
		email:   email,
		tracker: NewTracker(cfg.SiteURL),
		emails:  emails,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func parseCopy(data []byte) (map[Type]map[int]emailCopy, error) {
	var emails map[Type]map[int]emailCopy
	if err := yaml.Unmarshal(data, &emails); err != nil {
		return nil, fmt.Errorf("parse sequence emails: %w", err)
	}
	for _, t := range Types {
		for _, day := range Schedule {
			if c, ok := emails[t][day]; !ok || c.Subject == "" {
				return nil, fmt.Errorf("sequence emails: %s has no day %d email", t, day)
			}
		}
	}
	return emails, nil
}

func (m *Mailer) UnsubscribeURL(email string) string {
	return fmt.Sprintf("%s/api/unsubscribe?token=%s", m.cfg.SiteURL, UnsubscribeToken(email, m.now()))
}

// Render builds the day's email for the lead, with tracking applied.
func (m *Mailer) Render(lead *models.Lead, seqType Type, day int) (*Email, error) {
	c, ok := m.emails[seqType][day]
	if !ok {
		return nil, fmt.Errorf("no %s email for day %d", seqType, day)
	}
	data := m.data(lead)

	subject, err := execText(c.Subject, data)
	if err != nil {
		return nil, err
	}
	heading, err := execText(c.Heading, data)
	if err != nil {
		return nil, err
	}
	cta, err := execText(c.CTA, data)
	if err != nil {
		return nil, err
	}
	var paragraphs []string
	for _, p := range c.Paragraphs {
		text, err := execText(p, data)
		if err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	view := emailView{
		Heading:        heading,
		Paragraphs:     paragraphs,
		CTA:            cta,
		CalendarURL:    data.CalendarURL,
		UnsubscribeURL: data.UnsubscribeURL,
		SiteURL:        m.cfg.SiteURL,
	}
	var h, t bytes.Buffer
	if err := layoutHTML.Execute(&h, view); err != nil {
		return nil, err
	}
	if err := layoutText.Execute(&t, view); err != nil {
		return nil, err
	}

	html := m.tracker.Apply(h.String(), TrackingData{LeadID: lead.LeadID, EmailDay: day, SequenceType: seqType})
	return &Email{Subject: subject, HTML: html, Text: t.String()}, nil
}

// Send renders and delivers the day's email, returning the SES message id.
func (m *Mailer) Send(ctx context.Context, lead *models.Lead, seqType Type, day int) (string, error) {
	if m.email == nil {
		return "", ErrEmailDisabled
	}
	e, err := m.Render(lead, seqType, day)
	if err != nil {
		return "", err
	}
	return m.email.SendEmail(ctx, lead.Email, e.Subject, e.HTML, e.Text)
}

func (m *Mailer) data(lead *models.Lead) emailData {
	d := emailData{
		FirstName:      lead.FirstName,
		Company:        lead.Company,
		Industry:       lead.Industry,
		AssessmentName: AssessmentName(lead.ResourceSlug),
		GuideTitle:     lead.ResourceTitle,
		CalendarURL:    m.cfg.CalendarURL,
		UnsubscribeURL: m.UnsubscribeURL(lead.Email),
	}
	if d.GuideTitle == "" {
		d.GuideTitle = "Your Guide"
	}
	if lead.ResourceSlug != "" {
		d.DownloadURL = fmt.Sprintf("%s/downloads/%s.pdf", m.cfg.SiteURL, lead.ResourceSlug)
		d.ContentURL = fmt.Sprintf("%s/resources/guides/%s/content", m.cfg.SiteURL, lead.ResourceSlug)
	}
	if lead.AssessmentScore != nil {
		d.Score = strconv.Itoa(*lead.AssessmentScore)
	}
	if desc, ok := assessment.Describe(assessment.Tier(lead.AssessmentTier)); ok {
		d.ResultTitle = desc.Title
		d.ResultSummary = desc.Description
		if len(desc.NextSteps) > 0 {
			d.NextStep = strings.ToLower(desc.NextSteps[0][:1]) + desc.NextSteps[0][1:]
		}
	}
	return d
}

func execText(src string, data emailData) (string, error) {
	tmpl, err := texttemplate.New("copy").Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("sequence email copy: %w", err)
	}
	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("sequence email copy: %w", err)
	}
	return b.String(), nil
}

type emailView struct {
	Heading        string
	Paragraphs     []string
	CTA            string
	CalendarURL    string
	UnsubscribeURL string
	SiteURL        string
}

var layoutHTML = template.Must(template.New("sequence").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f8f9fa;">
<table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 20px;"><tr><td align="center">
<table width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;background-color:#ffffff;border-radius:12px;">
<tr><td style="padding:32px 40px;background-color:#1A9988;"><h1 style="margin:0;color:#ffffff;font-size:24px;">{{.Heading}}</h1></td></tr>
<tr><td style="padding:40px;">
{{range .Paragraphs}}<p style="margin:0 0 20px;color:#4a4a4a;font-size:16px;line-height:1.6;">{{.}}</p>
{{end}}<p style="text-align:center;margin:32px 0;"><a href="{{.CalendarURL}}" style="display:inline-block;padding:14px 32px;background-color:#1A9988;color:#ffffff;text-decoration:none;font-weight:600;border-radius:8px;">{{.CTA}}</a></p>
<p style="margin:0;color:#6b7280;font-size:14px;font-style:italic;">Questions? Just reply to this email.</p>
</td></tr>
<tr><td style="padding:24px 40px;border-top:1px solid #e5e7eb;text-align:center;color:#9ca3af;font-size:12px;">
<a href="{{.SiteURL}}" style="color:#9ca3af;">databender.co</a><br>
<a href="{{.UnsubscribeURL}}" style="color:#9ca3af;">Unsubscribe</a> from these emails
</td></tr>
</table>
</td></tr></table>
</body>
</html>`))

var layoutText = texttemplate.Must(texttemplate.New("sequence").Parse(`{{range .Paragraphs}}{{.}}

{{end}}{{.CTA}}: {{.CalendarURL}}

Unsubscribe: {{.UnsubscribeURL}}
`))

package notify

import (
	"bytes"
	"html/template"
	texttemplate "text/template"
)

type guideEmail struct {
	FirstName   string
	Title       string
	DownloadURL string
	SiteURL     string
}

type salesEmail struct {
	Name       string
	Email      string
	Company    string
	Phone      string
	FormType   string
	Tier       string
	Industry   string
	Score      string
	ScoreTier  string
	Message    string
	SourcePage string
	Campaign   string
	LeadID     string
}

var guideHTML = template.Must(template.New("guide").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<p>Hi {{.FirstName}},</p>
<p>Thanks for requesting <strong>{{.Title}}</strong>. Your copy is ready:</p>
<p><a href="{{.DownloadURL}}" style="background:#1E3A5F;color:#ffffff;padding:10px 18px;text-decoration:none;border-radius:4px;">Download the guide</a></p>
<p>If the button does not work, paste this link into your browser:<br>{{.DownloadURL}}</p>
<p>More guides are at <a href="{{.SiteURL}}">{{.SiteURL}}</a>.</p>
</body></html>`))

var guideText = texttemplate.Must(texttemplate.New("guide").Parse(`Hi {{.FirstName}},

Thanks for requesting {{.Title}}. Download it here:
{{.DownloadURL}}

More guides: {{.SiteURL}}
`))

var salesHTML = template.Must(template.New("sales").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>New {{.FormType}} lead: {{.Name}} (tier {{.Tier}})</h2>
<table cellpadding="4">
<tr><td>Email</td><td>{{.Email}}</td></tr>
{{if .Company}}<tr><td>Company</td><td>{{.Company}}</td></tr>{{end}}
{{if .Phone}}<tr><td>Phone</td><td>{{.Phone}}</td></tr>{{end}}
{{if .Industry}}<tr><td>Industry</td><td>{{.Industry}}</td></tr>{{end}}
{{if .Score}}<tr><td>Assessment</td><td>{{.Score}} ({{.ScoreTier}})</td></tr>{{end}}
{{if .SourcePage}}<tr><td>Source</td><td>{{.SourcePage}}</td></tr>{{end}}
{{if .Campaign}}<tr><td>Campaign</td><td>{{.Campaign}}</td></tr>{{end}}
</table>
{{if .Message}}<p>{{.Message}}</p>{{end}}
<p style="color:#6b7280;">Lead {{.LeadID}}</p>
</body></html>`))

var salesText = texttemplate.Must(texttemplate.New("sales").Parse(`New {{.FormType}} lead: {{.Name}} (tier {{.Tier}})
Email: {{.Email}}
{{- if .Company}}
Company: {{.Company}}{{end}}
{{- if .Phone}}
Phone: {{.Phone}}{{end}}
{{- if .Industry}}
Industry: {{.Industry}}{{end}}
{{- if .Score}}
Assessment: {{.Score}} ({{.ScoreTier}}){{end}}
{{- if .Message}}

{{.Message}}{{end}}

Lead {{.LeadID}}
`))

func render(html *template.Template, text *texttemplate.Template, data any) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", err
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", err
	}
	return h.String(), t.String(), nil
}

package sequences

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/models"
)

type recordingSender struct {
	to, subject, html, text string
	err                     error
}

func (r *recordingSender) SendEmail(_ context.Context, to, subject, html, text string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.to, r.subject, r.html, r.text = to, subject, html, text
	return "ses-msg-1", nil
}

func createTestMailer(t *testing.T, email EmailSender) *Mailer {
	t.Helper()
	m, err := NewMailer(MailerConfig{SiteURL: "https://databender.co/"}, email)
	require.NoError(t, err)
	m.now = func() time.Time { return enrolledAt }
	return m
}

func scoredLead() *models.Lead {
	score := 34
	return &models.Lead{
		LeadID: "audit-lead", Email: "dana@harborpoint.com", FirstName: "Dana", Company: "Harbor Point",
		FormType: models.FormTypeAssessment, ResourceSlug: "commercial-real-estate",
		AssessmentScore: &score, AssessmentTier: "significantGaps",
	}
}

func TestNewMailer(t *testing.T) {
	m := createTestMailer(t, nil)
	assert.Equal(t, "https://databender.co/contact", m.cfg.CalendarURL)
	for _, typ := range Types {
		assert.Len(t, m.emails[typ], len(Schedule), typ)
	}

	custom, err := NewMailer(MailerConfig{SiteURL: "https://databender.co", CalendarURL: "https://cal.com/databender"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cal.com/databender", custom.cfg.CalendarURL)
}

func TestParseCopy_MissingDay(t *testing.T) {
	_, err := parseCopy([]byte("assessment:\n  0:\n    subject: Hi\n"))
	assert.ErrorContains(t, err, "has no day")

	_, err = parseCopy([]byte("assessment: [1"))
	assert.ErrorContains(t, err, "parse sequence emails")
}

func TestMailer_Render_AssessmentResults(t *testing.T) {
	m := createTestMailer(t, nil)

	e, err := m.Render(scoredLead(), TypeAssessment, 0)
	require.NoError(t, err)
	assert.Equal(t, "Your CRE Data & AI Assessment Results", e.Subject)
	assert.Contains(t, e.Text, "You scored 34, which puts you in the Significant Gaps group.")
	assert.Contains(t, e.Text, "for Harbor Point.")
	assert.Contains(t, e.HTML, "Significant Gaps")

	token := UnsubscribeToken("dana@harborpoint.com", enrolledAt)
	assert.Contains(t, e.HTML, `href="https://databender.co/api/unsubscribe?token=`+token+`"`)
	assert.Contains(t, e.Text, "Unsubscribe: https://databender.co/api/unsubscribe?token="+token)
	assert.NotContains(t, e.HTML, `href="https://databender.co/contact"`, "the call to action is tracked")
	assert.Contains(t, e.HTML, "/api/track/click/")
	assert.Contains(t, e.HTML, "/api/track/open/")
}

func TestMailer_Render_Guide(t *testing.T) {
	m := createTestMailer(t, nil)
	lead := &models.Lead{LeadID: "guide-lead", Email: "sam@example.com", FirstName: "Sam",
		FormType: models.FormTypeGuide, ResourceSlug: "ai-in-legal", ResourceTitle: "AI in Legal"}

	e, err := m.Render(lead, TypeGuideLegal, 0)
	require.NoError(t, err)
	assert.Equal(t, "Your Guide: AI in Legal", e.Subject)

	final, err := m.Render(lead, TypeGuideLegal, 21)
	require.NoError(t, err)
	assert.Equal(t, "A final thought, Sam", final.Subject)

	_, err = m.Render(lead, TypeGuideGeneral, 3)
	assert.ErrorContains(t, err, "no guide-general email for day 3")
}

func TestMailer_Render_UnscoredAssessment(t *testing.T) {
	m := createTestMailer(t, nil)
	lead := scoredLead()
	lead.AssessmentScore = nil
	lead.AssessmentTier = ""
	lead.ResourceSlug = "unknown-assessment"

	e, err := m.Render(lead, TypeAssessment, 0)
	require.NoError(t, err)
	assert.Equal(t, "Your Data & AI Readiness Assessment Results", e.Subject)
	assert.Contains(t, e.Text, "Your full results are ready.")
	assert.False(t, strings.Contains(e.Text, "The first thing we would look at"))
}

func TestMailer_Send(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		m := createTestMailer(t, nil)
		_, err := m.Send(context.Background(), scoredLead(), TypeAssessment, 0)
		assert.ErrorIs(t, err, ErrEmailDisabled)
	})

	t.Run("delivers", func(t *testing.T) {
		sender := &recordingSender{}
		m := createTestMailer(t, sender)
		id, err := m.Send(context.Background(), scoredLead(), TypeAssessment, 2)
		require.NoError(t, err)
		assert.Equal(t, "ses-msg-1", id)
		assert.Equal(t, "dana@harborpoint.com", sender.to)
		assert.Equal(t, "One thing that stood out from your assessment", sender.subject)
		assert.Contains(t, sender.text, "Hi Dana")
	})

	t.Run("ses error", func(t *testing.T) {
		m := createTestMailer(t, &recordingSender{err: errors.New("Throttling: Maximum sending rate exceeded")})
		_, err := m.Send(context.Background(), scoredLead(), TypeAssessment, 2)
		assert.ErrorContains(t, err, "Throttling")
	})
}

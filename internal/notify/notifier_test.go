package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/models"
)

type sentEmail struct {
	to, subject, html, text string
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, html, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentEmail{to, subject, html, text})
	return "ses-msg", nil
}

type published struct {
	topic, subject, message string
	attrs                   map[string]string
}

type fakePublisher struct {
	published []published
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, topic, subject, message string, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, published{topic, subject, message, attrs})
	return "sns-msg", nil
}

func createTestNotifier(t *testing.T, email EmailSender, pub Publisher) *Notifier {
	t.Helper()
	return New(Config{
		SiteURL:       "https://databender.co/",
		SalesEmail:    "sales@databender.co",
		SalesTopicARN: "arn:aws:sns:us-east-1:123456789012:sales-leads",
	}, email, pub, logger.NewTestLogger(t))
}

func TestNotifier_DownloadURL(t *testing.T) {
	n := createTestNotifier(t, nil, nil)
	assert.Equal(t, "https://databender.co/downloads/own-your-ai.pdf", n.DownloadURL("own-your-ai"))
}

func TestNotifier_GuideDelivery(t *testing.T) {
	email := &fakeEmail{}
	pub := &fakePublisher{}
	n := createTestNotifier(t, email, pub)

	got := n.NotifyLead(context.Background(), &models.Lead{
		LeadID:        "lead-1",
		Email:         "dana@harborpoint.com",
		FirstName:     "Dana",
		FormType:      models.FormTypeGuide,
		ResourceSlug:  "own-your-ai",
		ResourceTitle: "Own Your AI",
		Tier:          models.LeadTierC,
	})

	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationGuideDelivery, got[0].Type)
	assert.Equal(t, StatusSent, got[0].Status)
	assert.Equal(t, "ses-msg", got[0].MessageID)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "dana@harborpoint.com", email.sent[0].to)
	assert.Equal(t, "Your guide: Own Your AI", email.sent[0].subject)
	assert.Contains(t, email.sent[0].html, `href="https://databender.co/downloads/own-your-ai.pdf"`)
	assert.Contains(t, email.sent[0].text, "https://databender.co/downloads/own-your-ai.pdf")
	assert.Empty(t, pub.published, "guide downloads do not alert sales")
}

func TestNotifier_SalesAlert(t *testing.T) {
	email := &fakeEmail{}
	pub := &fakePublisher{}
	n := createTestNotifier(t, email, pub)
	score := 12

	got := n.NotifyLead(context.Background(), &models.Lead{
		LeadID:          "lead-2",
		Email:           "sam@northgate.com",
		FirstName:       "Sam",
		LastName:        "Okafor",
		Company:         "Northgate <Partners>",
		FormType:        models.FormTypeAssessment,
		Tier:            models.LeadTierA,
		AssessmentScore: &score,
		AssessmentTier:  "significantGaps",
	})

	require.Len(t, got, 2)
	assert.Equal(t, models.ChannelSES, got[0].Channel)
	assert.Equal(t, models.ChannelSNS, got[1].Channel)
	for _, rec := range got {
		assert.Equal(t, StatusSent, rec.Status)
		assert.Equal(t, models.NotificationSalesAlert, rec.Type)
	}

	require.Len(t, email.sent, 1)
	assert.Equal(t, "sales@databender.co", email.sent[0].to)
	assert.Equal(t, "New assessment lead: Sam Okafor (tier A)", email.sent[0].subject)
	assert.Contains(t, email.sent[0].html, "Northgate &lt;Partners&gt;")
	assert.Contains(t, email.sent[0].text, "Assessment: 12 (significantGaps)")

	require.Len(t, pub.published, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:sales-leads", pub.published[0].topic)
	assert.Equal(t, map[string]string{"formType": "assessment", "tier": "A"}, pub.published[0].attrs)
}

func TestNotifier_ChannelStates(t *testing.T) {
	lead := &models.Lead{LeadID: "lead-3", Email: "a@b.co", FirstName: "A", LastName: "B", FormType: models.FormTypeAudit, Tier: models.LeadTierB}

	t.Run("disabled channels", func(t *testing.T) {
		got := createTestNotifier(t, nil, nil).NotifyLead(context.Background(), lead)
		require.Len(t, got, 2)
		assert.Equal(t, StatusDisabled, got[0].Status)
		assert.Equal(t, StatusDisabled, got[1].Status)
	})

	t.Run("failures are recorded", func(t *testing.T) {
		n := createTestNotifier(t, &fakeEmail{err: errors.New("MessageRejected")}, &fakePublisher{})
		got := n.NotifyLead(context.Background(), lead)
		require.Len(t, got, 2)
		assert.Equal(t, StatusFailed, got[0].Status)
		assert.Equal(t, StatusSent, got[1].Status)
	})

	t.Run("contact and newsletter send nothing", func(t *testing.T) {
		n := createTestNotifier(t, &fakeEmail{}, &fakePublisher{})
		assert.Empty(t, n.NotifyLead(context.Background(), &models.Lead{FormType: models.FormTypeContact}))
		assert.Empty(t, n.NotifyLead(context.Background(), &models.Lead{FormType: models.FormTypeNewsletter}))
	})
}

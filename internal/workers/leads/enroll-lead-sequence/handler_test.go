package enrollleadsequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/common/camunda/jobtest"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/models"
	"prospect-composer/internal/sequences"
)

type fakeLeads struct {
	leads map[string]*models.Lead
}

func (f *fakeLeads) GetLead(_ context.Context, id string) (*models.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, apperrors.NewLeadNotFoundError(id)
	}
	return l, nil
}

type fakeSequences struct {
	enrolled  map[string]sequences.Type
	refuse    map[string]string
	storeErr  error
	sendErr   error
	firstSent []string
}

func (f *fakeSequences) Enroll(_ context.Context, leadID string, t sequences.Type) (*sequences.Sequence, error) {
	if f.storeErr != nil {
		return nil, apperrors.NewDatabaseError("enroll in sequence", f.storeErr)
	}
	if reason, ok := f.refuse[leadID]; ok {
		return nil, apperrors.NewSequenceStateError(reason)
	}
	f.enrolled[leadID] = t
	return &sequences.Sequence{LeadID: leadID, Type: t, Status: sequences.StatusActive, EmailsSent: map[int]sequences.SentEmail{}}, nil
}

func (f *fakeSequences) SendFirst(_ context.Context, lead *models.Lead, _ *sequences.Sequence) (*sequences.SentEmail, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.firstSent = append(f.firstSent, lead.LeadID)
	return &sequences.SentEmail{SentAt: time.Now(), MessageID: "ses-" + lead.LeadID}, nil
}

func createTestLeads() *fakeLeads {
	return &fakeLeads{leads: map[string]*models.Lead{
		"guide-lead": {
			LeadID: "guide-lead", Email: "sam@example.com", FormType: models.FormTypeGuide, ResourceSlug: "associate-multiplier",
		},
		"audit-lead": {
			LeadID: "audit-lead", Email: "dana@harborpoint.com", FormType: models.FormTypeAudit,
		},
		"contact-lead": {
			LeadID: "contact-lead", Email: "lee@example.com", FormType: models.FormTypeContact,
		},
	}}
}

func createTestHandler(t *testing.T, seqs *fakeSequences) *Handler {
	t.Helper()
	return NewHandler(&Config{Timeout: time.Second}, createTestLeads(), seqs, nil, nil, logger.NewTestLogger(t))
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{enrolled: map[string]sequences.Type{}, refuse: map[string]string{}}
}

func TestExecute_EnrollsBySource(t *testing.T) {
	tests := []struct {
		leadID string
		want   sequences.Type
	}{
		{"guide-lead", sequences.TypeGuideLegal},
		{"audit-lead", sequences.TypeAssessment},
	}
	for _, tt := range tests {
		t.Run(tt.leadID, func(t *testing.T) {
			seqs := newFakeSequences()
			h := createTestHandler(t, seqs)

			out, err := h.Execute(context.Background(), &Input{LeadID: tt.leadID})
			require.NoError(t, err)
			assert.True(t, out.Enrolled)
			assert.Equal(t, tt.want, out.SequenceType)
			assert.True(t, out.FirstEmailSent)
			assert.Equal(t, "ses-"+tt.leadID, out.MessageID)
			assert.Equal(t, tt.want, seqs.enrolled[tt.leadID])
		})
	}
}

func TestExecute_ExplicitType(t *testing.T) {
	seqs := newFakeSequences()
	h := createTestHandler(t, seqs)

	out, err := h.Execute(context.Background(), &Input{LeadID: "contact-lead", SequenceType: sequences.TypeGuideGeneral})
	require.NoError(t, err)
	assert.True(t, out.Enrolled)
	assert.Equal(t, sequences.TypeGuideGeneral, seqs.enrolled["contact-lead"])

	_, err = h.Execute(context.Background(), &Input{LeadID: "contact-lead", SequenceType: "cold-legal"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputValidationFailed))
}

func TestExecute_NoSequenceForContact(t *testing.T) {
	seqs := newFakeSequences()
	h := createTestHandler(t, seqs)

	out, err := h.Execute(context.Background(), &Input{LeadID: "contact-lead"})
	require.NoError(t, err)
	assert.False(t, out.Enrolled)
	assert.Equal(t, "no sequence for contact leads", out.Reason)
	assert.Empty(t, seqs.enrolled)
}

func TestExecute_Ineligible(t *testing.T) {
	seqs := newFakeSequences()
	seqs.refuse["audit-lead"] = sequences.ReasonUnsubscribed
	h := createTestHandler(t, seqs)

	out, err := h.Execute(context.Background(), &Input{LeadID: "audit-lead"})
	require.NoError(t, err)
	assert.False(t, out.Enrolled)
	assert.Equal(t, sequences.ReasonUnsubscribed, out.Reason)
	assert.Empty(t, seqs.firstSent)
}

func TestExecute_SkipFirstEmail(t *testing.T) {
	seqs := newFakeSequences()
	h := createTestHandler(t, seqs)
	skip := false

	out, err := h.Execute(context.Background(), &Input{LeadID: "audit-lead", SendFirstEmail: &skip})
	require.NoError(t, err)
	assert.True(t, out.Enrolled)
	assert.False(t, out.FirstEmailSent)
	assert.Empty(t, seqs.firstSent)
}

func TestExecute_FirstEmailFailureStillEnrolls(t *testing.T) {
	seqs := newFakeSequences()
	seqs.sendErr = errors.New("MessageRejected: Email address is not verified")
	h := createTestHandler(t, seqs)

	out, err := h.Execute(context.Background(), &Input{LeadID: "audit-lead"})
	require.NoError(t, err)
	assert.True(t, out.Enrolled)
	assert.False(t, out.FirstEmailSent)
	assert.Empty(t, out.MessageID)
}

func TestExecute_StoreFailureIsRetryable(t *testing.T) {
	seqs := newFakeSequences()
	seqs.storeErr = errors.New("connection refused")
	h := createTestHandler(t, seqs)

	_, err := h.Execute(context.Background(), &Input{LeadID: "audit-lead"})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandle(t *testing.T) {
	t.Run("unknown lead is thrown", func(t *testing.T) {
		h := createTestHandler(t, newFakeSequences())
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(1, TaskType, map[string]interface{}{"leadId": "nobody"}))
		assert.Equal(t, "LEAD_NOT_FOUND", client.ThrownCode(t))
	})

	t.Run("completes", func(t *testing.T) {
		h := createTestHandler(t, newFakeSequences())
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(2, TaskType, map[string]interface{}{"leadId": "guide-lead"}))
		vars := client.CompletedVariables(t)
		assert.Equal(t, true, vars["enrolled"])
		assert.Equal(t, "guide-legal", vars["sequenceType"])
		assert.Equal(t, true, vars["firstEmailSent"])
	})

	t.Run("ineligible completes", func(t *testing.T) {
		seqs := newFakeSequences()
		seqs.refuse["audit-lead"] = sequences.ReasonActive
		h := createTestHandler(t, seqs)
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(3, TaskType, map[string]interface{}{"leadId": "audit-lead"}))
		vars := client.CompletedVariables(t)
		assert.Equal(t, false, vars["enrolled"])
		assert.Equal(t, sequences.ReasonActive, vars["reason"])
	})
}

package sequences

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/models"
)

// memoryStore is an in-memory Store for service tests.
type memoryStore struct {
	mu       sync.Mutex
	seqs     map[string]*Sequence
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{seqs: map[string]*Sequence{}}
}

func cloneSequence(s *Sequence) *Sequence {
	c := *s
	c.EmailsSent = make(map[int]SentEmail, len(s.EmailsSent))
	for k, v := range s.EmailsSent {
		c.EmailsSent[k] = v
	}
	return &c
}

func (m *memoryStore) Get(_ context.Context, leadID string) (*Sequence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.seqs[leadID]
	if !ok {
		return nil, ErrSequenceNotFound
	}
	return cloneSequence(s), nil
}

func (m *memoryStore) Save(_ context.Context, seq *Sequence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.seqs[seq.LeadID] = cloneSequence(seq)
	return nil
}

func (m *memoryStore) ListActive(_ context.Context) ([]*Sequence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*Sequence
	for _, s := range m.seqs {
		if s.Status == StatusActive {
			out = append(out, cloneSequence(s))
		}
	}
	return out, nil
}

type fakeLeads struct {
	leads map[string]*models.Lead
}

func (f *fakeLeads) GetLead(_ context.Context, id string) (*models.Lead, error) {
	if l, ok := f.leads[id]; ok {
		return l, nil
	}
	return nil, apperrors.NewLeadNotFoundError(id)
}

func (f *fakeLeads) GetLeadByEmail(_ context.Context, email string) (*models.Lead, error) {
	for _, l := range f.leads {
		if l.Email == email {
			return l, nil
		}
	}
	return nil, apperrors.NewLeadNotFoundError(email)
}

type sentMail struct {
	leadID string
	typ    Type
	day    int
}

type fakeSender struct {
	mu     sync.Mutex
	failOn map[string]error
	sent   []sentMail
}

func (f *fakeSender) Send(_ context.Context, lead *models.Lead, seqType Type, day int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[lead.LeadID]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, sentMail{lead.LeadID, seqType, day})
	return "ses-" + lead.LeadID, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advanceDays(n int) { c.now = c.now.Add(time.Duration(n) * 24 * time.Hour) }

func createTestLeads() *fakeLeads {
	return &fakeLeads{leads: map[string]*models.Lead{
		"guide-lead": {
			LeadID: "guide-lead", Email: "sam@example.com", FirstName: "Sam",
			FormType: models.FormTypeGuide, ResourceSlug: "ai-in-legal", ResourceTitle: "AI in Legal",
		},
		"audit-lead": {
			LeadID: "audit-lead", Email: "dana@harborpoint.com", FirstName: "Dana", Company: "Harbor Point",
			FormType: models.FormTypeAssessment, ResourceSlug: "commercial-real-estate", AssessmentTier: "significantGaps",
		},
		"contact-lead": {
			LeadID: "contact-lead", Email: "lee@example.com", FirstName: "Lee", FormType: models.FormTypeContact,
		},
	}}
}

func createTestService(t *testing.T) (*Service, *memoryStore, *fakeSender, *testClock) {
	t.Helper()
	store := newMemoryStore()
	sender := &fakeSender{failOn: map[string]error{}}
	clock := &testClock{now: enrolledAt}
	svc := NewService(store, createTestLeads(), sender, logger.NewTestLogger(t), WithClock(clock.Now))
	return svc, store, sender, clock
}

func TestEligible(t *testing.T) {
	now := enrolledAt
	tests := []struct {
		name   string
		seq    *Sequence
		ok     bool
		reason string
	}{
		{"never enrolled", nil, true, ""},
		{"active", &Sequence{Status: StatusActive}, false, ReasonActive},
		{"unsubscribed", &Sequence{Status: StatusUnsubscribed}, false, ReasonUnsubscribed},
		{"bounced", &Sequence{Status: StatusBounced}, false, ReasonBounced},
		{"paused after hard bounce", &Sequence{Status: StatusPaused, BounceType: BounceHard}, false, ReasonBounced},
		{"complained", &Sequence{Status: StatusPaused, ComplainedAt: &now}, false, ReasonComplained},
		{"completed", &Sequence{Status: StatusCompleted}, true, ""},
		{"paused after reply", &Sequence{Status: StatusPaused, PauseReason: PauseReplied}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Eligible(tt.seq)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestService_Enroll(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	seq, err := svc.Enroll(ctx, "guide-lead", TypeGuideLegal)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, seq.Status)
	assert.Equal(t, 0, seq.CurrentDay)
	assert.Empty(t, seq.EmailsSent)
	assert.Equal(t, enrolledAt, seq.EnrolledAt)
	assert.Contains(t, store.seqs, "guide-lead")

	_, err = svc.Enroll(ctx, "guide-lead", TypeGuideLegal)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSequenceStateInvalid))
	assert.Contains(t, err.Error(), ReasonActive)

	ok, reason, err := svc.CanEnroll(ctx, "guide-lead")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ReasonActive, reason)

	t.Run("unknown lead", func(t *testing.T) {
		_, err := svc.Enroll(ctx, "nobody", TypeAssessment)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Enroll(ctx, "audit-lead", "cold-legal")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSequenceStateInvalid))
	})

	t.Run("completed sequence can start again", func(t *testing.T) {
		_, err := svc.Complete(ctx, "guide-lead")
		require.NoError(t, err)
		again, err := svc.Enroll(ctx, "guide-lead", TypeGuideGeneral)
		require.NoError(t, err)
		assert.Equal(t, TypeGuideGeneral, again.Type)
	})

	t.Run("store down", func(t *testing.T) {
		store.failWith = errors.New("connection refused")
		defer func() { store.failWith = nil }()
		_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
	})
}

func TestService_SendFirst(t *testing.T) {
	svc, store, sender, _ := createTestService(t)
	ctx := context.Background()
	lead := createTestLeads().leads["audit-lead"]

	seq, err := svc.Enroll(ctx, lead.LeadID, TypeAssessment)
	require.NoError(t, err)

	sent, err := svc.SendFirst(ctx, lead, seq)
	require.NoError(t, err)
	assert.Equal(t, "ses-audit-lead", sent.MessageID)
	assert.Contains(t, store.seqs["audit-lead"].EmailsSent, 0)

	_, err = svc.SendFirst(ctx, lead, seq)
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1, "day 0 goes out once")
}

func TestService_SendFirst_FailureKeepsSequenceActive(t *testing.T) {
	svc, store, sender, _ := createTestService(t)
	ctx := context.Background()
	lead := createTestLeads().leads["guide-lead"]
	sender.failOn["guide-lead"] = errors.New("MessageRejected: Email address is not verified")

	seq, err := svc.Enroll(ctx, lead.LeadID, TypeGuideLegal)
	require.NoError(t, err)
	_, err = svc.SendFirst(ctx, lead, seq)
	require.Error(t, err)

	stored := store.seqs["guide-lead"]
	assert.Equal(t, StatusActive, stored.Status)
	assert.Empty(t, stored.EmailsSent)
}

func TestService_PauseResume(t *testing.T) {
	svc, _, _, clock := createTestService(t)
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
	require.NoError(t, err)

	clock.advanceDays(1)
	seq, err := svc.Pause(ctx, "audit-lead", PauseOutOfOffice)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, seq.Status)
	assert.Equal(t, PauseOutOfOffice, seq.PauseReason)
	require.NotNil(t, seq.PausedAt)

	_, err = svc.Pause(ctx, "audit-lead", PauseManual)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSequenceStateInvalid))

	clock.advanceDays(1)
	seq, err = svc.Resume(ctx, "audit-lead")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, seq.Status)
	assert.Empty(t, seq.PauseReason)
	require.NotNil(t, seq.ResumedAt)
	assert.Equal(t, clock.now, *seq.ResumedAt)

	_, err = svc.Resume(ctx, "audit-lead")
	assert.ErrorContains(t, err, "sequence is active, not paused")

	_, err = svc.Pause(ctx, "contact-lead", PauseManual)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSequenceNotFound))
}

func TestService_Resume_Refusals(t *testing.T) {
	now := enrolledAt
	tests := []struct {
		name string
		seq  *Sequence
		want string
	}{
		{"unsubscribed", &Sequence{Status: StatusUnsubscribed}, "unsubscribed"},
		{"hard bounce", &Sequence{Status: StatusBounced, BounceType: BounceHard}, "hard bounce"},
		{"completed", &Sequence{Status: StatusCompleted}, "not paused"},
		{"complaint", &Sequence{Status: StatusPaused, PauseReason: PauseComplaint, ComplainedAt: &now}, "spam complaint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, _ := createTestService(t)
			tt.seq.LeadID = "audit-lead"
			store.seqs["audit-lead"] = tt.seq

			_, err := svc.Resume(context.Background(), "audit-lead")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSequenceStateInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestService_Unsubscribe(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	t.Run("never enrolled", func(t *testing.T) {
		seq, err := svc.Unsubscribe(ctx, "guide-lead")
		require.NoError(t, err)
		assert.Equal(t, StatusUnsubscribed, seq.Status)
		assert.Equal(t, TypeGuideLegal, seq.Type)
		require.NotNil(t, seq.UnsubscribedAt)

		_, err = svc.Enroll(ctx, "guide-lead", TypeGuideLegal)
		assert.ErrorContains(t, err, ReasonUnsubscribed)
	})

	t.Run("by token", func(t *testing.T) {
		_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
		require.NoError(t, err)

		seq, err := svc.UnsubscribeByToken(ctx, UnsubscribeToken("Dana@HarborPoint.com", enrolledAt))
		require.NoError(t, err)
		assert.Equal(t, "audit-lead", seq.LeadID)
		assert.Equal(t, StatusUnsubscribed, store.seqs["audit-lead"].Status)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := svc.UnsubscribeByToken(ctx, "not-a-token")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputValidationFailed))
	})
}

func TestService_RecordEmailSent(t *testing.T) {
	svc, _, _, clock := createTestService(t)
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
	require.NoError(t, err)

	clock.advanceDays(14)
	seq, err := svc.RecordEmailSent(ctx, "audit-lead", 14, "ses-14")
	require.NoError(t, err)
	assert.Equal(t, 14, seq.CurrentDay)
	assert.Equal(t, StatusActive, seq.Status)
	assert.Equal(t, SentEmail{SentAt: clock.now, MessageID: "ses-14"}, seq.EmailsSent[14])

	seq, err = svc.RecordEmailSent(ctx, "audit-lead", 21, "ses-21")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, seq.Status)
	require.NotNil(t, seq.CompletedAt)

	_, err = svc.RecordEmailSent(ctx, "audit-lead", 3, "ses-3")
	assert.ErrorContains(t, err, "day 3 is not on the schedule")
}

func TestService_HandleBounce(t *testing.T) {
	ctx := context.Background()

	t.Run("hard bounce stops the sequence", func(t *testing.T) {
		svc, store, _, _ := createTestService(t)
		_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
		require.NoError(t, err)

		action, err := svc.HandleBounce(ctx, "DANA@harborpoint.com", BounceHard, "550 5.1.1 user unknown")
		require.NoError(t, err)
		assert.Equal(t, ActionBounced, action)

		seq := store.seqs["audit-lead"]
		assert.Equal(t, StatusBounced, seq.Status)
		assert.Equal(t, BounceHard, seq.BounceType)
		assert.Equal(t, PauseBounceHard, seq.PauseReason)
		assert.Equal(t, 1, seq.BounceCount)
		assert.Equal(t, "550 5.1.1 user unknown", seq.LastBounceReason)
		require.NotNil(t, seq.PausedAt)

		ok, reason, err := svc.CanEnroll(ctx, "audit-lead")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonBounced, reason)
	})

	t.Run("third soft bounce pauses", func(t *testing.T) {
		svc, store, _, _ := createTestService(t)
		_, err := svc.Enroll(ctx, "guide-lead", TypeGuideLegal)
		require.NoError(t, err)

		for i, want := range []string{ActionSoftBounceRecorded, ActionSoftBounceRecorded, ActionPausedSoftBounce} {
			action, err := svc.HandleBounce(ctx, "sam@example.com", BounceSoft, "mailbox full")
			require.NoError(t, err)
			assert.Equal(t, want, action, "bounce %d", i+1)
		}
		seq := store.seqs["guide-lead"]
		assert.Equal(t, StatusPaused, seq.Status)
		assert.Equal(t, PauseBounceSoft, seq.PauseReason)

		resumed, err := svc.Resume(ctx, "guide-lead")
		require.NoError(t, err)
		assert.Zero(t, resumed.BounceCount, "resuming clears soft bounces")
	})

	t.Run("undetermined counts as soft", func(t *testing.T) {
		svc, store, _, _ := createTestService(t)
		action, err := svc.HandleBounce(ctx, "lee@example.com", BounceUndetermined, "")
		require.NoError(t, err)
		assert.Equal(t, ActionSoftBounceRecorded, action)
		placeholder := store.seqs["contact-lead"]
		assert.Equal(t, BounceSoft, placeholder.BounceType)
		assert.Equal(t, StatusPaused, placeholder.Status, "a bounce never starts sending")
	})

	t.Run("unknown address", func(t *testing.T) {
		svc, store, _, _ := createTestService(t)
		action, err := svc.HandleBounce(ctx, "ghost@example.com", BounceHard, "")
		require.NoError(t, err)
		assert.Equal(t, ActionLeadNotFound, action)
		assert.Empty(t, store.seqs)
	})
}

func TestService_HandleComplaint(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "audit-lead", TypeAssessment)
	require.NoError(t, err)

	ok, err := svc.HandleComplaint(ctx, "dana@harborpoint.com")
	require.NoError(t, err)
	assert.True(t, ok)

	seq := store.seqs["audit-lead"]
	assert.Equal(t, StatusUnsubscribed, seq.Status)
	assert.Equal(t, PauseComplaint, seq.PauseReason)
	require.NotNil(t, seq.ComplainedAt)
	require.NotNil(t, seq.UnsubscribedAt)

	ok, err = svc.HandleComplaint(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_HandleReply(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	ok, err := svc.HandleReply(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "nothing to pause")

	_, err = svc.Enroll(ctx, "guide-lead", TypeGuideLegal)
	require.NoError(t, err)
	ok, err = svc.HandleReply(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	seq := store.seqs["guide-lead"]
	assert.Equal(t, StatusPaused, seq.Status)
	assert.Equal(t, PauseReplied, seq.PauseReason)
	require.NotNil(t, seq.RepliedAt)

	ok, err = svc.HandleReply(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "already paused")
}

func TestSequence_NextEmailDay(t *testing.T) {
	sentAt := SentEmail{SentAt: enrolledAt}
	tests := []struct {
		name    string
		status  Status
		sent    []int
		elapsed time.Duration
		wantDay int
		wantDue bool
	}{
		{"day 0 due at once", StatusActive, nil, 0, 0, true},
		{"nothing due yet", StatusActive, []int{0}, 47 * time.Hour, 0, false},
		{"day 2 due after 48h", StatusActive, []int{0}, 48 * time.Hour, 2, true},
		{"missed days come in order", StatusActive, []int{0}, 15 * 24 * time.Hour, 2, true},
		{"waiting between emails", StatusActive, []int{0, 2}, 5 * 24 * time.Hour, 0, false},
		{"all sent", StatusActive, Schedule, 40 * 24 * time.Hour, 0, false},
		{"paused sends nothing", StatusPaused, nil, 30 * 24 * time.Hour, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := &Sequence{Status: tt.status, EnrolledAt: enrolledAt, EmailsSent: map[int]SentEmail{}}
			for _, d := range tt.sent {
				seq.EmailsSent[d] = sentAt
			}
			day, due := seq.NextEmailDay(enrolledAt.Add(tt.elapsed))
			assert.Equal(t, tt.wantDue, due)
			assert.Equal(t, tt.wantDay, day)
		})
	}
}

func TestTypeForLead(t *testing.T) {
	leads := createTestLeads().leads
	typ, ok := TypeForLead(leads["guide-lead"])
	assert.True(t, ok)
	assert.Equal(t, TypeGuideLegal, typ)

	typ, ok = TypeForLead(leads["audit-lead"])
	assert.True(t, ok)
	assert.Equal(t, TypeAssessment, typ)

	_, ok = TypeForLead(leads["contact-lead"])
	assert.False(t, ok)

	assert.Equal(t, TypeGuideGeneral, TypeForGuide("own-your-ai"))
	assert.Equal(t, "CRE Data & AI Assessment", AssessmentName("commercial-real-estate"))
	assert.Equal(t, "Data & AI Readiness Assessment", AssessmentName(""))
}

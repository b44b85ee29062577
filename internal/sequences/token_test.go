package sequences

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribeToken(t *testing.T) {
	token := UnsubscribeToken("Dana@HarborPoint.com", enrolledAt)
	assert.NotContains(t, token, "=")

	email, ok := DecodeUnsubscribeToken(token)
	require.True(t, ok)
	assert.Equal(t, "dana@harborpoint.com", email)

	email, ok = DecodeUnsubscribeToken(token + "==")
	assert.True(t, ok, "padding is tolerated")
	assert.Equal(t, "dana@harborpoint.com", email)
}

func TestDecodeUnsubscribeToken_Rejects(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not json", enc("dana@harborpoint.com")},
		{"no email", enc(`{"ts":1772442000000}`)},
		{"no timestamp", enc(`{"email":"dana@harborpoint.com"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeUnsubscribeToken(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestTrackingID(t *testing.T) {
	in := TrackingData{
		LeadID:         "lead-1",
		EmailDay:       0,
		SequenceType:   TypeAssessment,
		DestinationURL: "https://databender.co/contact",
	}
	got, ok := DecodeTrackingID(TrackingID(in))
	require.True(t, ok)
	assert.Equal(t, in, got)

	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	for _, raw := range []string{
		`{"emailDay":2,"sequenceType":"assessment"}`,
		`{"leadId":"lead-1","sequenceType":"assessment"}`,
		`{"leadId":"lead-1","emailDay":2}`,
	} {
		_, ok := DecodeTrackingID(enc(raw))
		assert.False(t, ok, raw)
	}
}

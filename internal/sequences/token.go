package sequences

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

type unsubscribeClaims struct {
	Email string `json:"email"`
	TS    int64  `json:"ts"`
}

// UnsubscribeToken encodes the address an unsubscribe link acts on. It is
// an opaque identifier, not a signature.
func UnsubscribeToken(email string, at time.Time) string {
	return encodeToken(unsubscribeClaims{Email: strings.ToLower(email), TS: at.UnixMilli()})
}

// DecodeUnsubscribeToken returns the email in a token; ok is false for a
// malformed token or one missing its email or timestamp.
func DecodeUnsubscribeToken(token string) (email string, ok bool) {
	var c unsubscribeClaims
	if !decodeToken(token, &c) || c.Email == "" || c.TS == 0 {
		return "", false
	}
	return c.Email, true
}

// TrackingData identifies the email an open or click came from.
type TrackingData struct {
	LeadID         string `json:"leadId"`
	EmailDay       int    `json:"emailDay"`
	SequenceType   Type   `json:"sequenceType"`
	EmailID        string `json:"emailId,omitempty"`
	DestinationURL string `json:"destinationUrl,omitempty"`
}

func TrackingID(d TrackingData) string {
	return encodeToken(d)
}

// DecodeTrackingID requires the lead, day and sequence type.
func DecodeTrackingID(id string) (TrackingData, bool) {
	var raw struct {
		LeadID         *string `json:"leadId"`
		EmailDay       *int    `json:"emailDay"`
		SequenceType   *string `json:"sequenceType"`
		EmailID        string  `json:"emailId"`
		DestinationURL string  `json:"destinationUrl"`
	}
	if !decodeToken(id, &raw) || raw.LeadID == nil || raw.EmailDay == nil || raw.SequenceType == nil {
		return TrackingData{}, false
	}
	return TrackingData{
		LeadID:         *raw.LeadID,
		EmailDay:       *raw.EmailDay,
		SequenceType:   Type(*raw.SequenceType),
		EmailID:        raw.EmailID,
		DestinationURL: raw.DestinationURL,
	}, true
}

func encodeToken(v any) string {
	b, _ := json.Marshal(v)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeToken(token string, v any) bool {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

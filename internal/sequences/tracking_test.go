package sequences

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTracking = TrackingData{LeadID: "lead-1", EmailDay: 7, SequenceType: TypeGuideGeneral}

func TestTracker_AddPixel(t *testing.T) {
	tr := NewTracker("https://databender.co/")

	t.Run("before last body close", func(t *testing.T) {
		out := tr.AddPixel("<html><BODY><p>Hi</p></BODY></html>", testTracking)
		pixel := strings.Index(out, `<img src="https://databender.co/api/track/open/`)
		require.GreaterOrEqual(t, pixel, 0)
		assert.Less(t, pixel, strings.Index(out, "</BODY>"))
		assert.True(t, strings.HasSuffix(out, "</BODY></html>"))
	})

	t.Run("appended without body", func(t *testing.T) {
		out := tr.AddPixel("<p>Hi</p>", testTracking)
		assert.True(t, strings.HasPrefix(out, "<p>Hi</p><img "))
		assert.True(t, strings.HasSuffix(out, "/>"))
	})

	t.Run("pixel id decodes", func(t *testing.T) {
		out := tr.AddPixel("", testTracking)
		id := regexp.MustCompile(`/api/track/open/([^"]+)"`).FindStringSubmatch(out)
		require.Len(t, id, 2)
		got, ok := DecodeTrackingID(id[1])
		require.True(t, ok)
		assert.Equal(t, testTracking, got)
	})
}

func TestTracker_WrapLinks(t *testing.T) {
	tr := NewTracker("https://databender.co")
	clickID := regexp.MustCompile(`/api/track/click/([^"']+)`)

	tests := []struct {
		name    string
		html    string
		wrapped bool
	}{
		{"double quoted", `<a href="https://databender.co/contact">Book</a>`, true},
		{"single quoted", `<a href='https://databender.co/contact'>Book</a>`, true},
		{"unsubscribe", `<a href="https://databender.co/api/unsubscribe?token=abc">Unsubscribe</a>`, false},
		{"mailto", `<a href="MAILTO:hello@databender.co">Mail</a>`, false},
		{"tel", `<a href="tel:+15555550100">Call</a>`, false},
		{"anchor", `<a href="#top">Top</a>`, false},
		{"empty", `<a href="">Nothing</a>`, false},
		{"already tracked", `<a href="https://databender.co/api/track/click/xyz">Tracked</a>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tr.WrapLinks(tt.html, testTracking)
			if !tt.wrapped {
				assert.Equal(t, tt.html, out)
				return
			}
			m := clickID.FindStringSubmatch(out)
			require.Len(t, m, 2)
			got, ok := DecodeTrackingID(m[1])
			require.True(t, ok)
			assert.Equal(t, "https://databender.co/contact", got.DestinationURL)
			assert.Equal(t, "lead-1", got.LeadID)
			assert.Equal(t, tt.html[8:9], out[8:9], "quote style is kept")
		})
	}
}

func TestTracker_Apply(t *testing.T) {
	tr := NewTracker("https://databender.co")
	out := tr.Apply(`<body><a href="https://databender.co">Site</a></body>`, testTracking)

	assert.Equal(t, 1, strings.Count(out, "/api/track/click/"))
	assert.Equal(t, 1, strings.Count(out, "/api/track/open/"), "the pixel is not wrapped")
}

package sequences

import (
	"fmt"
	"regexp"
	"strings"
)

// Tracker rewrites outgoing sequence HTML to report opens and clicks back to
// the site.
type Tracker struct {
	siteURL string
}

func NewTracker(siteURL string) *Tracker {
	return &Tracker{siteURL: strings.TrimRight(siteURL, "/")}
}

func (t *Tracker) OpenURL(id string) string {
	return fmt.Sprintf("%s/api/track/open/%s", t.siteURL, id)
}

func (t *Tracker) ClickURL(id string) string {
	return fmt.Sprintf("%s/api/track/click/%s", t.siteURL, id)
}

// AddPixel inserts a 1x1 open-tracking image before the last </body>, or
// appends it when there is none.
func (t *Tracker) AddPixel(html string, d TrackingData) string {
	pixel := fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:block;width:1px;height:1px;border:0;" />`,
		t.OpenURL(TrackingID(d)))
	i := strings.LastIndex(strings.ToLower(html), "</body>")
	if i < 0 {
		return html + pixel
	}
	return html[:i] + pixel + html[i:]
}

var hrefPattern = regexp.MustCompile(`href=("[^"]*"|'[^']*')`)

// WrapLinks points every followable link at the click tracker, keeping its
// quote style. Unsubscribe, mailto:, tel: and in-page links are left alone,
// as are links that are already tracked.
func (t *Tracker) WrapLinks(html string, d TrackingData) string {
	return hrefPattern.ReplaceAllStringFunc(html, func(attr string) string {
		quoted := attr[len("href="):]
		quote, url := quoted[:1], quoted[1:len(quoted)-1]
		if !t.trackable(url) {
			return attr
		}
		link := d
		link.DestinationURL = url
		return "href=" + quote + t.ClickURL(TrackingID(link)) + quote
	})
}

func (t *Tracker) trackable(url string) bool {
	lower := strings.ToLower(url)
	switch {
	case url == "",
		strings.HasPrefix(url, "#"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.Contains(lower, "unsubscribe"),
		strings.Contains(url, "/api/track/"):
		return false
	}
	return true
}

// Apply wraps the links and then adds the pixel.
func (t *Tracker) Apply(html string, d TrackingData) string {
	return t.AddPixel(t.WrapLinks(html, d), d)
}

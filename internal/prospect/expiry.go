package prospect

import "time"

const createdDateLayout = "2006-01-02"

// ExpiresAt returns createdDate plus the soft expiration window.
func ExpiresAt(page Page) (time.Time, bool) {
	created, err := time.Parse(createdDateLayout, page.CreatedDate)
	if err != nil {
		return time.Time{}, false
	}
	days := page.SoftExpirationDays
	if days <= 0 {
		days = DefaultSoftExpirationDays
	}
	return created.AddDate(0, 0, days), true
}

// IsExpired reports whether the page is past its soft expiration. Pages with
// an unparseable created date never expire.
func IsExpired(page Page, now time.Time) bool {
	expires, ok := ExpiresAt(page)
	if !ok {
		return false
	}
	return now.After(expires)
}

package buildprospectpage

import "prospect-composer/internal/prospect"

type Input struct {
	Slug     string `json:"slug"`
	Password string `json:"password"`
}

type Output struct {
	Page      prospect.Page `json:"page"`
	ExpiresAt string        `json:"expiresAt"` // YYYY-MM-DD, empty when createdDate is unparseable
	Expired   bool          `json:"expired"`
}

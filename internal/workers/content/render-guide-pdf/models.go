package renderguidepdf

type Input struct {
	Slug string `json:"slug"`
}

type Output struct {
	Slug      string `json:"slug"`
	Generated bool   `json:"generated"`
	Skipped   bool   `json:"skipped"`
	Path      string `json:"path,omitempty"`
}

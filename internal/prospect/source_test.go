package prospect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
)

const testProspects = `
prospects:
  - slug: lp-2026
    password: levenfeld
    companyName: Levenfeld Pearlstein LLC
    industry: legal
    companySize: 80 attorneys
    companyLocation: Chicago, IL
    contactName: Jessa Baker
    createdDate: "2026-01-26"
  - slug: example-health-2026
    password: examplehealth
    companyName: Example Health Partners
    industry: healthcare
    companySize: 12 locations
    companyLocation: Denver, CO
    contactName: Jane Smith
    createdDate: "2026-01-26"
    softExpirationDays: 10
    overrides:
      benefits:
        - Faster prior auth
`

func TestParseFileSource(t *testing.T) {
	src, err := ParseFileSource([]byte(testProspects))
	require.NoError(t, err)

	all, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "lp-2026", all[0].Slug)
	assert.Equal(t, "example-health-2026", all[1].Slug)

	p, err := src.Get(context.Background(), "example-health-2026")
	require.NoError(t, err)
	require.NotNil(t, p.Overrides)
	assert.Equal(t, []string{"Faster prior auth"}, p.Overrides.Benefits)
	assert.Nil(t, p.Overrides.Questions)
}

func TestParseFileSource_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name: "unknown override key",
			content: `
prospects:
  - slug: a
    password: p
    companyName: A
    industry: legal
    companySize: "1"
    companyLocation: X
    contactName: C
    createdDate: "2026-01-01"
    overrides:
      benefitz: [x]
`,
			errPart: "benefitz",
		},
		{
			name: "missing fields",
			content: `
prospects:
  - slug: a
    password: p
`,
			errPart: "companyName",
		},
		{
			name: "bad slug",
			content: `
prospects:
  - slug: Not A Slug
    password: p
    companyName: A
    industry: legal
    companySize: "1"
    companyLocation: X
    contactName: C
    createdDate: "2026-01-01"
`,
			errPart: "kebab-case",
		},
		{
			name:    "duplicate slug",
			content: testProspects + testProspects[len("\nprospects:\n"):],
			errPart: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFileSource([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputValidationFailed))
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestParseFileSource_Empty(t *testing.T) {
	src, err := ParseFileSource(nil)
	require.NoError(t, err)

	all, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoadFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testProspects), 0o600))

	src, err := LoadFileSource(path)
	require.NoError(t, err)

	_, err = src.Get(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProspectNotFound))

	_, err = LoadFileSource(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestService_Page(t *testing.T) {
	src, err := ParseFileSource([]byte(testProspects))
	require.NoError(t, err)
	b, _ := createTestBuilder(t)
	svc := NewService(src, b, logger.NewTestLogger(t))

	page, err := svc.Page(context.Background(), "example-health-2026", "examplehealth")
	require.NoError(t, err)
	assert.Equal(t, "healthcare", page.Industry)
	assert.Equal(t, []string{"Faster prior auth"}, page.Benefits)
	assert.Equal(t, 10, page.SoftExpirationDays)

	_, err = svc.Page(context.Background(), "example-health-2026", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProspectAccessDenied))

	_, err = svc.Page(context.Background(), "missing", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProspectNotFound))

	pages, err := svc.Pages(context.Background())
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestIsExpired(t *testing.T) {
	page := Page{CreatedDate: "2026-01-26", SoftExpirationDays: 30}

	expires, ok := ExpiresAt(page)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), expires)

	assert.False(t, IsExpired(page, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsExpired(page, time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC)))

	assert.False(t, IsExpired(Page{CreatedDate: "soon"}, time.Now()))
}

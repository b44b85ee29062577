package renderguidepdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/common/camunda/jobtest"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/pdf"
)

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Render(context.Context, string, pdf.Theme) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type stubGenerator struct {
	summary pdf.Summary
	err     error
}

func (s stubGenerator) Run(context.Context, string) (pdf.Summary, error) {
	return s.summary, s.err
}

func createTestHandler(t *testing.T, renderer pdf.Renderer) (*Handler, string) {
	t.Helper()
	catalog, err := pdf.ParseCatalog([]byte(`
groups:
  - name: Legal
    industry: legal
    guides:
      - slug: own-your-ai
        title: Own Your AI
      - slug: win-more-pitches
        title: Win More Pitches
`))
	require.NoError(t, err)

	contentDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "own-your-ai.html"), []byte("<h2>Control</h2>"), 0o644))

	outDir := filepath.Join(t.TempDir(), "downloads")
	log := logger.NewTestLogger(t)
	runner := pdf.NewRunner(catalog, pdf.NewDirStore(contentDir), renderer, outDir, log)
	return NewHandler(&Config{Timeout: time.Second}, runner, nil, nil, log), outDir
}

func TestExecute_Generates(t *testing.T) {
	h, outDir := createTestHandler(t, &fakeRenderer{})

	out, err := h.Execute(context.Background(), &Input{Slug: "own-your-ai"})
	require.NoError(t, err)
	assert.True(t, out.Generated)
	assert.False(t, out.Skipped)
	assert.Equal(t, filepath.Join(outDir, "own-your-ai.pdf"), out.Path)
	assert.FileExists(t, out.Path)
}

func TestExecute_MissingContentIsSkipped(t *testing.T) {
	renderer := &fakeRenderer{}
	h, outDir := createTestHandler(t, renderer)

	out, err := h.Execute(context.Background(), &Input{Slug: "win-more-pitches"})
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, out.Path)
	assert.Zero(t, renderer.calls)
	assert.NoFileExists(t, filepath.Join(outDir, "win-more-pitches.pdf"))
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		generator Generator
		wantCode  apperrors.ErrorCode
	}{
		{
			name:      "unknown guide",
			generator: stubGenerator{err: fmt.Errorf("%w: nope", pdf.ErrUnknownGuide)},
			wantCode:  apperrors.ErrCodeGuideNotFound,
		},
		{
			name: "render failure",
			generator: stubGenerator{summary: pdf.Summary{
				Total: 1, Failed: 1, Failures: map[string]error{"own-your-ai": errors.New("browser crashed")},
			}},
			wantCode: apperrors.ErrCodePDFRenderFailed,
		},
		{
			name:      "output directory unwritable",
			generator: stubGenerator{err: errors.New("create output directory: permission denied")},
			wantCode:  apperrors.ErrCodePDFRenderFailed,
		},
		{
			name:      "deadline",
			generator: stubGenerator{err: context.DeadlineExceeded},
			wantCode:  apperrors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&Config{Timeout: time.Second}, tt.generator, nil, nil, logger.NewTestLogger(t))
			_, err := h.Execute(context.Background(), &Input{Slug: "own-your-ai"})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestHandle(t *testing.T) {
	t.Run("unknown guide is thrown", func(t *testing.T) {
		h, _ := createTestHandler(t, &fakeRenderer{})
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(1, TaskType, map[string]interface{}{"slug": "missing-guide"}))
		assert.Equal(t, "GUIDE_NOT_FOUND", client.ThrownCode(t))
	})

	t.Run("render failure is retried", func(t *testing.T) {
		h, _ := createTestHandler(t, &fakeRenderer{err: errors.New("browser crashed")})
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(2, TaskType, map[string]interface{}{"slug": "own-your-ai"}))
		require.Len(t, client.Gateway.Failed, 1)
		assert.Equal(t, int32(2), client.Gateway.Failed[0].Retries)
	})

	t.Run("completes", func(t *testing.T) {
		h, _ := createTestHandler(t, &fakeRenderer{})
		client := jobtest.NewClient()
		h.Handle(client, jobtest.NewJob(3, TaskType, map[string]interface{}{"slug": "own-your-ai"}))
		vars := client.CompletedVariables(t)
		assert.Equal(t, true, vars["generated"])
		assert.Equal(t, "own-your-ai", vars["slug"])
	})
}

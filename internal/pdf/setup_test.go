package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentStore(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "own-your-ai", "<p>from disk</p>")

	t.Run("dir", func(t *testing.T) {
		store, err := NewContentStore(SourceDir, dir, nil, "")
		require.NoError(t, err)
		assert.IsType(t, &DirStore{}, store)
	})

	t.Run("elasticsearch falls back to dir", func(t *testing.T) {
		_, client := newFakeElasticsearch(t)
		store, err := NewContentStore(SourceElasticsearch, dir, client, "guide_content")
		require.NoError(t, err)

		html, found, err := store.Content(context.Background(), "own-your-ai")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "<p>from disk</p>", html)
	})

	t.Run("elasticsearch without dir", func(t *testing.T) {
		_, client := newFakeElasticsearch(t)
		store, err := NewContentStore(SourceElasticsearch, "", client, "guide_content")
		require.NoError(t, err)
		assert.IsType(t, &ElasticsearchStore{}, store)
	})

	t.Run("elasticsearch needs a client", func(t *testing.T) {
		_, err := NewContentStore(SourceElasticsearch, dir, nil, "guide_content")
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewContentStore("s3", dir, nil, "")
		assert.EqualError(t, err, `unknown content source "s3"`)
	})
}

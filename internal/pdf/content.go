package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prospect-composer/internal/common/database"
	"prospect-composer/internal/common/logger"
)

// ContentStore supplies the body HTML of a guide. found is false when the
// guide has no content yet; err is reserved for store failures.
type ContentStore interface {
	Content(ctx context.Context, slug string) (html string, found bool, err error)
}

// DirStore reads <dir>/<slug>.html.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Content(_ context.Context, slug string) (string, bool, error) {
	if strings.ContainsAny(slug, `/\`) || strings.Contains(slug, "..") {
		return "", false, fmt.Errorf("invalid guide slug %q", slug)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, slug+".html"))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read guide content %s: %w", slug, err)
	}
	html := string(raw)
	if strings.TrimSpace(html) == "" {
		return "", false, nil
	}
	return html, true, nil
}

// Slugs lists the guides that have a content file.
func (s *DirStore) Slugs() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.html"))
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(matches))
	for _, m := range matches {
		slugs = append(slugs, strings.TrimSuffix(filepath.Base(m), ".html"))
	}
	return slugs, nil
}

// GuideContentDoc is the document shape stored in the guide content index.
type GuideContentDoc struct {
	Slug     string `json:"slug"`
	Title    string `json:"title,omitempty"`
	Industry string `json:"industry,omitempty"`
	Content  string `json:"content"`
}

// DocumentStore is the subset of the Elasticsearch client the store needs.
type DocumentStore interface {
	GetDocument(ctx context.Context, index, id string, dst interface{}) error
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// ElasticsearchStore keeps guide bodies in an index keyed by slug.
type ElasticsearchStore struct {
	docs  DocumentStore
	index string
}

func NewElasticsearchStore(docs DocumentStore, index string) *ElasticsearchStore {
	return &ElasticsearchStore{docs: docs, index: index}
}

func (s *ElasticsearchStore) Content(ctx context.Context, slug string) (string, bool, error) {
	var doc GuideContentDoc
	err := s.docs.GetDocument(ctx, s.index, slug, &doc)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return "", false, nil
	}
	return doc.Content, true, nil
}

// Put stores or replaces a guide body.
func (s *ElasticsearchStore) Put(ctx context.Context, doc GuideContentDoc) error {
	return s.docs.IndexDocument(ctx, s.index, doc.Slug, doc)
}

// Sync copies every guide body found in src into the index and returns how
// many were written. Guides without content are left alone.
func (s *ElasticsearchStore) Sync(ctx context.Context, catalog *Catalog, src ContentStore, log logger.Logger) (int, error) {
	written := 0
	for _, guide := range catalog.Guides() {
		html, found, err := src.Content(ctx, guide.Slug)
		if err != nil {
			return written, err
		}
		if !found {
			continue
		}
		industry, _ := catalog.Industry(guide.Slug)
		if err := s.Put(ctx, GuideContentDoc{Slug: guide.Slug, Title: guide.Title, Industry: industry, Content: html}); err != nil {
			return written, fmt.Errorf("index guide %s: %w", guide.Slug, err)
		}
		written++
		log.Debug("Indexed guide content", map[string]interface{}{"slug": guide.Slug})
	}
	return written, nil
}

// ChainStore asks each store in turn and returns the first hit.
type ChainStore []ContentStore

func (c ChainStore) Content(ctx context.Context, slug string) (string, bool, error) {
	for _, s := range c {
		html, found, err := s.Content(ctx, slug)
		if err != nil {
			return "", false, err
		}
		if found {
			return html, true, nil
		}
	}
	return "", false, nil
}

package pdf

import "fmt"

// Content source names accepted by NewContentStore.
const (
	SourceDir           = "dir"
	SourceElasticsearch = "elasticsearch"
)

// NewContentStore picks where guide bodies come from. With elasticsearch the
// content directory still serves guides the index does not have yet.
func NewContentStore(source, dir string, docs DocumentStore, index string) (ContentStore, error) {
	switch source {
	case SourceDir, "":
		return NewDirStore(dir), nil
	case SourceElasticsearch:
		if docs == nil {
			return nil, fmt.Errorf("content source %q needs an elasticsearch client", source)
		}
		es := NewElasticsearchStore(docs, index)
		if dir == "" {
			return es, nil
		}
		return ChainStore{es, NewDirStore(dir)}, nil
	default:
		return nil, fmt.Errorf("unknown content source %q", source)
	}
}

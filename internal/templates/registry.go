package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/validation"
)

//go:embed data/*.yaml
var dataFS embed.FS

//go:embed schema/industry_template.json
var templateSchema []byte

// DefaultFallback is served for any key that is not registered.
const DefaultFallback = IndustryLegal

// Registry maps industry keys to templates. It is read-only once built.
type Registry struct {
	templates map[string]IndustryTemplate
	general   IndustryTemplate
	fallback  string
}

// Option configures NewRegistry.
type Option func(*registryOptions)

type registryOptions struct {
	fallback string
	fsys     fs.FS
	dir      string
}

// WithFallback changes which template unknown keys resolve to.
func WithFallback(industry string) Option {
	return func(o *registryOptions) {
		if industry != "" {
			o.fallback = industry
		}
	}
}

// WithFS loads templates from another filesystem, mostly for tests.
func WithFS(fsys fs.FS, dir string) Option {
	return func(o *registryOptions) {
		o.fsys = fsys
		o.dir = dir
	}
}

// NewRegistry decodes and validates every template. A template that is not
// complete is a build error, so Lookup itself can never fail. Every data file
// except general.yaml is registered under its file name, so dental,
// accounting, construction and wholesale-distribution prospects get their own
// copy instead of the fallback. General is only reachable as the fallback.
func NewRegistry(opts ...Option) (*Registry, error) {
	o := registryOptions{fallback: DefaultFallback, fsys: dataFS, dir: "data"}
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := validation.CompileSchema(templateSchema)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(o.fsys, o.dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	r := &Registry{templates: make(map[string]IndustryTemplate), fallback: o.fallback}
	var haveGeneral bool
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(o.fsys, path.Join(o.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}

		key := strings.TrimSuffix(entry.Name(), ".yaml")
		tmpl, err := decodeTemplate(key, raw, schema)
		if err != nil {
			return nil, err
		}

		if key == IndustryGeneral {
			r.general = tmpl
			haveGeneral = true
			continue
		}
		r.templates[key] = tmpl
	}

	if o.fallback == IndustryGeneral {
		if !haveGeneral {
			return nil, fmt.Errorf("fallback industry %q has no template", o.fallback)
		}
		r.templates[IndustryGeneral] = r.general
	}
	if _, ok := r.templates[r.fallback]; !ok {
		return nil, fmt.Errorf("fallback industry %q has no template", r.fallback)
	}
	return r, nil
}

func decodeTemplate(key string, raw []byte, schema *validation.Schema) (IndustryTemplate, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return IndustryTemplate{}, fmt.Errorf("parse template %s: %w", key, err)
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return IndustryTemplate{}, err
	}
	if !result.Valid {
		return IndustryTemplate{}, apperrors.NewTemplateInvalidError(key, strings.Join(result.GetErrorMessages(), "; "))
	}

	var tmpl IndustryTemplate
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return IndustryTemplate{}, fmt.Errorf("decode template %s: %w", key, err)
	}
	if tmpl.Industry != key {
		return IndustryTemplate{}, apperrors.NewTemplateInvalidError(key,
			fmt.Sprintf("industry field %q does not match file name", tmpl.Industry))
	}
	return tmpl, nil
}

// Lookup returns the template registered under industryKey, or the fallback
// template for anything else. It never fails.
func (r *Registry) Lookup(industryKey string) IndustryTemplate {
	if tmpl, ok := r.templates[industryKey]; ok {
		return tmpl.Clone()
	}
	return r.templates[r.fallback].Clone()
}

// Has reports whether industryKey resolves without falling back.
func (r *Registry) Has(industryKey string) bool {
	_, ok := r.templates[industryKey]
	return ok
}

// Fallback is the industry key Lookup resolves unregistered keys to.
func (r *Registry) Fallback() string {
	return r.fallback
}

// Keys lists registered industry keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

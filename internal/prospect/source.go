package prospect

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/validation"
)

// Source supplies operator-authored prospects.
type Source interface {
	List(ctx context.Context) ([]Input, error)
	Get(ctx context.Context, slug string) (Input, error)
}

type prospectFile struct {
	Prospects []Input `yaml:"prospects"`
}

// FileSource serves prospects from a YAML file loaded once.
type FileSource struct {
	bySlug map[string]Input
	order  []string
}

// LoadFileSource reads path. Unknown keys, including unknown override fields,
// are rejected here so the builder only ever sees well-formed input.
func LoadFileSource(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prospects file: %w", err)
	}
	return ParseFileSource(raw)
}

func ParseFileSource(raw []byte) (*FileSource, error) {
	var file prospectFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("decode prospects: %v", err))
	}

	src := &FileSource{bySlug: make(map[string]Input, len(file.Prospects))}
	for i, p := range file.Prospects {
		if err := validateInput(p); err != nil {
			return nil, apperrors.NewInputValidationError(fmt.Sprintf("prospect %d: %v", i, err))
		}
		if _, dup := src.bySlug[p.Slug]; dup {
			return nil, apperrors.NewInputValidationError(fmt.Sprintf("duplicate prospect slug %q", p.Slug))
		}
		src.bySlug[p.Slug] = p
		src.order = append(src.order, p.Slug)
	}
	return src, nil
}

func validateInput(p Input) error {
	required := map[string]string{
		"slug":            p.Slug,
		"password":        p.Password,
		"companyName":     p.CompanyName,
		"industry":        p.Industry,
		"companySize":     p.CompanySize,
		"companyLocation": p.CompanyLocation,
		"contactName":     p.ContactName,
		"createdDate":     p.CreatedDate,
	}
	var missing []string
	for field, v := range required {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required fields %v", missing)
	}
	if !validation.ValidateSlug(p.Slug) {
		return fmt.Errorf("slug %q must be lower-case kebab-case", p.Slug)
	}
	if p.SoftExpirationDays < 0 {
		return fmt.Errorf("softExpirationDays must not be negative")
	}
	return nil
}

func (s *FileSource) List(_ context.Context) ([]Input, error) {
	out := make([]Input, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.bySlug[slug])
	}
	return out, nil
}

func (s *FileSource) Get(_ context.Context, slug string) (Input, error) {
	p, ok := s.bySlug[slug]
	if !ok {
		return Input{}, apperrors.NewProspectNotFoundError(slug)
	}
	return p, nil
}

// Service looks prospects up and builds their pages behind the password gate.
type Service struct {
	source  Source
	builder *Builder
	logger  logger.Logger
}

func NewService(source Source, builder *Builder, log logger.Logger) *Service {
	return &Service{source: source, builder: builder, logger: log}
}

// Page builds the page for slug after checking password.
func (s *Service) Page(ctx context.Context, slug, password string) (Page, error) {
	in, err := s.source.Get(ctx, slug)
	if err != nil {
		return Page{}, err
	}
	if !Authorize(in, password) {
		s.logger.Warn("Prospect password mismatch", map[string]interface{}{"slug": slug})
		return Page{}, apperrors.NewProspectAccessDeniedError(slug)
	}
	return s.builder.Build(in), nil
}

// Pages builds every prospect page, for static generation.
func (s *Service) Pages(ctx context.Context) ([]Page, error) {
	inputs, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(inputs))
	for _, in := range inputs {
		pages = append(pages, s.builder.Build(in))
	}
	return pages, nil
}

// Authorize compares the opaque page password in constant time.
func Authorize(in Input, password string) bool {
	return subtle.ConstantTimeCompare([]byte(in.Password), []byte(password)) == 1
}

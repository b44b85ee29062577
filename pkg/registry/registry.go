package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/validation"
)

//go:embed activity-registry.json
var defaultRegistry []byte

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default is the registry shipped with the workers.
func Default() (*ActivityRegistry, error) {
	return Parse(defaultRegistry)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks required fields, unique ids and that every input schema
// compiles.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool)
	for _, a := range r.Activities {
		switch {
		case a.ID == "":
			return fmt.Errorf("activity missing required field: ID")
		case ids[a.ID]:
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		case a.DisplayName == "":
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		case a.TaskType == "":
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		case a.Category == "":
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		ids[a.ID] = true
		if len(a.InputSchema) > 0 {
			if _, err := validation.CompileSchemaMap(a.InputSchema); err != nil {
				return fmt.Errorf("activity %s: input schema: %w", a.ID, err)
			}
		}
	}
	return nil
}

// Validator checks job variables against the registry's input schemas.
type Validator struct {
	schemas map[string]*validation.Schema
}

func NewValidator(r *ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*validation.Schema)}
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		s, err := validation.CompileSchemaMap(a.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("activity %s: input schema: %w", a.ID, err)
		}
		v.schemas[a.TaskType] = s
	}
	return v, nil
}

// ValidateInput passes task types without a schema.
func (v *Validator) ValidateInput(taskType string, variables map[string]interface{}) error {
	s, ok := v.schemas[taskType]
	if !ok {
		return nil
	}
	result, err := s.Validate(variables)
	if err != nil {
		return apperrors.NewInputValidationError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (r *ValidationResult) String() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// PayloadValidator checks backend response bodies against precompiled per-action schemas.
type PayloadValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewPayloadValidator(schemas map[string]map[string]interface{}) (*PayloadValidator, error) {
	compiled := make(map[string]*gojsonschema.Schema, len(schemas))
	for action, raw := range schemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", action, err)
		}
		compiled[action] = s
	}
	return &PayloadValidator{schemas: compiled}, nil
}

// Validate checks body for action. Actions without a schema always pass.
func (v *PayloadValidator) Validate(action string, body []byte) (*ValidationResult, error) {
	s, ok := v.schemas[action]
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateParams reports required parameters that are absent or blank.
func ValidateParams(params map[string]string, required []string) *ValidationResult {
	var errs []ValidationError
	for _, name := range required {
		if strings.TrimSpace(params[name]) == "" {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}
	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Valid: false, Errors: errs}
}

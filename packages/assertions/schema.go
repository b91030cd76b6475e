package assertions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema for classify responses.
type Schema struct {
	Path   string
	schema *gojsonschema.Schema
}

// LoadSchema reads and compiles a JSON Schema file.
func LoadSchema(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", path, err)
	}
	return &Schema{Path: path, schema: compiled}, nil
}

// Validate checks a response body against the schema.
func (s *Schema) Validate(body []byte) *Result {
	result := &Result{
		Subject:   SubjectSchema,
		Operator:  "matches",
		Expected:  s.Path,
		Evaluated: true,
	}

	validation, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		result.Message = fmt.Sprintf("schema validation error: %v", err)
		return result
	}
	if validation.Valid() {
		result.Passed = true
		return result
	}

	var errs []string
	for _, desc := range validation.Errors() {
		errs = append(errs, desc.String())
	}
	result.Message = fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
	return result
}

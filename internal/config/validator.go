package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/filmdb-schema.json
var embeddedSchema []byte

const schemaURL = "https://filmdb.dev/schemas/config/v1/filmdb-schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// GetEmbeddedSchema returns the embedded configuration schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

// getCompiledSchema compiles the embedded schema once.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaDoc interface{}
		if err := json.Unmarshal(embeddedSchema, &schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		var err error
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateConfig validates parsed configuration data against the schema.
func ValidateConfig(data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(data) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "configuration is empty",
		})
		return result
	}

	schema, err := getCompiledSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "schema",
			Message: fmt.Sprintf("failed to load schema: %v", err),
		})
		return result
	}

	if err := schema.Validate(normalize(data)); err != nil {
		result.Valid = false
		var detailed *jsonschema.ValidationError
		if errors.As(err, &detailed) {
			result.Errors = convertValidationErrors(detailed)
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "/",
				Type:    "validation",
				Message: err.Error(),
			})
		}
	}

	return result
}

// normalize converts YAML integers to float64 so both formats reach the
// validator in the shape encoding/json produces.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}

// convertValidationErrors flattens the jsonschema error tree, keeping leaves.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		return []ValidationError{{
			Path:    formatInstanceLocation(err.InstanceLocation),
			Type:    extractErrorType(err),
			Message: err.Error(),
		}}
	}

	var out []ValidationError
	for _, cause := range err.Causes {
		out = append(out, convertValidationErrors(cause)...)
	}
	return out
}

// formatInstanceLocation formats the instance location as a JSON pointer.
func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

// extractErrorType maps a jsonschema message to a short error type.
func extractErrorType(err *jsonschema.ValidationError) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "missing propert"), strings.Contains(msg, "required"):
		return "required"
	case strings.Contains(msg, "additional properties"), strings.Contains(msg, "additionalproperties"):
		return "additionalProperties"
	case strings.Contains(msg, "must be one of"), strings.Contains(msg, "enum"):
		return "enum"
	case strings.Contains(msg, "minimum"), strings.Contains(msg, "maximum"),
		strings.Contains(msg, "must be >"), strings.Contains(msg, "must be <"):
		return "range"
	case strings.Contains(msg, "pattern"), strings.Contains(msg, "does not match"):
		return "pattern"
	case strings.Contains(msg, "got ") && strings.Contains(msg, "want "):
		return "type"
	default:
		return "validation"
	}
}

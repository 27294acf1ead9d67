package tool

import (
	"fmt"

	"github.com/fleveque/stock-assistant/internal/llm"
)

// Validate checks required fields and primitive property types. Nested
// schemas are not descended into.
func Validate(args map[string]any, schema *llm.Schema) error {
	if schema == nil {
		return nil
	}

	for _, field := range schema.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range args {
		prop, ok := schema.Properties[key]
		if !ok || prop == nil || prop.Type == "" {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case llm.TypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case llm.TypeNumber:
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return nil
		}
	case llm.TypeInteger:
		switch v := value.(type) {
		case int, int64, int32:
			return nil
		case float64:
			if v == float64(int64(v)) {
				return nil
			}
		}
	case llm.TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case llm.TypeObject:
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case llm.TypeArray:
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return nil
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

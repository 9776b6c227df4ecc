package ai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema builds a JSON schema for T suitable for structured
// output requests. Additional properties are disallowed and no $ref
// indirection is emitted, since providers reject both.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// GenerateSchemaFor builds a JSON schema for the dynamic value v. Used
// where the target type is only known at runtime.
func GenerateSchemaFor(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// UnmarshalFlexible unmarshals data into out, first as-is and then after
// running the payload through a JSON repairer. Models occasionally emit
// trailing commas, unquoted keys or stray prose around the object.
func UnmarshalFlexible(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return fmt.Errorf("failed to repair JSON: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to unmarshal repaired JSON: %w", err)
	}
	return nil
}

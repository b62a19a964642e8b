// Package schema renders configuration structs as JSON schema and inspects
// their struct tags.
package schema

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// SecretFields returns the json names of the fields tagged `secret:"true"`.
// Nested structs are not inspected.
func SecretFields(v any) []string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	fields := make([]string, 0)

	for i := range t.NumField() {
		field := t.Field(i)
		if field.Tag.Get("secret") != "true" {
			continue
		}

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = field.Name
		}

		fields = append(fields, name)
	}

	return fields
}

// Redact returns a copy of values with every secret key masked.
func Redact(values map[string]any, secretFields []string) map[string]any {
	redacted := make(map[string]any, len(values))
	for k, v := range values {
		redacted[k] = v
	}

	for _, key := range secretFields {
		if v, ok := redacted[key]; ok && v != "" {
			redacted[key] = "********"
		}
	}

	return redacted
}

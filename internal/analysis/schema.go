package analysis

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"google.golang.org/genai"
)

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func stringListSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

// ResponseSchema is declared to the service and used again to validate what
// comes back, so the two can never drift apart.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tytul":            stringSchema(),
			"opis":             stringSchema(),
			"detale":           stringListSchema(),
			"ocena_techniczna": stringSchema(),
			"jakosc_budowy":    stringSchema(),
			"komponenty": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"nazwa": stringSchema(),
						"typ":   stringSchema(),
						"opis":  stringSchema(),
					},
					Required: []string{"nazwa", "typ", "opis"},
				},
			},
			"ceny_szacunkowe": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"element": stringSchema(),
						"cena":    stringSchema(),
						"zrodlo":  stringSchema(),
					},
					Required: []string{"element", "cena"},
				},
			},
			"oferta": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"punkty_kluczowe": stringListSchema(),
					"rekomendacje":    stringListSchema(),
				},
				Required: []string{"punkty_kluczowe", "rekomendacje"},
			},
			"email_draft":             stringSchema(),
			"zgodnosc_z_normami":      stringSchema(),
			"klauzula_bezpieczenstwa": stringSchema(),
		},
		Required: []string{
			"tytul", "opis", "detale", "ocena_techniczna", "jakosc_budowy", "komponenty",
			"ceny_szacunkowe", "oferta", "email_draft", "zgodnosc_z_normami", "klauzula_bezpieczenstwa",
		},
	}
}

// Validate checks a decoded JSON value against the schema: required keys
// present and non-null, and every known value of the declared type.
// Properties not declared in the schema are ignored.
func Validate(schema *genai.Schema, value any) error {
	return validate(schema, value, "$")
}

func validate(schema *genai.Schema, value any, path string) error {
	if value == nil {
		return fmt.Errorf("%s: null value", path)
	}

	switch schema.Type {
	case genai.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %s", path, jsonKind(value))
		}
		for _, key := range schema.Required {
			v, exists := obj[key]
			if !exists {
				return fmt.Errorf("%s: missing required field %q", path, key)
			}
			if v == nil {
				return fmt.Errorf("%s.%s: null value", path, key)
			}
		}
		for _, key := range slices.Sorted(maps.Keys(schema.Properties)) {
			prop := schema.Properties[key]
			v, exists := obj[key]
			if !exists {
				continue
			}
			if err := validate(prop, v, path+"."+key); err != nil {
				return err
			}
		}
	case genai.TypeArray:
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %s", path, jsonKind(value))
		}
		if schema.Items == nil {
			return nil
		}
		for i, item := range list {
			if err := validate(schema.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case genai.TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %s", path, jsonKind(value))
		}
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ParseResult decodes the model's text into a Result. Any deviation from the
// declared schema yields ErrMalformedResponse; no field is defaulted.
func ParseResult(text string) (*Result, error) {
	text = strings.TrimSpace(text)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}
	if err := Validate(ResponseSchema(), raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

// Package translate owns the boundary between technical and user vocabulary.
//
// The registry defines what fields and enum values exist; this package defines
// how they are named for humans. Nothing else in the system may render a
// technical identifier to a user or accept a user label from one, so any
// vocabulary leak is a bug here rather than a prompt-engineering problem.
//
// Information Hiding:
// - Label derivation rules and irregular-case overrides hidden
// - Mapping tables built lazily from the registry, never stored by callers
package translate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"

	"github.com/carebridge/carebridge/tools"
)

var (
	// ErrUnmappableField is returned when user input names a field or enum
	// label with no defined mapping. Never guessed around.
	ErrUnmappableField = errors.New("unmappable field")
)

// LabeledValue is one user-format key/value pair, in schema order.
type LabeledValue struct {
	Label string
	Value string
}

// Translator performs the bidirectional technical/user mapping for the tools
// of one registry.
type Translator struct {
	registry *tools.Registry
}

// New creates a translator backed by the given registry.
func New(registry *tools.Registry) *Translator {
	return &Translator{registry: registry}
}

// ToUser maps a technical argument set to labeled user-format pairs.
// Pairs come out in schema field order; absent fields are skipped.
func (t *Translator) ToUser(toolName string, args tools.Args) ([]LabeledValue, error) {
	def, err := t.registry.Get(toolName)
	if err != nil {
		return nil, err
	}

	pairs := make([]LabeledValue, 0, len(args))
	for _, field := range def.Fields {
		value, ok := args[field.Name]
		if !ok {
			continue
		}
		if field.Type == tools.FieldEnum {
			label, err := t.enumLabelForToken(field, value)
			if err != nil {
				return nil, err
			}
			value = label
		}
		pairs = append(pairs, LabeledValue{Label: FieldLabel(field), Value: value})
	}
	return pairs, nil
}

// ToTechnical maps user-labeled input back to a technical argument set.
// Keys may be user labels or technical names (the language capability is shown
// technical names only, but its extractions are not trusted). Values are
// normalized (dates, times) and enum labels resolved to their exact tokens.
func (t *Translator) ToTechnical(toolName string, input map[string]string) (tools.Args, error) {
	def, err := t.registry.Get(toolName)
	if err != nil {
		return nil, err
	}

	args := make(tools.Args, len(input))
	for key, value := range input {
		field, ok := ResolveField(def, key)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field or label %q", ErrUnmappableField, toolName, key)
		}

		normalized, err := NormalizeValue(field.Type, value)
		if err != nil {
			return nil, err
		}

		if field.Type == tools.FieldEnum {
			token, err := ResolveEnumToken(field, normalized)
			if err != nil {
				return nil, err
			}
			normalized = token
		}
		args[field.Name] = normalized
	}
	return args, nil
}

// FieldLabel returns the user-facing label for a field: the definition's
// override when present, otherwise derived from the technical name
// (careWorker_name -> "Care Worker Name").
func FieldLabel(field tools.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return titleWords(strings.Split(strcase.SnakeCase(field.Name), "_"))
}

// EnumLabel returns the user-facing label for an enum value: the override
// when present, otherwise derived from the token (WEEKLY_CHECKUP -> "Weekly
// Checkup").
func EnumLabel(value tools.EnumValue) string {
	if value.Label != "" {
		return value.Label
	}
	return titleWords(strings.Split(value.Token, "_"))
}

// EnumLabels returns the user-facing labels of all allowed values of a field.
func EnumLabels(field tools.Field) []string {
	labels := make([]string, 0, len(field.Enum))
	for _, v := range field.Enum {
		labels = append(labels, EnumLabel(v))
	}
	return labels
}

// ResolveField finds a field by technical name or user label, case-insensitively.
func ResolveField(def tools.Definition, key string) (tools.Field, bool) {
	trimmed := strings.TrimSpace(key)
	for _, field := range def.Fields {
		if strings.EqualFold(field.Name, trimmed) {
			return field, true
		}
		if strings.EqualFold(FieldLabel(field), trimmed) {
			return field, true
		}
	}
	return tools.Field{}, false
}

// ResolveEnumToken maps a user label or exact token to the enum's technical
// token. Unrecognized values fail; the reverse direction must reproduce the
// exact token, never an approximation.
func ResolveEnumToken(field tools.Field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	for _, v := range field.Enum {
		if v.Token == trimmed {
			return v.Token, nil
		}
		if strings.EqualFold(EnumLabel(v), trimmed) {
			return v.Token, nil
		}
	}
	return "", fmt.Errorf("%w: no enum value of %q matches %q", ErrUnmappableField, field.Name, value)
}

func (t *Translator) enumLabelForToken(field tools.Field, token string) (string, error) {
	for _, v := range field.Enum {
		if v.Token == token {
			return EnumLabel(v), nil
		}
	}
	return "", fmt.Errorf("%w: field %q has no token %q", ErrUnmappableField, field.Name, token)
}

// titleWords joins words capitalized ("care", "worker" -> "Care Worker").
func titleWords(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		w = strings.ToLower(w)
		out = append(out, strings.ToUpper(w[:1])+w[1:])
	}
	return strings.Join(out, " ")
}

// Package tools provides the action registry for the conversational orchestrator.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Parameter schemas carry both technical identifiers and user-facing labels;
//   only the translate package reads the labels
// - Effect execution details hidden behind the Effect function type
package tools

import (
	"context"
	"fmt"
	"strings"
)

// FieldType is the semantic type of a tool parameter.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldEmail  FieldType = "email"
	FieldDate   FieldType = "date" // canonical YYYY-MM-DD
	FieldTime   FieldType = "time" // canonical 24-hour HH:MM
	FieldEnum   FieldType = "enum"
)

// EnumValue is one allowed value of an enumerated field.
// Token is the technical UPPER_SNAKE_CASE identifier; Label overrides the
// mechanically derived user-facing name for irregular cases
// ("Family and Friends" rather than "Family And Friends").
type EnumValue struct {
	Token string
	Label string
}

// Field defines one parameter of a tool: its technical name, semantic type,
// and the user-facing label the translate package shows for it.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Label       string // user-facing label override; derived from Name when empty
	Description string
	Enum        []EnumValue // allowed values when Type == FieldEnum
}

// HasToken reports whether token is an allowed value of this enumerated field.
func (f Field) HasToken(token string) bool {
	for _, v := range f.Enum {
		if v.Token == token {
			return true
		}
	}
	return false
}

// Args is a technical-format argument set: technical field name to value.
// Values are canonical strings (enum tokens, HH:MM times, ISO dates).
type Args map[string]string

// Clone returns an independent copy of the argument set.
func (a Args) Clone() Args {
	copied := make(Args, len(a))
	for k, v := range a {
		copied[k] = v
	}
	return copied
}

// Result is the outcome of a successful effect execution.
type Result struct {
	Summary string `json:"summary"`        // technical summary, translated before display
	Data    Args   `json:"data,omitempty"` // technical key/value payload
}

// Effect is the collaborator-supplied operation behind a tool. It receives a
// fully validated technical argument set and either applies its effect or
// reports failure; effects must not partially apply without returning an error.
type Effect func(ctx context.Context, args Args) (Result, error)

// Definition describes one invocable action. Immutable after registration.
type Definition struct {
	Name        string
	Description string
	Fields      []Field // ordered; order drives prompt and display order
	Mutating    bool    // mutating tools require confirmation before execution
	Effect      Effect
}

// Field returns the field with the given technical name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MissingRequired returns the required fields absent from args, in schema order.
func (d Definition) MissingRequired(args Args) []string {
	var missing []string
	for _, f := range d.Fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(args[f.Name]) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Validate checks each present argument against its field schema.
// Completeness is the caller's concern (see MissingRequired); this only
// reports values that are present but invalid.
func (d Definition) Validate(args Args) error {
	for name, value := range args {
		field, ok := d.Field(name)
		if !ok {
			return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, d.Name, name)
		}
		if field.Type == FieldEnum && !field.HasToken(value) {
			return &InvalidEnumError{Tool: d.Name, Field: name, Value: value}
		}
	}
	return nil
}

// InvalidEnumError reports a value outside an enumerated field's allowed set.
type InvalidEnumError struct {
	Tool  string
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid value %q for enum field %q of tool %q", e.Value, e.Field, e.Tool)
}

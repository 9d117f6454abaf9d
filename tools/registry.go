// Tool registration and lookup.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateTool is returned when registering a name that already exists.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned when looking up a name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrUnknownField is returned when an argument names a field the tool lacks.
	ErrUnknownField = errors.New("unknown field")
)

// Registry manages the catalogue of available actions. It is populated at
// startup and treated as read-only afterwards; the mutex only guards the
// registration phase.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Definition),
	}
}

// Register adds a new tool to the registry.
// Returns ErrDuplicateTool if a tool with the same name already exists.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Get returns a tool definition by name.
// Returns ErrUnknownTool if the name was never registered.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.tools[name]
	if !exists {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return def, nil
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered definitions, sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, def := range r.tools {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Catalogue returns a formatted description of all tools for LLM prompts.
// Strictly technical vocabulary: field names and enum tokens, never labels.
func (r *Registry) Catalogue() string {
	var descriptions []string
	for _, def := range r.List() {
		var params []string
		for _, f := range def.Fields {
			required := "optional"
			if f.Required {
				required = "required"
			}
			line := fmt.Sprintf("  - %s (%s): %s [%s]", f.Name, f.Type, f.Description, required)
			if f.Type == FieldEnum {
				tokens := make([]string, 0, len(f.Enum))
				for _, v := range f.Enum {
					tokens = append(tokens, v.Token)
				}
				line += fmt.Sprintf(" allowed: %s", strings.Join(tokens, ", "))
			}
			params = append(params, line)
		}

		kind := "read-only"
		if def.Mutating {
			kind = "mutating"
		}
		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s (%s)\nDescription: %s\nParameters:\n%s",
			def.Name, kind, def.Description, strings.Join(params, "\n")))
	}

	return strings.Join(descriptions, "\n\n")
}

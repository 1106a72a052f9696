package pipeline

import (
	"fmt"
	"strconv"
)

// ParameterKind is the declared type of an external parameter
type ParameterKind string

const (
	ParameterString  ParameterKind = "string"
	ParameterNumber  ParameterKind = "number"
	ParameterBoolean ParameterKind = "boolean"
)

// ParameterDefinition is the declarative schema for one external parameter:
// its name, kind and validation metadata. Definitions are walked by binders;
// no runtime type introspection is involved.
type ParameterDefinition struct {
	Name     string
	Kind     ParameterKind
	Required bool
	Default  string
}

// ParameterBinder resolves one named external value into a task's own
// configuration surface before the task runs.
type ParameterBinder interface {
	Bind(values map[string]string, defs []ParameterDefinition) error
}

// NamedParameterBinder binds a single named value through an assignment
// callback declared by the task variant.
type NamedParameterBinder struct {
	Parameter string
	Required  bool
	Default   string
	Assign    func(value string)
}

// Bind resolves the named value, falling back to defaults, validating it
// against its definition's kind, and assigning it on success. A missing
// required value is a binder-level failure.
func (b *NamedParameterBinder) Bind(values map[string]string, defs []ParameterDefinition) error {
	def := findDefinition(defs, b.Parameter)

	value, ok := values[b.Parameter]
	if !ok {
		switch {
		case def != nil && def.Default != "":
			value = def.Default
		case b.Default != "":
			value = b.Default
		case b.Required || (def != nil && def.Required):
			return fmt.Errorf("required parameter %q has no value", b.Parameter)
		default:
			return nil
		}
	}

	if def != nil {
		if err := validateKind(value, def.Kind); err != nil {
			return fmt.Errorf("parameter %q: %w", b.Parameter, err)
		}
	}

	b.Assign(value)
	return nil
}

func findDefinition(defs []ParameterDefinition, name string) *ParameterDefinition {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i]
		}
	}
	return nil
}

func validateKind(value string, kind ParameterKind) error {
	switch kind {
	case ParameterNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("value %q is not a number", value)
		}
	case ParameterBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("value %q is not a boolean", value)
		}
	}
	return nil
}

package ecs

import "fmt"

// DeclarationError reports a malformed component or resource declaration:
// an unknown attribute key, or a bad value for a known one. It always names
// the offending key.
type DeclarationError struct {
	Kind  string // "component" or "resource"
	Key   string // the offending attribute key
	Value string // what was given for it, for context
}

func (e *DeclarationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("ecs: %s declaration: unknown attribute %q", e.Kind, e.Key)
	}
	return fmt.Sprintf("ecs: %s declaration: invalid value %q for attribute %q", e.Kind, e.Value, e.Key)
}

// Declaration is the parsed (storage, change-detection) metadata for one
// component or resource kind, the sole input to Registry registration.
type Declaration struct {
	Storage         StorageClass
	ChangeDetection bool
}

// Attr is one attribute of a component/resource declaration. Key names the
// attribute ("storage", "change_detection", or an unrecognized key) so
// DeclareResource can reject "storage" outright; apply validates the value
// and mutates decl, returning ok=false and the offending value on error
// (empty for an unrecognized key, see Unknown).
type Attr struct {
	Key   string
	apply func(decl *Declaration) (badValue string, ok bool)
}

// Storage sets the `storage = "Dense" | "Sparse"` attribute. The value is
// case-sensitive; any other string is a declaration error naming "storage".
func Storage(value string) Attr {
	return Attr{
		Key: "storage",
		apply: func(decl *Declaration) (string, bool) {
			switch value {
			case "Dense":
				decl.Storage = Dense
				return "", true
			case "Sparse":
				decl.Storage = Sparse
				return "", true
			default:
				return value, false
			}
		},
	}
}

// ChangeDetection sets the `change_detection = <bool>` attribute. Go's type
// system already rejects non-bool values at compile time; this exists for
// symmetry with Storage and for callers building Attrs from untyped input
// (see Unknown).
func ChangeDetection(enabled bool) Attr {
	return Attr{
		Key: "change_detection",
		apply: func(decl *Declaration) (string, bool) {
			decl.ChangeDetection = enabled
			return "", true
		},
	}
}

// Unknown builds an Attr that always fails, for declaration call sites
// parsing attributes from an external, untyped source (e.g. a struct tag)
// that don't recognize key. The resulting error names the key.
func Unknown(key string) Attr {
	return Attr{
		Key: key,
		apply: func(*Declaration) (string, bool) {
			return "", false
		},
	}
}

func declare(kind string, rejectStorage bool, attrs []Attr) (Declaration, error) {
	decl := Declaration{Storage: Dense, ChangeDetection: true}
	for _, a := range attrs {
		if rejectStorage && a.Key == "storage" {
			return Declaration{}, &DeclarationError{Kind: kind, Key: "storage"}
		}
		badValue, ok := a.apply(&decl)
		if !ok {
			return Declaration{}, &DeclarationError{Kind: kind, Key: a.Key, Value: badValue}
		}
	}
	return decl, nil
}

// DeclareComponent parses a component kind's attributes into a
// Declaration, defaulting to Dense storage and change detection enabled.
// The first attribute error encountered is returned, naming the offending
// key.
func DeclareComponent(attrs ...Attr) (Declaration, error) {
	return declare("component", false, attrs)
}

// DeclareResource parses a resource kind's attributes. Resources accept
// only change_detection; any Storage attr is a declaration error naming
// "storage".
func DeclareResource(attrs ...Attr) (Declaration, error) {
	return declare("resource", true, attrs)
}

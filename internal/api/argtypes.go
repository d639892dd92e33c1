package api

import (
	"encoding/json"
	"fmt"
)

// ArgType is the closed set of argument types a tool may declare. It mirrors
// the JSON value space tools are called with: string, number, boolean,
// object, array. There is no "any" member; a tool that accepts arbitrary
// structures declares an object argument.
type ArgType int

const (
	ArgTypeString ArgType = iota
	ArgTypeNumber
	ArgTypeBoolean
	ArgTypeObject
	ArgTypeArray
)

// String returns the JSON schema type name for the argument type.
func (t ArgType) String() string {
	switch t {
	case ArgTypeString:
		return "string"
	case ArgTypeNumber:
		return "number"
	case ArgTypeBoolean:
		return "boolean"
	case ArgTypeObject:
		return "object"
	case ArgTypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// ParseArgType converts a JSON schema type name back into an ArgType.
func ParseArgType(s string) (ArgType, error) {
	switch s {
	case "string":
		return ArgTypeString, nil
	case "number":
		return ArgTypeNumber, nil
	case "boolean":
		return ArgTypeBoolean, nil
	case "object":
		return ArgTypeObject, nil
	case "array":
		return ArgTypeArray, nil
	default:
		return 0, fmt.Errorf("unknown argument type %q", s)
	}
}

// Matches reports whether a decoded JSON value conforms to the argument
// type. It is total: every value, including nil, yields a decision. Numeric
// values cover every Go numeric kind so that handlers and tests can pass
// native ints alongside the float64 values JSON decoding produces.
func (t ArgType) Matches(value interface{}) bool {
	if value == nil {
		return false
	}
	switch t {
	case ArgTypeString:
		_, ok := value.(string)
		return ok
	case ArgTypeNumber:
		return isNumber(value)
	case ArgTypeBoolean:
		_, ok := value.(bool)
		return ok
	case ArgTypeObject:
		_, ok := value.(map[string]interface{})
		return ok
	case ArgTypeArray:
		_, ok := value.([]interface{})
		return ok
	default:
		return false
	}
}

func isNumber(value interface{}) bool {
	switch value.(type) {
	case float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return true
	default:
		return false
	}
}

// valueTypeName names a decoded JSON value for error messages.
func valueTypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		if isNumber(value) {
			return "number"
		}
		return fmt.Sprintf("%T", value)
	}
}

// ValidateDefinition checks that a tool definition is well formed: non-empty
// name, non-nil handler, unique argument names, and defaults that conform to
// their declared types. The registry rejects definitions that fail here, so
// malformed tools are a startup fault rather than a runtime surprise.
func ValidateDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has empty name")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}
	seen := make(map[string]struct{}, len(def.Args))
	for _, spec := range def.Args {
		if spec.Name == "" {
			return fmt.Errorf("tool %s declares an argument with empty name", def.Name)
		}
		if _, dup := seen[spec.Name]; dup {
			return fmt.Errorf("tool %s declares argument %q twice", def.Name, spec.Name)
		}
		seen[spec.Name] = struct{}{}
		if spec.Type.String() == "unknown" {
			return fmt.Errorf("tool %s argument %q has unknown type", def.Name, spec.Name)
		}
		if spec.Default != nil && !spec.Type.Matches(spec.Default) {
			return fmt.Errorf("tool %s argument %q: default is %s, expected %s",
				def.Name, spec.Name, valueTypeName(spec.Default), spec.Type)
		}
	}
	return nil
}

// ValidateArguments checks an incoming argument map against the declared
// specs and returns a normalized copy: required arguments must be present
// and well typed, optional arguments get their defaults when absent, and
// every present argument must conform to its declared type. Argument names
// that no spec declares pass through untouched so that newer clients can
// talk to older servers.
func ValidateArguments(specs []ArgSpec, args map[string]interface{}) (map[string]interface{}, error) {
	normalized := make(map[string]interface{}, len(args)+len(specs))
	for name, value := range args {
		normalized[name] = value
	}
	for _, spec := range specs {
		value, present := normalized[spec.Name]
		if !present {
			if spec.Required {
				return nil, fmt.Errorf("missing required argument %q", spec.Name)
			}
			if spec.Default != nil {
				normalized[spec.Name] = spec.Default
			}
			continue
		}
		if !spec.Type.Matches(value) {
			return nil, fmt.Errorf("argument %q: expected %s, got %s",
				spec.Name, spec.Type, valueTypeName(value))
		}
	}
	return normalized, nil
}

package worker

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"imageoptim/internal/config"
)

// Kind enumerates the value types an option definition accepts.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindStrings
	KindEnum
)

// Definition describes one recognized option of a worker class: its name,
// default, value type, and an optional normalizer applied after type
// checking. Unknown options and type mismatches are fatal configuration
// errors at construction time.
type Definition struct {
	Name        string
	Kind        Kind
	Default     any
	Min, Max    int      // int bounds; both zero means unbounded
	Choices     []string // enum values
	Description string
	Normalize   func(any) any
}

// Schema is a worker class's full option surface.
type Schema []Definition

// commonSchema is appended to every worker schema.
var commonSchema = Schema{
	{
		Name:        "timeout",
		Kind:        KindFloat,
		Default:     0.0,
		Description: "seconds to allow the binary to run, 0 for no limit",
	},
}

// Resolve validates raw against the schema and returns the full option map
// with defaults filled in. The worker name is only used for error text.
func (s Schema) Resolve(worker string, raw map[string]any) (map[string]any, error) {
	full := append(append(Schema{}, s...), commonSchema...)

	byName := make(map[string]Definition, len(full))
	for _, def := range full {
		byName[def.Name] = def
	}
	for key := range raw {
		if _, ok := byName[key]; !ok {
			return nil, config.Errorf("worker %s: unknown option %q (known: %s)",
				worker, key, strings.Join(optionNames(full), ", "))
		}
	}

	resolved := make(map[string]any, len(full))
	for _, def := range full {
		value, present := raw[def.Name]
		if !present {
			resolved[def.Name] = def.Default
			continue
		}
		coerced, err := def.coerce(worker, value)
		if err != nil {
			return nil, err
		}
		if def.Normalize != nil {
			coerced = def.Normalize(coerced)
		}
		resolved[def.Name] = coerced
	}
	return resolved, nil
}

func (d Definition) coerce(worker string, value any) (any, error) {
	mismatch := func(want string) error {
		return config.Errorf("worker %s: option %q: expected %s, got %T", worker, d.Name, want, value)
	}

	switch d.Kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch("bool")
		}
		return b, nil

	case KindInt:
		n, ok := toInt(value)
		if !ok {
			return nil, mismatch("integer")
		}
		if d.Min != 0 || d.Max != 0 {
			if n < d.Min {
				n = d.Min
			}
			if n > d.Max {
				n = d.Max
			}
		}
		return n, nil

	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
		return nil, mismatch("number")

	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch("string")
		}
		return s, nil

	case KindStrings:
		list, err := toStrings(value)
		if err != nil {
			return nil, mismatch("array of strings")
		}
		return list, nil

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch("string")
		}
		for _, choice := range d.Choices {
			if s == choice {
				return s, nil
			}
		}
		return nil, config.Errorf("worker %s: option %q: %q is not one of %s",
			worker, d.Name, s, strings.Join(d.Choices, ", "))
	}
	return nil, mismatch("value")
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("non-string element %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not an array")
}

func optionNames(s Schema) []string {
	names := make([]string, 0, len(s))
	for _, def := range s {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

func optBool(opts map[string]any, name string) bool {
	b, _ := opts[name].(bool)
	return b
}

func optInt(opts map[string]any, name string) int {
	n, _ := opts[name].(int)
	return n
}

func optStrings(opts map[string]any, name string) []string {
	list, _ := opts[name].([]string)
	return list
}

func optTimeout(opts map[string]any) time.Duration {
	seconds, _ := opts["timeout"].(float64)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

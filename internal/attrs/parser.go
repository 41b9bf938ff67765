package attrs

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxInputLength caps the raw attribute string
	MaxInputLength = 2000
	// MaxAttributes caps the number of attributes in one spec
	MaxAttributes = 30
	// MaxEnumValues caps the number of values in enum(...)
	MaxEnumValues = 10

	// DefaultReferentialAction applies to ref(...) on delete and on update
	DefaultReferentialAction = "CASCADE"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Attribute is one parsed model field
type Attribute struct {
	Name        string
	Kind        Kind
	StorageType string
	// Spec is the type as written by the user, e.g. "bool" or "ref(users)"
	Spec       string
	Reference  *Reference
	EnumValues []string
}

// Reference describes the foreign key of a KindReference attribute
type Reference struct {
	Target   string
	OnDelete string
	OnUpdate string
}

// IsReference reports whether the attribute is a foreign key
func (a Attribute) IsReference() bool { return a.Kind == KindReference }

// IsEnum reports whether the attribute is an enum
func (a Attribute) IsEnum() bool { return a.Kind == KindEnum }

// String re-serializes the attribute as "name:spec"
func (a Attribute) String() string {
	return a.Name + ":" + a.Spec
}

// ParseError reports malformed attribute input
type ParseError struct {
	// Segment is the offending "name:type" segment, empty for whole-input errors
	Segment string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Segment == "" {
		return "invalid attributes: " + e.Msg
	}
	return fmt.Sprintf("invalid attribute %q: %s", e.Segment, e.Msg)
}

// Parse parses a comma separated attribute spec.
// Blank input yields an empty list. Commas inside parentheses do not split.
func Parse(raw string) ([]Attribute, error) {
	if len(raw) > MaxInputLength {
		return nil, &ParseError{Msg: fmt.Sprintf("input is %d characters, maximum is %d", len(raw), MaxInputLength)}
	}
	if strings.TrimSpace(raw) == "" {
		return []Attribute{}, nil
	}

	segments, err := splitTopLevel(raw)
	if err != nil {
		return nil, err
	}
	if len(segments) > MaxAttributes {
		return nil, &ParseError{Msg: fmt.Sprintf("%d attributes given, maximum is %d", len(segments), MaxAttributes)}
	}

	result := make([]Attribute, 0, len(segments))
	seen := make(map[string]bool, len(segments))
	for _, segment := range segments {
		attr, err := parseSegment(segment)
		if err != nil {
			return nil, err
		}
		if seen[attr.Name] {
			return nil, &ParseError{Segment: segment, Msg: fmt.Sprintf("duplicate attribute name %q", attr.Name)}
		}
		seen[attr.Name] = true
		result = append(result, attr)
	}

	return result, nil
}

// splitTopLevel splits on commas at paren depth zero and drops empty segments
func splitTopLevel(raw string) ([]string, error) {
	var segments []string
	depth := 0
	start := 0

	flush := func(end int) {
		if s := strings.TrimSpace(raw[start:end]); s != "" {
			segments = append(segments, s)
		}
	}

	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, &ParseError{Msg: fmt.Sprintf("unbalanced ')' at position %d", i)}
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, &ParseError{Msg: "unbalanced '(' in input"}
	}
	flush(len(raw))

	return segments, nil
}

func parseSegment(segment string) (Attribute, error) {
	name, typeSpec, ok := strings.Cut(segment, ":")
	if !ok {
		return Attribute{}, &ParseError{Segment: segment, Msg: "expected name:type"}
	}
	name = strings.TrimSpace(name)
	typeSpec = strings.TrimSpace(typeSpec)

	if !identifierPattern.MatchString(name) {
		return Attribute{}, &ParseError{Segment: segment, Msg: fmt.Sprintf("%q is not a valid identifier", name)}
	}
	if typeSpec == "" {
		return Attribute{}, &ParseError{Segment: segment, Msg: "missing type"}
	}

	attr := Attribute{Name: name, Spec: typeSpec}

	if arg, ok := callArgument(typeSpec, "ref"); ok {
		target := strings.TrimSpace(arg)
		if !identifierPattern.MatchString(target) {
			return Attribute{}, &ParseError{Segment: segment, Msg: fmt.Sprintf("reference target %q is not a valid identifier", target)}
		}
		attr.Kind = KindReference
		attr.Reference = &Reference{
			Target:   target,
			OnDelete: DefaultReferentialAction,
			OnUpdate: DefaultReferentialAction,
		}
	} else if arg, ok := callArgument(typeSpec, "enum"); ok {
		values, err := parseEnumValues(arg)
		if err != nil {
			return Attribute{}, &ParseError{Segment: segment, Msg: err.Error()}
		}
		attr.Kind = KindEnum
		attr.EnumValues = values
	} else {
		kind, ok := scalarTypes[strings.ToLower(typeSpec)]
		if !ok {
			return Attribute{}, &ParseError{Segment: segment, Msg: fmt.Sprintf("unknown type %q (supported: %s)", typeSpec, supportedTypes)}
		}
		attr.Kind = kind
	}

	attr.StorageType = attr.Kind.StorageType()
	return attr, nil
}

// callArgument matches "fn(arg)" case-insensitively on fn and returns arg
func callArgument(spec, fn string) (string, bool) {
	prefix := fn + "("
	if len(spec) < len(prefix)+1 || !strings.EqualFold(spec[:len(prefix)], prefix) || !strings.HasSuffix(spec, ")") {
		return "", false
	}
	return spec[len(prefix) : len(spec)-1], true
}

func parseEnumValues(arg string) ([]string, error) {
	parts := strings.Split(arg, "|")
	if len(parts) > MaxEnumValues {
		return nil, fmt.Errorf("enum has %d values, maximum is %d", len(parts), MaxEnumValues)
	}

	values := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		v := strings.TrimSpace(part)
		if v == "" {
			return nil, fmt.Errorf("enum values must not be empty")
		}
		if strings.Contains(v, ",") {
			return nil, fmt.Errorf("enum value %q contains ','; separate enum values with '|', e.g. enum(a|b)", v)
		}
		if seen[v] {
			return nil, fmt.Errorf("duplicate enum value %q", v)
		}
		seen[v] = true
		values = append(values, v)
	}

	return values, nil
}

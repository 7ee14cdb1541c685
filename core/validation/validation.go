// Package validation checks decoded request values against type descriptors
// field by field. It never stops at the first problem: every violation in
// the input is collected so the response detail can name all of them.
//
// Values are expected in the shape produced by decoding JSON with
// json.Decoder.UseNumber: objects as map[string]any, arrays as []any,
// numbers as json.Number.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/schemawire/core/schema"
)

// Resolver resolves named type references. *registry.Registry satisfies it.
type Resolver interface {
	Type(name string) (*schema.Type, bool)
}

// Violation is one field-level failure.
type Violation struct {
	Field  string // dotted path into the input; empty for the root value
	Reason string
}

// Result collects the violations found in one input.
type Result struct {
	Violations []Violation
}

// Valid reports whether no violations were found.
func (r *Result) Valid() bool { return len(r.Violations) == 0 }

// Add records a violation.
func (r *Result) Add(field, reason string) {
	r.Violations = append(r.Violations, Violation{Field: field, Reason: reason})
}

// Detail joins the violations into the wire detail string, one
// "field: reason" clause per violation.
func (r *Result) Detail() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		if v.Field == "" {
			parts[i] = v.Reason
			continue
		}
		parts[i] = v.Field + ": " + v.Reason
	}
	return strings.Join(parts, "; ")
}

// Validate checks value against t, resolving named references through res.
func Validate(res Resolver, t *schema.Type, value any) *Result {
	out := &Result{}
	validateValue(res, t, "", value, out)
	return out
}

func validateValue(res Resolver, t *schema.Type, path string, v any, out *Result) {
	switch t.Kind {
	case schema.KindOptional:
		if v == nil {
			return
		}
		validateValue(res, t.Elem, path, v, out)

	case schema.KindRef:
		inner, ok := res.Type(t.Name)
		if !ok {
			out.Add(path, fmt.Sprintf("references unregistered type %q", t.Name))
			return
		}
		validateValue(res, inner, path, v, out)

	case schema.KindPrimitive:
		if v == nil {
			out.Add(path, "must not be null")
			return
		}
		validatePrimitive(t.Name, path, v, out)

	case schema.KindEnum:
		s, ok := v.(string)
		if !ok {
			out.Add(path, "must be a string")
			return
		}
		for _, variant := range t.Variants {
			if s == variant {
				return
			}
		}
		out.Add(path, fmt.Sprintf("must be one of: %s", strings.Join(t.Variants, ", ")))

	case schema.KindList:
		arr, ok := v.([]any)
		if !ok {
			out.Add(path, "must be an array")
			return
		}
		for i, item := range arr {
			validateValue(res, t.Elem, fmt.Sprintf("%s[%d]", path, i), item, out)
		}

	case schema.KindRecord:
		obj, ok := v.(map[string]any)
		if !ok {
			out.Add(path, "must be an object")
			return
		}
		validateRecord(res, t, path, obj, out)

	default:
		out.Add(path, fmt.Sprintf("unsupported descriptor kind %q", t.Kind))
	}
}

func validateRecord(res Resolver, t *schema.Type, path string, obj map[string]any, out *Result) {
	known := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		known[f.Name] = true
		fpath := joinPath(path, f.Name)
		fv, present := obj[f.Name]
		if !present {
			if f.Required {
				out.Add(fpath, "required field is missing")
			}
			continue
		}
		if fv == nil {
			if !nullable(res, f.Type) {
				out.Add(fpath, "must not be null")
			}
			continue
		}
		validateValue(res, f.Type, fpath, fv, out)
	}

	// Unknown fields are rejected rather than silently dropped. Report them
	// in sorted order so the detail string is stable.
	var unknown []string
	for k := range obj {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		out.Add(joinPath(path, k), "unknown field")
	}
}

func validatePrimitive(name, path string, v any, out *Result) {
	switch name {
	case schema.PrimitiveString:
		if _, ok := v.(string); !ok {
			out.Add(path, "must be a string")
		}
	case schema.PrimitiveBool:
		if _, ok := v.(bool); !ok {
			out.Add(path, "must be a boolean")
		}
	case schema.PrimitiveInt:
		n, ok := v.(json.Number)
		if !ok {
			out.Add(path, "must be an integer")
			return
		}
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			out.Add(path, "must be an integer")
		}
	case schema.PrimitiveUint:
		n, ok := v.(json.Number)
		if !ok {
			out.Add(path, "must be a non-negative integer")
			return
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			out.Add(path, "must be a non-negative integer")
		}
	case schema.PrimitiveFloat:
		if _, ok := v.(json.Number); !ok {
			out.Add(path, "must be a number")
		}
	case schema.PrimitiveTimestamp:
		s, ok := v.(string)
		if !ok {
			out.Add(path, "must be an RFC 3339 timestamp string")
			return
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			out.Add(path, "must be an RFC 3339 timestamp")
		}
	default:
		out.Add(path, fmt.Sprintf("unsupported primitive %q", name))
	}
}

// nullable reports whether t admits null, following references.
func nullable(res Resolver, t *schema.Type) bool {
	for t != nil {
		switch t.Kind {
		case schema.KindOptional:
			return true
		case schema.KindRef:
			inner, ok := res.Type(t.Name)
			if !ok {
				return false
			}
			t = inner
		default:
			return false
		}
	}
	return false
}

// CoerceString converts a path or query parameter into the value shape the
// validator expects for t, so parameters flow through the same checks as
// body fields. The returned reason is empty on success.
func CoerceString(res Resolver, t *schema.Type, raw string) (any, string) {
	switch t.Kind {
	case schema.KindOptional:
		return CoerceString(res, t.Elem, raw)
	case schema.KindRef:
		inner, ok := res.Type(t.Name)
		if !ok {
			return nil, fmt.Sprintf("references unregistered type %q", t.Name)
		}
		return CoerceString(res, inner, raw)
	case schema.KindEnum:
		return raw, ""
	case schema.KindPrimitive:
		switch t.Name {
		case schema.PrimitiveString, schema.PrimitiveTimestamp:
			return raw, ""
		case schema.PrimitiveBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, "must be a boolean"
			}
			return b, ""
		case schema.PrimitiveInt:
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, "must be an integer"
			}
			return json.Number(raw), ""
		case schema.PrimitiveUint:
			if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
				return nil, "must be a non-negative integer"
			}
			return json.Number(raw), ""
		case schema.PrimitiveFloat:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return nil, "must be a number"
			}
			return json.Number(raw), ""
		}
	}
	return nil, fmt.Sprintf("cannot bind a parameter to a %s", t.String())
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

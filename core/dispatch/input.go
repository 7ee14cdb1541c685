package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/validation"
)

// Input is the logical operation input after path, query, and body values
// are merged and validated against the input descriptor.
type Input struct {
	// Fields holds the validated values keyed by field name, in the shape
	// produced by json decoding with UseNumber.
	Fields map[string]any

	raw []byte // merged input as JSON, for typed decoding
}

// Decode unmarshals the validated input into a typed request struct.
func (in Input) Decode(v any) error {
	if in.raw == nil {
		return nil
	}
	return json.Unmarshal(in.raw, v)
}

// buildInput assembles the field map for one dispatch. Body fields are
// decoded strictly; query parameters cover no-body methods; path parameters
// win over both. The merged map is validated field by field against the
// operation's input descriptor.
func (d *Dispatcher) buildInput(rt boundRoute, params map[string]string, query url.Values, body io.Reader, bodyAllowed bool) (Input, *apierr.Error) {
	if rt.input == nil {
		// No input type declared: the body, if any, is ignored.
		return Input{}, nil
	}

	fields := make(map[string]any)
	result := &validation.Result{}
	coerceFailed := map[string]bool{}

	if bodyAllowed && body != nil {
		raw, err := io.ReadAll(io.LimitReader(body, d.maxBody+1))
		if err != nil {
			return Input{}, apierr.Internal(fmt.Errorf("read request body: %w", err))
		}
		if int64(len(raw)) > d.maxBody {
			return Input{}, apierr.Validation("validation_error", "request validation failed",
				fmt.Sprintf("body: exceeds maximum size of %d bytes", d.maxBody))
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			var decoded any
			if err := dec.Decode(&decoded); err != nil {
				return Input{}, apierr.Validation("validation_error", "request validation failed",
					"body: malformed JSON")
			}
			obj, ok := decoded.(map[string]any)
			if !ok {
				return Input{}, apierr.Validation("validation_error", "request validation failed",
					"body: must be a JSON object")
			}
			fields = obj
		}
	}

	if !bodyAllowed && query != nil {
		// Declared fields may arrive as query parameters; anything else in
		// the query string is ignored.
		for _, f := range rt.input.Fields {
			if !query.Has(f.Name) {
				continue
			}
			v, reason := validation.CoerceString(d.reg, f.Type, query.Get(f.Name))
			if reason != "" {
				result.Add(f.Name, reason)
				coerceFailed[f.Name] = true
				continue
			}
			fields[f.Name] = v
		}
	}

	for name, raw := range params {
		f := fieldByName(rt.input, name)
		if f == nil {
			// Compile guarantees a field for every template parameter.
			return Input{}, apierr.Internal(fmt.Errorf("path parameter %q has no input field", name))
		}
		v, reason := validation.CoerceString(d.reg, f.Type, raw)
		if reason != "" {
			result.Add(name, reason)
			coerceFailed[name] = true
			continue
		}
		fields[name] = v
	}

	// A field that already failed coercion would otherwise be reported a
	// second time as missing.
	if vr := validation.Validate(d.reg, rt.input, fields); !vr.Valid() {
		for _, v := range vr.Violations {
			if coerceFailed[v.Field] {
				continue
			}
			result.Violations = append(result.Violations, v)
		}
	}
	if !result.Valid() {
		return Input{}, apierr.Validation("validation_error", "request validation failed", result.Detail())
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return Input{}, apierr.Internal(fmt.Errorf("merge input fields: %w", err))
	}
	return Input{Fields: fields, raw: raw}, nil
}

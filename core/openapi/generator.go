package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// Generator builds the OpenAPI projection of a registry.
type Generator struct {
	reg  *registry.Registry
	info Info
}

// NewGenerator creates a generator over reg.
func NewGenerator(reg *registry.Registry, info Info) *Generator {
	return &Generator{reg: reg, info: info}
}

// Generate walks the registry and produces the specification. Output is
// deterministic: slices come from registration order and every map is
// sorted by encoding/json on marshal.
func (g *Generator) Generate() (*Spec, error) {
	spec := &Spec{
		OpenAPI:    "3.0.3",
		Info:       g.info,
		Paths:      make(map[string]PathItem),
		Components: Components{Schemas: make(map[string]*Schema)},
	}

	for _, nt := range g.reg.Types() {
		s, err := g.convert(nt.Type)
		if err != nil {
			return nil, err
		}
		spec.Components.Schemas[nt.Name] = s
	}

	tags := map[string]bool{}
	for _, op := range g.reg.Operations() {
		rendered, err := g.operation(op)
		if err != nil {
			return nil, err
		}
		item := spec.Paths[op.Route]
		for _, m := range op.Methods {
			if err := setMethod(&item, m, rendered); err != nil {
				return nil, fmt.Errorf("operation %q: %w", op.Name, err)
			}
		}
		spec.Paths[op.Route] = item
		tags[tagOf(op.Name)] = true
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec.Tags = append(spec.Tags, Tag{Name: name})
	}
	return spec, nil
}

// JSON renders the specification with two-space indentation and a trailing
// newline, matching the canonical document's encoding discipline.
func (g *Generator) JSON() ([]byte, error) {
	spec, err := g.Generate()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encode openapi spec: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) operation(op schema.Operation) (*Operation, error) {
	out := &Operation{
		Tags:        []string{tagOf(op.Name)},
		Summary:     op.Description,
		OperationID: op.Name,
		Responses:   make(map[string]Response),
	}

	tmpl, err := schema.ParseRoute(op.Route)
	if err != nil {
		return nil, err
	}
	pathParams := map[string]bool{}
	for _, p := range tmpl.Params() {
		pathParams[p] = true
	}

	input, err := g.inputRecord(op)
	if err != nil {
		return nil, err
	}

	if input != nil {
		// Path parameters come from the route; on no-body methods the
		// remaining input fields arrive as query parameters, otherwise as
		// the JSON request body.
		bodily := hasBody(op.Methods)
		var bodyFields []schema.Field
		for _, f := range input.Fields {
			if pathParams[f.Name] {
				s, err := g.convert(f.Type)
				if err != nil {
					return nil, err
				}
				out.Parameters = append(out.Parameters, Parameter{
					Name: f.Name, In: "path", Required: true, Schema: s,
				})
				continue
			}
			if !bodily {
				s, err := g.convert(f.Type)
				if err != nil {
					return nil, err
				}
				out.Parameters = append(out.Parameters, Parameter{
					Name: f.Name, In: "query", Required: f.Required, Schema: s,
				})
				continue
			}
			bodyFields = append(bodyFields, f)
		}
		if bodily && len(bodyFields) > 0 {
			var bodySchema *Schema
			if op.Input.Kind == schema.KindRef && len(bodyFields) == len(input.Fields) {
				bodySchema = refSchema(op.Input.Name)
			} else {
				s, err := g.convert(schema.Record(bodyFields...))
				if err != nil {
					return nil, err
				}
				bodySchema = s
			}
			out.RequestBody = &RequestBody{
				Required: true,
				Content:  map[string]MediaType{"application/json": {Schema: bodySchema}},
			}
		}
	} else if len(tmpl.Params()) > 0 {
		return nil, fmt.Errorf("operation %q binds path parameters but declares no input", op.Name)
	}

	outSchema, err := g.convert(op.Output)
	if err != nil {
		return nil, err
	}
	out.Responses[strconv.Itoa(op.SuccessStatus())] = Response{
		Description: "Success",
		Content:     map[string]MediaType{"application/json": {Schema: outSchema}},
	}
	if op.Errors != nil {
		errSchema, err := g.convert(op.Errors)
		if err != nil {
			return nil, err
		}
		out.Responses["default"] = Response{
			Description: "Error",
			Content:     map[string]MediaType{"application/json": {Schema: errSchema}},
		}
	}
	return out, nil
}

// inputRecord resolves the operation input down to its record descriptor.
func (g *Generator) inputRecord(op schema.Operation) (*schema.Type, error) {
	t := op.Input
	for t != nil && t.Kind == schema.KindRef {
		inner, ok := g.reg.Type(t.Name)
		if !ok {
			return nil, fmt.Errorf("schema references unregistered type %q", t.Name)
		}
		t = inner
	}
	if t == nil {
		return nil, nil
	}
	if t.Kind != schema.KindRecord {
		return nil, fmt.Errorf("operation %q input must be a record, got %s", op.Name, t)
	}
	return t, nil
}

func (g *Generator) convert(t *schema.Type) (*Schema, error) {
	switch t.Kind {
	case schema.KindPrimitive:
		switch t.Name {
		case schema.PrimitiveString:
			return &Schema{Type: "string"}, nil
		case schema.PrimitiveBool:
			return &Schema{Type: "boolean"}, nil
		case schema.PrimitiveInt:
			return &Schema{Type: "integer", Format: "int64"}, nil
		case schema.PrimitiveUint:
			zero := float64(0)
			return &Schema{Type: "integer", Format: "int64", Minimum: &zero}, nil
		case schema.PrimitiveFloat:
			return &Schema{Type: "number", Format: "double"}, nil
		case schema.PrimitiveTimestamp:
			return &Schema{Type: "string", Format: "date-time"}, nil
		}
		return nil, fmt.Errorf("cannot project primitive %q", t.Name)

	case schema.KindEnum:
		variants := make([]string, len(t.Variants))
		copy(variants, t.Variants)
		return &Schema{Type: "string", Enum: variants}, nil

	case schema.KindRef:
		if _, ok := g.reg.Type(t.Name); !ok {
			return nil, fmt.Errorf("schema references unregistered type %q", t.Name)
		}
		return refSchema(t.Name), nil

	case schema.KindList:
		items, err := g.convert(t.Elem)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil

	case schema.KindOptional:
		inner, err := g.convert(t.Elem)
		if err != nil {
			return nil, err
		}
		if inner.Ref != "" {
			// $ref admits no sibling keywords in 3.0; wrap it.
			return &Schema{Nullable: true, AllOf: []*Schema{inner}}, nil
		}
		inner.Nullable = true
		return inner, nil

	case schema.KindRecord:
		s := &Schema{Type: "object", Properties: make(map[string]*Schema, len(t.Fields))}
		for _, f := range t.Fields {
			fs, err := g.convert(f.Type)
			if err != nil {
				return nil, err
			}
			s.Properties[f.Name] = fs
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s, nil
	}
	return nil, fmt.Errorf("cannot project descriptor kind %q", t.Kind)
}

func refSchema(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func setMethod(item *PathItem, method string, op *Operation) error {
	switch method {
	case "GET":
		item.Get = op
	case "POST":
		item.Post = op
	case "PUT":
		item.Put = op
	case "PATCH":
		item.Patch = op
	case "DELETE":
		item.Delete = op
	default:
		return fmt.Errorf("method %s has no projection", method)
	}
	return nil
}

func hasBody(methods []string) bool {
	for _, m := range methods {
		switch m {
		case "POST", "PUT", "PATCH":
			return true
		}
	}
	return false
}

func tagOf(opName string) string {
	if i := strings.Index(opName, "."); i > 0 {
		return opName[:i]
	}
	return opName
}

// Package render produces the canonical schema document from the registry.
// The encoding is deterministic: identical registry state yields
// byte-identical output across runs and processes, so external generators
// can diff and cache the document safely.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// FormatID identifies the document format for consumers.
const FormatID = "schemawire/v1"

// UnresolvedReferenceError reports a descriptor referencing a type that was
// never registered.
type UnresolvedReferenceError struct {
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("schema references unregistered type %q", e.Name)
}

// Info names and versions the rendered document.
type Info struct {
	Name    string
	Version string
}

// Document is the canonical schema document.
//
// Everything is a slice: types and operations appear in registration order,
// record fields in declaration order. No part of the document is ever
// rendered from map iteration.
type Document struct {
	Schema     string      `json:"schema"`
	Name       string      `json:"name"`
	Version    string      `json:"version,omitempty"`
	Types      []NamedType `json:"types"`
	Operations []Operation `json:"operations"`
}

// NamedType is a registered type with its node inlined.
type NamedType struct {
	Name string `json:"name"`
	TypeNode
}

// TypeNode is the rendered form of a type descriptor. Optionality is
// expressed as "nullable" on the node itself, never as a union.
type TypeNode struct {
	Kind     string    `json:"kind"`
	Format   string    `json:"format,omitempty"` // date-time for timestamps
	Ref      string    `json:"ref,omitempty"`
	Variants []string  `json:"variants,omitempty"`
	Fields   []Field   `json:"fields,omitempty"`
	Items    *TypeNode `json:"items,omitempty"`
	Nullable bool      `json:"nullable,omitempty"`
}

// Field is a rendered record field.
type Field struct {
	Name     string    `json:"name"`
	Type     *TypeNode `json:"type"`
	Required bool      `json:"required"`
}

// Operation is a rendered operation descriptor.
type Operation struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Route       string    `json:"route"`
	Methods     []string  `json:"methods"`
	Input       *TypeNode `json:"input,omitempty"`
	Output      *TypeNode `json:"output"`
	Errors      *TypeNode `json:"errors,omitempty"`
	Status      int       `json:"status"`
}

// Render builds the canonical document from reg. Every named reference in
// the registry must resolve or Render fails with UnresolvedReferenceError.
func Render(reg *registry.Registry, info Info) (*Document, error) {
	doc := &Document{
		Schema:     FormatID,
		Name:       info.Name,
		Version:    info.Version,
		Types:      make([]NamedType, 0, len(reg.Types())),
		Operations: make([]Operation, 0, len(reg.Operations())),
	}
	for _, nt := range reg.Types() {
		node, err := renderType(reg, nt.Type)
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, NamedType{Name: nt.Name, TypeNode: *node})
	}
	for _, op := range reg.Operations() {
		rendered, err := renderOperation(reg, op)
		if err != nil {
			return nil, err
		}
		doc.Operations = append(doc.Operations, rendered)
	}
	return doc, nil
}

func renderOperation(reg *registry.Registry, op schema.Operation) (Operation, error) {
	out := Operation{
		Name:        op.Name,
		Description: op.Description,
		Route:       op.Route,
		Methods:     op.Methods,
		Status:      op.SuccessStatus(),
	}
	var err error
	if op.Input != nil {
		if out.Input, err = renderType(reg, op.Input); err != nil {
			return Operation{}, err
		}
	}
	if out.Output, err = renderType(reg, op.Output); err != nil {
		return Operation{}, err
	}
	if op.Errors != nil {
		if out.Errors, err = renderType(reg, op.Errors); err != nil {
			return Operation{}, err
		}
	}
	return out, nil
}

func renderType(reg *registry.Registry, t *schema.Type) (*TypeNode, error) {
	switch t.Kind {
	case schema.KindPrimitive:
		if t.Name == schema.PrimitiveTimestamp {
			return &TypeNode{Kind: "string", Format: "date-time"}, nil
		}
		return &TypeNode{Kind: t.Name}, nil

	case schema.KindRef:
		if _, ok := reg.Type(t.Name); !ok {
			return nil, &UnresolvedReferenceError{Name: t.Name}
		}
		return &TypeNode{Kind: "ref", Ref: t.Name}, nil

	case schema.KindEnum:
		// Variants are already lowercase; declaration order is preserved.
		variants := make([]string, len(t.Variants))
		copy(variants, t.Variants)
		return &TypeNode{Kind: "enum", Variants: variants}, nil

	case schema.KindList:
		items, err := renderType(reg, t.Elem)
		if err != nil {
			return nil, err
		}
		return &TypeNode{Kind: "list", Items: items}, nil

	case schema.KindOptional:
		inner, err := renderType(reg, t.Elem)
		if err != nil {
			return nil, err
		}
		inner.Nullable = true
		return inner, nil

	case schema.KindRecord:
		node := &TypeNode{Kind: "record", Fields: make([]Field, 0, len(t.Fields))}
		for _, f := range t.Fields {
			ft, err := renderType(reg, f.Type)
			if err != nil {
				return nil, err
			}
			node.Fields = append(node.Fields, Field{Name: f.Name, Type: ft, Required: f.Required})
		}
		return node, nil
	}
	return nil, fmt.Errorf("cannot render descriptor kind %q", t.Kind)
}

// Encode marshals doc with two-space indentation and a trailing newline.
// The output is the byte-stable artifact exported to files and generators.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode schema document: %w", err)
	}
	return buf.Bytes(), nil
}

// Package registry holds the in-process catalog of type and operation
// descriptors. It is populated once during startup, frozen, and then serves
// as the single source of truth for both schema export and dispatch: what
// the rendered document says is exactly what the dispatcher does.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/artpar/schemawire/core/schema"
)

// DuplicateOperationError reports a second registration of an operation name.
type DuplicateOperationError struct {
	Name string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation %q already registered", e.Name)
}

// DuplicateTypeError reports a second registration of a type name.
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q already registered", e.Name)
}

// UnknownOperationError reports a lookup of an operation that was never
// registered.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// RegistryFrozenError reports a mutation attempted after Freeze.
type RegistryFrozenError struct {
	Op string
}

func (e *RegistryFrozenError) Error() string {
	return fmt.Sprintf("registry is frozen: cannot %s", e.Op)
}

// RouteConflictError reports two operations claiming the same method and
// route shape.
type RouteConflictError struct {
	Name   string
	Other  string
	Method string
	Route  string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("operation %q claims %s %s already registered by %q",
		e.Name, e.Method, e.Route, e.Other)
}

// NamedType pairs a registered type with its name.
type NamedType struct {
	Name string
	Type *schema.Type
}

// Registry is the descriptor catalog. Registration is append-only until
// Freeze; afterwards every mutation fails with RegistryFrozenError. Lookups
// are safe for concurrent use at any point.
type Registry struct {
	mu     sync.RWMutex
	frozen bool

	types     []NamedType
	typeIndex map[string]int

	ops     []schema.Operation
	opIndex map[string]int
	claims  map[string]string // "METHOD /shape" -> operation name
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		typeIndex: make(map[string]int),
		opIndex:   make(map[string]int),
		claims:    make(map[string]string),
	}
}

// RegisterType binds name to a type descriptor.
func (r *Registry) RegisterType(name string, t *schema.Type) error {
	if name == "" {
		return fmt.Errorf("type name is empty")
	}
	if t == nil {
		return fmt.Errorf("type %q has no descriptor", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryFrozenError{Op: fmt.Sprintf("register type %q", name)}
	}
	if _, ok := r.typeIndex[name]; ok {
		return &DuplicateTypeError{Name: name}
	}
	r.typeIndex[name] = len(r.types)
	r.types = append(r.types, NamedType{Name: name, Type: t})
	return nil
}

// Register binds an operation descriptor. The descriptor is validated, its
// route template parsed, and its method+route claims checked against every
// earlier registration. Nothing is recorded unless all checks pass.
func (r *Registry) Register(op schema.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	tmpl, err := schema.ParseRoute(op.Route)
	if err != nil {
		return fmt.Errorf("operation %q: %w", op.Name, err)
	}
	methods := normalizeMethods(op.Methods)
	op.Methods = methods

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryFrozenError{Op: fmt.Sprintf("register operation %q", op.Name)}
	}
	if _, ok := r.opIndex[op.Name]; ok {
		return &DuplicateOperationError{Name: op.Name}
	}
	shape := tmpl.Shape()
	for _, m := range methods {
		if other, ok := r.claims[m+" "+shape]; ok {
			return &RouteConflictError{Name: op.Name, Other: other, Method: m, Route: op.Route}
		}
	}
	for _, m := range methods {
		r.claims[m+" "+shape] = op.Name
	}
	r.opIndex[op.Name] = len(r.ops)
	r.ops = append(r.ops, op)
	return nil
}

// Freeze marks the registry immutable. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolve returns the operation registered under name.
func (r *Registry) Resolve(name string) (schema.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.opIndex[name]
	if !ok {
		return schema.Operation{}, &UnknownOperationError{Name: name}
	}
	return r.ops[i], nil
}

// Type returns the type registered under name.
func (r *Registry) Type(name string) (*schema.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.typeIndex[name]
	if !ok {
		return nil, false
	}
	return r.types[i].Type, true
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []NamedType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NamedType, len(r.types))
	copy(out, r.types)
	return out
}

// Operations returns the registered operations in registration order.
func (r *Registry) Operations() []schema.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	seen := map[string]bool{}
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

package schema

import (
	"fmt"
	"net/http"
	"strings"
)

// Operation describes one callable API operation: a unique name, the route
// and methods it is served on, and the types flowing through it. Operations
// are registered once and drive both the schema document and dispatch.
type Operation struct {
	Name        string
	Description string
	Route       string   // template like /users/{id}
	Methods     []string // non-empty; normalized to upper case on registration
	Input       *Type    // nil when the operation takes no input
	Output      *Type
	Errors      *Type // declared error type
	Status      int   // success status; zero means 200
}

// SuccessStatus returns the status written for a successful dispatch.
func (op Operation) SuccessStatus() int {
	if op.Status == 0 {
		return http.StatusOK
	}
	return op.Status
}

// Validate checks that the descriptor is well formed enough to register.
// Route syntax is checked separately by ParseRoute.
func (op Operation) Validate() error {
	if strings.TrimSpace(op.Name) == "" {
		return fmt.Errorf("operation name is empty")
	}
	if len(op.Methods) == 0 {
		return fmt.Errorf("operation %q declares no methods", op.Name)
	}
	for _, m := range op.Methods {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("operation %q declares an empty method", op.Name)
		}
	}
	if !strings.HasPrefix(op.Route, "/") {
		return fmt.Errorf("operation %q route %q must start with /", op.Name, op.Route)
	}
	if op.Output == nil {
		return fmt.Errorf("operation %q declares no output type", op.Name)
	}
	return nil
}

// Package openapi projects the registry into an OpenAPI 3.0 specification.
// The projection exists for tooling that speaks OpenAPI (the docs UI, most
// client generators); the canonical document produced by core/render remains
// the primary contract.
package openapi

// Spec is an OpenAPI 3.0 specification document.
type Spec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
	Tags       []Tag               `json:"tags,omitempty"`
}

// Info provides API metadata.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathItem holds the operations served on one path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation is one method on one path.
type Operation struct {
	Tags        []string            `json:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	OperationID string              `json:"operationId,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter is a path or query parameter.
type Parameter struct {
	Name     string  `json:"name"`
	In       string  `json:"in"` // path or query
	Required bool    `json:"required,omitempty"`
	Schema   *Schema `json:"schema,omitempty"`
}

// RequestBody describes a JSON request body.
type RequestBody struct {
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content"`
}

// Response describes one response status.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType wraps a schema for one content type.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Components holds the named schemas.
type Components struct {
	Schemas map[string]*Schema `json:"schemas"`
}

// Tag groups operations in the docs UI.
type Tag struct {
	Name string `json:"name"`
}

// Schema is a JSON Schema node as OpenAPI 3.0 understands it. Optionality
// maps to Nullable; a nullable reference is wrapped in allOf because $ref
// admits no siblings.
type Schema struct {
	Type       string             `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Ref        string             `json:"$ref,omitempty"`
	Minimum    *float64           `json:"minimum,omitempty"`
	Nullable   bool               `json:"nullable,omitempty"`
	AllOf      []*Schema          `json:"allOf,omitempty"`
}

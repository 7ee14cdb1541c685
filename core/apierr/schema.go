package apierr

import (
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// TypeName is the registered name of the error record that every operation
// declares as its error type. Its shape mirrors Payload exactly.
const TypeName = "ApiError"

// RegisterSchema declares the shared error record into reg. Call it once,
// before any operation referencing TypeName registers.
func RegisterSchema(reg *registry.Registry) error {
	return reg.RegisterType(TypeName, schema.Record(
		schema.F("code", schema.String()),
		schema.F("message", schema.String()),
		schema.Opt("detail", schema.String()),
	))
}

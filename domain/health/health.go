// Package health provides the liveness report value type.
package health

import (
	"time"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// TypeStatus is the registered name of the health report record.
const TypeStatus = "HealthStatus"

// OpCheck is the liveness operation name.
const OpCheck = "health.check"

// Status is the liveness report returned by the health operation.
type Status struct {
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	Version   string    `json:"version"`
	Region    string    `json:"region,omitempty"`
}

// RegisterSchema declares the health record and operation into reg.
func RegisterSchema(reg *registry.Registry) error {
	err := reg.RegisterType(TypeStatus, schema.Record(
		schema.F("status", schema.String()),
		schema.F("checked_at", schema.Timestamp()),
		schema.F("version", schema.String()),
		schema.Opt("region", schema.String()),
	))
	if err != nil {
		return err
	}
	return reg.Register(schema.Operation{
		Name:        OpCheck,
		Description: "Report process liveness.",
		Route:       "/health",
		Methods:     []string{"GET"},
		Output:      schema.Ref(TypeStatus),
		Errors:      schema.Ref(apierr.TypeName),
	})
}

// Package app provides application services that implement operation handlers.
package app

import (
	"context"

	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/domain/health"
	"github.com/artpar/schemawire/ports"
)

// HealthService reports process liveness.
type HealthService struct {
	clock   ports.Clock
	version string
	region  string
}

// NewHealthService creates a new health service. Version and region are
// copied into every report; region may be empty and is then omitted from
// the wire form.
func NewHealthService(clock ports.Clock, version, region string) *HealthService {
	return &HealthService{clock: clock, version: version, region: region}
}

// RegisterHandlers binds the health operation onto d.
func (s *HealthService) RegisterHandlers(d *dispatch.Dispatcher) error {
	return d.Handle(health.OpCheck, dispatch.BindNoInput(s.Check))
}

// Check returns the liveness report. The timestamp is always UTC.
func (s *HealthService) Check(ctx context.Context) (health.Status, error) {
	return health.Status{
		Status:    "ok",
		CheckedAt: s.clock.Now().UTC(),
		Version:   s.version,
		Region:    s.region,
	}, nil
}

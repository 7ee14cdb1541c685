package bootstrap

import (
	"fmt"

	"github.com/artpar/schemawire/config"
	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/openapi"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/render"
	"github.com/artpar/schemawire/domain/health"
	"github.com/artpar/schemawire/domain/user"
)

// BuildRegistry declares every type and operation the service exposes and
// freezes the result. Registration order is rendering order, so new domains
// go after the ones already here.
func BuildRegistry() (*registry.Registry, error) {
	reg := registry.New()

	for _, register := range []func(*registry.Registry) error{
		apierr.RegisterSchema,
		health.RegisterSchema,
		user.RegisterSchema,
	} {
		if err := register(reg); err != nil {
			return nil, fmt.Errorf("build registry: %w", err)
		}
	}

	reg.Freeze()
	return reg, nil
}

// BuildDocuments wraps the canonical schema document and its OpenAPI
// projection in cached services. Both are rendered once here so a dangling
// type reference fails startup instead of the first document request.
func BuildDocuments(reg *registry.Registry, api config.APIConfig) (*render.Service, *render.Service, error) {
	schemaDoc := render.NewService(func() ([]byte, error) {
		doc, err := render.Render(reg, render.Info{Name: api.Name, Version: api.Version})
		if err != nil {
			return nil, err
		}
		return render.Encode(doc)
	})

	gen := openapi.NewGenerator(reg, openapi.Info{
		Title:       api.Name,
		Description: "Generated from the canonical schema registry.",
		Version:     api.Version,
	})
	openapiDoc := render.NewService(gen.JSON)

	if _, _, err := schemaDoc.Bytes(); err != nil {
		return nil, nil, fmt.Errorf("render schema document: %w", err)
	}
	if _, _, err := openapiDoc.Bytes(); err != nil {
		return nil, nil, fmt.Errorf("render openapi document: %w", err)
	}

	return schemaDoc, openapiDoc, nil
}

package http_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	apihttp "github.com/artpar/schemawire/adapters/http"
	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/core/openapi"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/render"
	"github.com/artpar/schemawire/core/schema"
	"github.com/artpar/schemawire/domain/health"
)

// setupShadowingRouter builds a router whose dispatcher carries operations
// registered on routes the router reserves for its own endpoints. The
// registry accepts such routes; the router decides precedence.
func setupShadowingRouter(t *testing.T) http.Handler {
	t.Helper()

	reg := registry.New()
	if err := apierr.RegisterSchema(reg); err != nil {
		t.Fatal(err)
	}
	if err := health.RegisterSchema(reg); err != nil {
		t.Fatal(err)
	}
	for _, op := range []schema.Operation{
		{
			Name:    "shadow.version",
			Route:   "/version",
			Methods: []string{"GET"},
			Output:  schema.Ref(health.TypeStatus),
		},
		{
			Name:    "shadow.schema",
			Route:   "/schema.json",
			Methods: []string{"GET"},
			Output:  schema.Ref(health.TypeStatus),
		},
	} {
		if err := reg.Register(op); err != nil {
			t.Fatal(err)
		}
	}
	reg.Freeze()

	logger := zerolog.Nop()
	d := dispatch.New(reg, logger, dispatch.Options{})
	shadowed := dispatch.BindNoInput(func(ctx context.Context) (health.Status, error) {
		return health.Status{Status: "shadowed"}, nil
	})
	for _, name := range []string{health.OpCheck, "shadow.version", "shadow.schema"} {
		if err := d.Handle(name, shadowed); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Compile(); err != nil {
		t.Fatal(err)
	}

	schemaSvc := render.NewService(func() ([]byte, error) {
		doc, err := render.Render(reg, render.Info{Name: "schemawire", Version: "test"})
		if err != nil {
			return nil, err
		}
		return render.Encode(doc)
	})
	openapiSvc := render.NewService(openapi.NewGenerator(reg, openapi.Info{
		Title:   "schemawire",
		Version: "test",
	}).JSON)

	return apihttp.NewRouter(apihttp.RouterConfig{
		Dispatcher:     d,
		Schema:         schemaSvc,
		OpenAPI:        openapiSvc,
		Logger:         logger,
		Version:        "test",
		MetricsHandler: promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	})
}

// Reserved paths are mounted before the dispatcher catch-all, so an
// operation registered on the same route never receives those requests.
func TestReservedPathsWinOverOperations(t *testing.T) {
	h := setupShadowingRouter(t)

	tests := []struct {
		path string
		want string
	}{
		{"/version", `"service"`},
		{"/schema.json", `"schemawire/v1"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, "GET", tt.path, "")
			if rec.Code != 200 {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			body := rec.Body.String()
			if strings.Contains(body, "shadowed") {
				t.Errorf("%s was served by the dispatcher: %s", tt.path, body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("%s body = %s, want it to contain %s", tt.path, body, tt.want)
			}
		})
	}
}

func TestMetricsPathNotDispatched(t *testing.T) {
	h := setupShadowingRouter(t)

	rec := do(t, h, "GET", "/metrics", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), `"code"`) {
		t.Errorf("metrics endpoint returned an API error body: %s", rec.Body)
	}
}

// Routes that are not reserved still fall through to the dispatcher.
func TestUnreservedPathsStillDispatch(t *testing.T) {
	h := setupShadowingRouter(t)

	rec := do(t, h, "GET", "/health", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "shadowed") {
		t.Errorf("health body = %s, want the dispatcher handler output", rec.Body)
	}
}

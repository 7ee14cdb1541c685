// Package dispatch executes API operations. It matches requests against the
// registered route templates, validates input against the same descriptors
// the schema document is rendered from, invokes the bound handler, and
// serializes the outcome. Every dispatch terminates in exactly one Response.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// Stage names the pipeline states. A Response reports the stage the
// pipeline reached: Serialized on success, or the stage that failed.
type Stage string

const (
	StageReceived   Stage = "received"
	StageMatched    Stage = "matched"
	StageValidated  Stage = "validated"
	StageExecuted   Stage = "executed"
	StageSerialized Stage = "serialized"
)

// Observer receives dispatch outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	DispatchStarted(operation string)
	DispatchFinished(operation, method string, status int, stage Stage, elapsed time.Duration)
}

// Request is the transport-independent request form.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   io.Reader
}

// Response is the single terminal outcome of a dispatch. Body is a complete
// JSON document: the serialized output on success, the error envelope
// otherwise.
type Response struct {
	Status int
	Body   []byte
	Stage  Stage
	Err    *apierr.Error // non-nil exactly when Body is an error envelope
}

// Options configures a Dispatcher.
type Options struct {
	// Observer receives per-dispatch metrics. Optional.
	Observer Observer
	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

const defaultMaxBody = 1 << 20

// Dispatcher routes requests to operation handlers. Configure it with
// Handle, then Compile once; after that it is safe for concurrent use.
type Dispatcher struct {
	reg      *registry.Registry
	log      zerolog.Logger
	obs      Observer
	maxBody  int64
	handlers map[string]Handler
	routes   []boundRoute
	byName   map[string]*boundRoute
	compiled bool
}

type boundRoute struct {
	op      schema.Operation
	tmpl    schema.RouteTemplate
	input   *schema.Type // operation input resolved to its record, nil when none
	handler Handler
}

// New creates a dispatcher over reg.
func New(reg *registry.Registry, log zerolog.Logger, opts Options) *Dispatcher {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Dispatcher{
		reg:      reg,
		log:      log.With().Str("component", "dispatch").Logger(),
		obs:      opts.Observer,
		maxBody:  maxBody,
		handlers: make(map[string]Handler),
	}
}

// Handle binds a handler to a registered operation. Unknown names fail with
// the registry's UnknownOperationError.
func (d *Dispatcher) Handle(operation string, h Handler) error {
	if _, err := d.reg.Resolve(operation); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("operation %q bound to a nil handler", operation)
	}
	if _, ok := d.handlers[operation]; ok {
		return fmt.Errorf("operation %q already has a handler", operation)
	}
	d.handlers[operation] = h
	return nil
}

// Compile checks that the registry is frozen, that every registered
// operation has a handler, and that every route parameter names an input
// field, then builds the route table. It must be called exactly once,
// before the first Dispatch.
func (d *Dispatcher) Compile() error {
	if d.compiled {
		return fmt.Errorf("dispatcher already compiled")
	}
	if !d.reg.Frozen() {
		return fmt.Errorf("registry must be frozen before dispatch")
	}
	ops := d.reg.Operations()
	d.routes = make([]boundRoute, 0, len(ops))
	d.byName = make(map[string]*boundRoute, len(ops))
	for _, op := range ops {
		h, ok := d.handlers[op.Name]
		if !ok {
			return fmt.Errorf("operation %q has no handler", op.Name)
		}
		tmpl, err := schema.ParseRoute(op.Route)
		if err != nil {
			return fmt.Errorf("operation %q: %w", op.Name, err)
		}
		input, err := d.inputRecord(op)
		if err != nil {
			return err
		}
		for _, p := range tmpl.Params() {
			if input == nil || fieldByName(input, p) == nil {
				return fmt.Errorf("operation %q binds path parameter %q to no input field", op.Name, p)
			}
		}
		d.routes = append(d.routes, boundRoute{op: op, tmpl: tmpl, input: input, handler: h})
	}
	for i := range d.routes {
		d.byName[d.routes[i].op.Name] = &d.routes[i]
	}
	d.compiled = true
	return nil
}

// Dispatch matches req against the route table and runs the pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	start := time.Now()
	operation := "unmatched"

	rt, params, ok := d.match(req.Method, req.Path)
	if !ok {
		resp := d.fail(StageMatched, apierr.NotFound("not_found",
			fmt.Sprintf("no operation matches %s %s", req.Method, req.Path)))
		d.finish(operation, req.Method, resp, start)
		return resp
	}
	operation = rt.op.Name
	if d.obs != nil {
		d.obs.DispatchStarted(operation)
	}

	resp := d.run(ctx, rt, params, req.Query, req.Body, hasBody(req.Method))
	d.finish(operation, req.Method, resp, start)
	return resp
}

// Call dispatches an operation addressed by name rather than by route: the
// RPC surface. Every input field, including the ones bound from the path on
// the REST surface, arrives in the JSON body.
func (d *Dispatcher) Call(ctx context.Context, operation string, body io.Reader) Response {
	start := time.Now()
	rt, ok := d.byName[operation]
	if !ok {
		resp := d.fail(StageMatched, apierr.NotFound("not_found",
			fmt.Sprintf("unknown operation %q", operation)))
		d.finish(operation, "POST", resp, start)
		return resp
	}
	if d.obs != nil {
		d.obs.DispatchStarted(operation)
	}
	resp := d.run(ctx, *rt, nil, nil, body, true)
	d.finish(operation, "POST", resp, start)
	return resp
}

// run executes the matched pipeline: validate, execute, serialize.
func (d *Dispatcher) run(ctx context.Context, rt boundRoute, params map[string]string, query url.Values, body io.Reader, bodyAllowed bool) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = d.fail(StageExecuted, apierr.Internal(fmt.Errorf("operation %s panicked: %v", rt.op.Name, r)))
		}
	}()

	in, aerr := d.buildInput(rt, params, query, body, bodyAllowed)
	if aerr != nil {
		return d.fail(StageValidated, aerr)
	}

	out, err := rt.handler(ctx, in)
	if err != nil {
		return d.fail(StageExecuted, apierr.From(err))
	}

	data, err := json.Marshal(out)
	if err != nil {
		return d.fail(StageSerialized, apierr.Internal(fmt.Errorf("serialize %s output: %w", rt.op.Name, err)))
	}
	return Response{Status: rt.op.SuccessStatus(), Body: data, Stage: StageSerialized}
}

func (d *Dispatcher) match(method, path string) (boundRoute, map[string]string, bool) {
	for _, rt := range d.routes {
		params, ok := rt.tmpl.Match(path)
		if !ok {
			continue
		}
		for _, m := range rt.op.Methods {
			if m == method {
				return rt, params, true
			}
		}
	}
	return boundRoute{}, nil, false
}

func (d *Dispatcher) fail(stage Stage, e *apierr.Error) Response {
	if e.Kind == apierr.KindInternal {
		d.log.Error().Err(e.Err).Str("stage", string(stage)).Msg("dispatch failed")
	}
	body, err := json.Marshal(e.Payload())
	if err != nil {
		// The payload is three strings; this cannot happen.
		body = []byte(`{"code":"internal","message":"internal server error"}`)
	}
	return Response{Status: e.Kind.HTTPStatus(), Body: body, Stage: stage, Err: e}
}

func (d *Dispatcher) finish(operation, method string, resp Response, start time.Time) {
	elapsed := time.Since(start)
	if d.obs != nil {
		d.obs.DispatchFinished(operation, method, resp.Status, resp.Stage, elapsed)
	}
	evt := d.log.Debug()
	if resp.Err != nil && resp.Err.Kind == apierr.KindInternal {
		evt = d.log.Error()
	}
	evt.Str("operation", operation).
		Str("method", method).
		Int("status", resp.Status).
		Str("stage", string(resp.Stage)).
		Dur("elapsed", elapsed).
		Msg("dispatch")
}

// inputRecord resolves the operation input down to its record descriptor.
func (d *Dispatcher) inputRecord(op schema.Operation) (*schema.Type, error) {
	t := op.Input
	for t != nil && t.Kind == schema.KindRef {
		inner, ok := d.reg.Type(t.Name)
		if !ok {
			return nil, fmt.Errorf("operation %q input references unregistered type %q", op.Name, t.Name)
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

func fieldByName(record *schema.Type, name string) *schema.Field {
	for i := range record.Fields {
		if record.Fields[i].Name == name {
			return &record.Fields[i]
		}
	}
	return nil
}

func hasBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

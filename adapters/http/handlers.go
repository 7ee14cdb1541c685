// Package http adapts the dispatch pipeline onto net/http.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/core/render"
)

// APIHandler serves the route-addressed surface. Every request becomes a
// dispatcher call; the dispatcher owns matching, validation, and errors.
type APIHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewAPIHandler creates the catch-all operation handler.
func NewAPIHandler(d *dispatch.Dispatcher) *APIHandler {
	return &APIHandler{dispatcher: d}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.dispatcher.Dispatch(r.Context(), dispatch.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   r.Body,
	})
	writeResponse(w, resp)
}

// RPCHandler serves the name-addressed surface at POST /rpc/{operation}.
// Path-bound fields of the route surface arrive in the body here.
type RPCHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewRPCHandler creates the RPC handler.
func NewRPCHandler(d *dispatch.Dispatcher) *RPCHandler {
	return &RPCHandler{dispatcher: d}
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	operation := chi.URLParam(r, "operation")
	resp := h.dispatcher.Call(r.Context(), operation, r.Body)
	writeResponse(w, resp)
}

// NewDocumentHandler serves a rendered document with ETag revalidation.
// The bytes are cached inside svc, so repeated requests are cheap and
// byte-identical.
func NewDocumentHandler(svc *render.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, etag, err := svc.Bytes()
		if err != nil {
			writeError(w, apierr.Internal(err))
			return
		}
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// NewVersionHandler reports the service name and build version.
func NewVersionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{
			Service: "schemawire",
			Version: version,
		})
	}
}

func writeResponse(w http.ResponseWriter, resp dispatch.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

func writeError(w http.ResponseWriter, e *apierr.Error) {
	body, err := json.Marshal(e.Payload())
	if err != nil {
		http.Error(w, `{"code":"internal","message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.HTTPStatus())
	w.Write(body)
}

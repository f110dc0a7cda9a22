package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-dashgrid/components/dashboard"
)

// Config mounts dashboard endpoints on a ServeMux.
type Config struct {
	Mux       *http.ServeMux
	Handlers  *Handlers
	Broadcast *dashboard.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
// Paths use ServeMux wildcards; {uid} and {panel} are required where present.
type RouteConfig struct {
	Document  string
	Variables string
	Repeats   string
	Rows      string
	Persist   string
	Panels    string
	Persisted string
	WebSocket string
	Events    string
}

// Register mounts the dashboard routes.
func Register(cfg Config) error {
	if cfg.Mux == nil {
		return errors.New("httpapi: mux is required")
	}
	if cfg.Handlers == nil {
		return errors.New("httpapi: handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := strings.TrimSuffix(cfg.BasePath, "/")
	h := cfg.Handlers
	handle := func(method, path string, fn func(http.ResponseWriter, *http.Request)) {
		cfg.Mux.HandleFunc(method+" "+base+path, fn)
	}

	if h.Load != nil {
		handle(http.MethodPut, routes.Document, func(w http.ResponseWriter, r *http.Request) {
			h.HandleLoadDocument(w, r, r.PathValue("uid"))
		})
	}
	if h.Select != nil {
		handle(http.MethodPost, routes.Variables, func(w http.ResponseWriter, r *http.Request) {
			h.HandleSelectVariable(w, r, r.PathValue("uid"))
		})
	}
	if h.Repeats != nil {
		handle(http.MethodPost, routes.Repeats, func(w http.ResponseWriter, r *http.Request) {
			h.HandleProcessRepeats(w, r, r.PathValue("uid"))
		})
	}
	if h.Toggle != nil {
		handle(http.MethodPost, routes.Rows, func(w http.ResponseWriter, r *http.Request) {
			h.HandleToggleRow(w, r, r.PathValue("uid"), r.PathValue("panel"))
		})
	}
	if h.Persist != nil {
		handle(http.MethodPost, routes.Persist, func(w http.ResponseWriter, r *http.Request) {
			h.HandlePersist(w, r, r.PathValue("uid"))
		})
	}
	if h.Panels != nil {
		handle(http.MethodGet, routes.Panels, func(w http.ResponseWriter, r *http.Request) {
			h.HandlePanels(w, r, r.PathValue("uid"))
		})
	}
	if h.Persisted != nil {
		handle(http.MethodGet, routes.Persisted, func(w http.ResponseWriter, r *http.Request) {
			h.HandlePersisted(w, r, r.PathValue("uid"))
		})
	}
	if cfg.Broadcast != nil {
		handle(http.MethodGet, routes.WebSocket, cfg.Broadcast.ServeWebSocket)
		handle(http.MethodGet, routes.Events, cfg.Broadcast.ServeSSE)
	}
	return nil
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Document == "" {
		routes.Document = "/dashboards/{uid}"
	}
	if routes.Variables == "" {
		routes.Variables = "/dashboards/{uid}/variables"
	}
	if routes.Repeats == "" {
		routes.Repeats = "/dashboards/{uid}/repeats"
	}
	if routes.Rows == "" {
		routes.Rows = "/dashboards/{uid}/rows/{panel}/toggle"
	}
	if routes.Persist == "" {
		routes.Persist = "/dashboards/{uid}/persist"
	}
	if routes.Panels == "" {
		routes.Panels = "/dashboards/{uid}/panels"
	}
	if routes.Persisted == "" {
		routes.Persisted = "/dashboards/{uid}/persisted"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboards/_ws"
	}
	if routes.Events == "" {
		routes.Events = "/dashboards/_events"
	}
	return routes
}

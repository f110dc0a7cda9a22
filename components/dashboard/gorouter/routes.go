package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/httpapi"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
)

// ActorResolver extracts the acting user id from a router.Context.
type ActorResolver func(router.Context) string

// Config wires go-router with the dashboard commands, queries and hooks.
type Config[T any] struct {
	Router        router.Router[T]
	Handlers      *httpapi.Handlers
	Broadcast     *dashboard.BroadcastHook
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Document  string
	Variables string
	Repeats   string
	Rows      string
	Persist   string
	Panels    string
	Persisted string
	WebSocket string
}

// Register mounts the dashboard REST and WebSocket routes on a go-router router.
// Only the commands and queries present in Handlers are mounted.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Handlers == nil {
		return errors.New("gorouter: handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/api"
	}
	actor := cfg.ActorResolver
	if actor == nil {
		actor = defaultActorResolver
	}
	h := cfg.Handlers
	group := cfg.Router.Group(base)

	if h.Load != nil {
		group.Put(routes.Document, router.WrapHandler(func(ctx router.Context) error {
			body := ctx.Body()
			if len(body) == 0 {
				return respondError(ctx, http.StatusBadRequest, errors.New("document body is required"))
			}
			input := commands.LoadDocumentInput{UID: ctx.Param("uid"), Document: body, ActorID: actor(ctx)}
			if err := h.Load.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusCreated, map[string]string{"status": "loaded"})
		}))
	}

	if h.Select != nil {
		group.Post(routes.Variables, router.WrapHandler(func(ctx router.Context) error {
			var payload struct {
				Variable string   `json:"variable"`
				Values   []string `json:"values"`
			}
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			input := commands.SelectVariableInput{
				UID:      ctx.Param("uid"),
				Variable: payload.Variable,
				Values:   payload.Values,
				ActorID:  actor(ctx),
			}
			if err := h.Select.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "selected"})
		}))
	}

	if h.Repeats != nil {
		group.Post(routes.Repeats, router.WrapHandler(func(ctx router.Context) error {
			input := commands.ProcessRepeatsInput{UID: ctx.Param("uid"), ActorID: actor(ctx)}
			if err := h.Repeats.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "repeated"})
		}))
	}

	if h.Toggle != nil {
		group.Post(routes.Rows, router.WrapHandler(func(ctx router.Context) error {
			id, err := strconv.Atoi(ctx.Param("panel"))
			if err != nil || id <= 0 {
				return respondError(ctx, http.StatusBadRequest, errors.New("panel id must be a positive integer"))
			}
			input := commands.ToggleRowInput{UID: ctx.Param("uid"), PanelID: id, ActorID: actor(ctx)}
			if err := h.Toggle.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "toggled"})
		}))
	}

	if h.Persist != nil {
		group.Post(routes.Persist, router.WrapHandler(func(ctx router.Context) error {
			input := commands.PersistDocumentInput{UID: ctx.Param("uid"), ActorID: actor(ctx)}
			if err := h.Persist.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "persisted"})
		}))
	}

	if h.Panels != nil {
		group.Get(routes.Panels, router.WrapHandler(func(ctx router.Context) error {
			view, err := h.Panels.Query(ctx.Context(), queries.DocumentInput{UID: ctx.Param("uid")})
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, view)
		}))
	}

	if h.Persisted != nil {
		group.Get(routes.Persisted, router.WrapHandler(func(ctx router.Context) error {
			persisted, err := h.Persisted.Query(ctx.Context(), queries.DocumentInput{UID: ctx.Param("uid")})
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, persisted)
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultActorResolver(ctx router.Context) string {
	if id, ok := ctx.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Document == "" {
		routes.Document = "/dashboards/:uid"
	}
	if routes.Variables == "" {
		routes.Variables = "/dashboards/:uid/variables"
	}
	if routes.Repeats == "" {
		routes.Repeats = "/dashboards/:uid/repeats"
	}
	if routes.Rows == "" {
		routes.Rows = "/dashboards/:uid/rows/:panel/toggle"
	}
	if routes.Persist == "" {
		routes.Persist = "/dashboards/:uid/persist"
	}
	if routes.Panels == "" {
		routes.Panels = "/dashboards/:uid/panels"
	}
	if routes.Persisted == "" {
		routes.Persisted = "/dashboards/:uid/persisted"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboards/ws"
	}
	return routes
}

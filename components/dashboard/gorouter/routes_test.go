package gorouter

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/httpapi"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
)

const fleetDashboard = `{
  "title": "Fleet",
  "schemaVersion": 16,
  "templating": {"list": [{"name": "apps", "multi": true, "current": {"text": "a", "value": ["a"]},
    "options": [{"text": "a", "value": "a", "selected": true}, {"text": "b", "value": "b", "selected": false}]}]},
  "panels": [
    {"id": 1, "type": "graph", "repeat": "apps", "gridPos": {"x": 0, "y": 0, "w": 24, "h": 3}},
    {"id": 2, "type": "row", "title": "Details", "gridPos": {"x": 0, "y": 3, "w": 24, "h": 1}},
    {"id": 3, "type": "text", "gridPos": {"x": 0, "y": 4, "w": 24, "h": 2}}
  ]
}`

func TestRegisterValidatesConfig(t *testing.T) {
	assert.Error(t, Register(Config[struct{}]{}))
	assert.Error(t, Register(Config[struct{}]{Router: newMockRouter()}))
}

func newRegisteredRouter(t *testing.T, hook *dashboard.BroadcastHook) *mockRouter {
	t.Helper()
	service := dashboard.NewService(dashboard.Options{})
	mock := newMockRouter()
	err := Register(Config[struct{}]{
		Router: mock,
		Handlers: &httpapi.Handlers{
			Load:      commands.NewLoadDocumentCommand(service, nil),
			Select:    commands.NewSelectVariableCommand(service, nil),
			Repeats:   commands.NewProcessRepeatsCommand(service, nil),
			Toggle:    commands.NewToggleRowCommand(service, nil),
			Persist:   commands.NewPersistDocumentCommand(service, nil),
			Panels:    queries.NewPanelsQuery(service),
			Persisted: queries.NewPersistedDocumentQuery(service),
		},
		Broadcast: hook,
	})
	require.NoError(t, err)
	return mock
}

func TestRegisterMountsDocumentRoutes(t *testing.T) {
	mock := newRegisteredRouter(t, dashboard.NewBroadcastHook())

	for _, key := range []string{
		"PUT:/api/dashboards/:uid",
		"POST:/api/dashboards/:uid/variables",
		"POST:/api/dashboards/:uid/repeats",
		"POST:/api/dashboards/:uid/rows/:panel/toggle",
		"POST:/api/dashboards/:uid/persist",
		"GET:/api/dashboards/:uid/panels",
		"GET:/api/dashboards/:uid/persisted",
	} {
		assert.Contains(t, mock.routes, key)
	}
	assert.Contains(t, mock.ws, "/api/dashboards/ws")
}

func TestRoutesDriveTheService(t *testing.T) {
	mock := newRegisteredRouter(t, nil)
	assert.Empty(t, mock.ws)

	ctx := newMockContext(fleetDashboard, map[string]string{"uid": "fleet"})
	ctx.locals["user_id"] = "ops@example.com"
	require.NoError(t, mock.routes["PUT:/api/dashboards/:uid"](ctx))
	assert.Equal(t, http.StatusCreated, ctx.status)

	ctx = newMockContext(`{"variable":"apps","values":["a","b"]}`, map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/variables"](ctx))
	assert.Equal(t, http.StatusOK, ctx.status)

	ctx = newMockContext("", map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["GET:/api/dashboards/:uid/panels"](ctx))
	assert.Equal(t, http.StatusOK, ctx.status)
	var view struct {
		Panels []map[string]any `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(ctx.response, &view))
	assert.Len(t, view.Panels, 4)

	ctx = newMockContext("", map[string]string{"uid": "fleet", "panel": "2"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/rows/:panel/toggle"](ctx))
	assert.Equal(t, http.StatusOK, ctx.status)

	ctx = newMockContext("", map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/persist"](ctx))
	assert.Equal(t, http.StatusAccepted, ctx.status)

	ctx = newMockContext("", map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["GET:/api/dashboards/:uid/persisted"](ctx))
	var persisted map[string]any
	require.NoError(t, json.Unmarshal(ctx.response, &persisted))
	assert.Len(t, persisted["panels"], 2)
}

func TestRoutesMapErrors(t *testing.T) {
	mock := newRegisteredRouter(t, nil)

	ctx := newMockContext("", map[string]string{"uid": "missing"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/repeats"](ctx))
	assert.Equal(t, http.StatusNotFound, ctx.status)
	assert.Contains(t, string(ctx.response), "document not found")

	ctx = newMockContext("", map[string]string{"uid": "fleet", "panel": "row"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/rows/:panel/toggle"](ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)

	ctx = newMockContext(`[1]`, map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["PUT:/api/dashboards/:uid"](ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)

	ctx = newMockContext(`{`, map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["POST:/api/dashboards/:uid/variables"](ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)
}

func TestRoutesResolveActor(t *testing.T) {
	var actors []string
	service := dashboard.NewService(dashboard.Options{ChangeHook: recordActors(&actors)})
	mock := newMockRouter()
	require.NoError(t, Register(Config[struct{}]{
		Router:        mock,
		Handlers:      &httpapi.Handlers{Load: commands.NewLoadDocumentCommand(service, nil)},
		ActorResolver: func(router.Context) string { return "resolver" },
		BasePath:      "/admin",
	}))

	ctx := newMockContext(fleetDashboard, map[string]string{"uid": "fleet"})
	require.NoError(t, mock.routes["PUT:/admin/dashboards/:uid"](ctx))

	assert.Equal(t, []string{"resolver"}, actors)
	assert.NotContains(t, mock.routes, "GET:/admin/dashboards/:uid/panels")
}

// --- Test helpers ---

type actorHook func(context.Context, dashboard.ChangeEvent) error

func (f actorHook) DocumentChanged(ctx context.Context, event dashboard.ChangeEvent) error {
	return f(ctx, event)
}

func recordActors(actors *[]string) dashboard.ChangeHook {
	return actorHook(func(_ context.Context, event dashboard.ChangeEvent) error {
		*actors = append(*actors, event.Actor)
		return nil
	})
}

// mockRouter records handlers by method and full path. Router methods the
// adapter does not call are left to the embedded nil interface.
type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	m.routes[method+":"+m.prefix+path] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.PUT), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	m.ws[m.prefix+path] = handler
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

func (mockRouteInfo) SetName(string) router.RouteInfo { return mockRouteInfo{} }

// routerContext aliases router.Context so the embedded field name does not
// collide with the mock's Context() method.
type routerContext = router.Context

type mockContext struct {
	routerContext
	ctx      context.Context
	body     []byte
	response []byte
	locals   map[any]any
	params   map[string]string
	status   int
}

func newMockContext(body string, params map[string]string) *mockContext {
	return &mockContext{
		ctx:    context.Background(),
		body:   []byte(body),
		locals: map[any]any{},
		params: params,
	}
}

func (m *mockContext) Context() context.Context { return m.ctx }

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.response = data
	return nil
}

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

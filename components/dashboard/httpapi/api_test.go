package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

func TestHandleSelectVariable(t *testing.T) {
	selectCmd := &stubCommander[commands.SelectVariableInput]{}
	api := &Handlers{Select: selectCmd}
	req := httptest.NewRequest(http.MethodPost, "/dashboards/fleet/variables", strings.NewReader(`{"variable":"apps","values":["a","b"]}`))
	req.Header.Set("X-Actor-ID", "user-1")
	rec := httptest.NewRecorder()

	api.HandleSelectVariable(rec, req, "fleet")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, commands.SelectVariableInput{UID: "fleet", Variable: "apps", Values: []string{"a", "b"}, ActorID: "user-1"}, selectCmd.last)
}

func TestHandleSelectVariableRejectsBadPayload(t *testing.T) {
	selectCmd := &stubCommander[commands.SelectVariableInput]{}
	api := &Handlers{Select: selectCmd}
	req := httptest.NewRequest(http.MethodPost, "/dashboards/fleet/variables", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	api.HandleSelectVariable(rec, req, "fleet")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, selectCmd.calls)
}

func TestHandleToggleRowValidatesPanelID(t *testing.T) {
	toggle := &stubCommander[commands.ToggleRowInput]{}
	api := &Handlers{Toggle: toggle, ActorResolver: func(*http.Request) string { return "resolver" }}

	rec := httptest.NewRecorder()
	api.HandleToggleRow(rec, httptest.NewRequest(http.MethodPost, "/", nil), "fleet", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	api.HandleToggleRow(rec, httptest.NewRequest(http.MethodPost, "/", nil), "fleet", "4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, commands.ToggleRowInput{UID: "fleet", PanelID: 4, ActorID: "resolver"}, toggle.last)
}

func TestHandlersMapErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", dashboard.ErrDocumentNotFound), http.StatusNotFound},
		{dashboard.ErrPanelNotFound, http.StatusNotFound},
		{dashboard.ErrNotRow, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		repeats := &stubCommander[commands.ProcessRepeatsInput]{err: tc.err}
		api := &Handlers{Repeats: repeats}
		rec := httptest.NewRecorder()

		api.HandleProcessRepeats(rec, httptest.NewRequest(http.MethodPost, "/", nil), "fleet")

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.err.Error(), body["error"])
	}
}

func TestRegisterValidatesConfig(t *testing.T) {
	assert.Error(t, Register(Config{}))
	assert.Error(t, Register(Config{Mux: http.NewServeMux()}))
}

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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := dashboard.NewService(dashboard.Options{})
	mux := http.NewServeMux()
	require.NoError(t, Register(Config{
		Mux:      mux,
		BasePath: "/api/",
		Handlers: &Handlers{
			Load:      commands.NewLoadDocumentCommand(service, nil),
			Select:    commands.NewSelectVariableCommand(service, nil),
			Repeats:   commands.NewProcessRepeatsCommand(service, nil),
			Toggle:    commands.NewToggleRowCommand(service, nil),
			Persist:   commands.NewPersistDocumentCommand(service, nil),
			Panels:    queries.NewPanelsQuery(service),
			Persisted: queries.NewPersistedDocumentQuery(service),
		},
		Broadcast: dashboard.NewBroadcastHook(),
	}))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func send(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutesEndToEnd(t *testing.T) {
	server := newTestServer(t)
	base := server.URL + "/api/dashboards/fleet"

	assert.Equal(t, http.StatusCreated, send(t, http.MethodPut, base, fleetDashboard).StatusCode)
	assert.Equal(t, http.StatusOK, send(t, http.MethodPost, base+"/variables", `{"variable":"apps","values":["a","b"]}`).StatusCode)

	resp := send(t, http.MethodGet, base+"/panels", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Iteration int64            `json:"iteration"`
		Panels    []map[string]any `json:"panels"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Panels, 4)
	assert.Equal(t, 1.0, view.Panels[1]["repeatPanelId"])

	assert.Equal(t, http.StatusOK, send(t, http.MethodPost, base+"/rows/2/toggle", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, send(t, http.MethodPost, base+"/rows/1/toggle", "").StatusCode)
	assert.Equal(t, http.StatusOK, send(t, http.MethodPost, base+"/repeats", "").StatusCode)
	assert.Equal(t, http.StatusAccepted, send(t, http.MethodPost, base+"/persist", "").StatusCode)

	resp = send(t, http.MethodGet, base+"/persisted", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var persisted map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&persisted))
	assert.Len(t, persisted["panels"], 2)

	assert.Equal(t, http.StatusNotFound, send(t, http.MethodGet, server.URL+"/api/dashboards/other/panels", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, send(t, http.MethodPut, server.URL+"/api/dashboards/bad", `[1]`).StatusCode)
}

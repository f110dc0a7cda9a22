package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
}

func (h *recordingHook) DocumentChanged(_ context.Context, event ChangeEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Reason)
	}
	return out
}

type rejectingValidator struct {
	calls int
}

func (v *rejectingValidator) Validate(map[string]any) error {
	v.calls++
	return errors.New("rejected")
}

func repeatDashboard(uid string) []byte {
	return []byte(`{
  "uid": "` + uid + `",
  "title": "Fleet",
  "schemaVersion": 16,
  "templating": {"list": [` + appsVariable("a", "b") + `]},
  "panels": [
    {"id": 1, "type": "graph", "repeat": "apps", "gridPos": {"x": 0, "y": 0, "w": 24, "h": 3}},
    {"id": 2, "type": "row", "title": "Details", "collapsed": false, "gridPos": {"x": 0, "y": 3, "w": 24, "h": 1}},
    {"id": 3, "type": "text", "gridPos": {"x": 0, "y": 4, "w": 24, "h": 2}}
  ]
}`)
}

func newTestService(hook ChangeHook, telemetry Telemetry) *Service {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewService(Options{
		ChangeHook: hook,
		Telemetry:  telemetry,
		Clock:      func() time.Time { return fixed },
	})
}

func TestServiceLoadExpandsRepeats(t *testing.T) {
	hook := &recordingHook{}
	telemetry := &recordingTelemetry{}
	service := newTestService(hook, telemetry)
	ctx := ContextWithActor(context.Background(), Actor{ID: "user-1"})

	doc, err := service.Load(ctx, "", repeatDashboard("fleet"))
	require.NoError(t, err)

	assert.Equal(t, "fleet", doc.UID)
	assert.Len(t, doc.Panels, 4)
	require.Len(t, hook.events, 1)
	event := hook.events[0]
	assert.Equal(t, ReasonLoad, event.Reason)
	assert.Equal(t, "user-1", event.Actor)
	assert.Equal(t, 1, event.Repeats.Created)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), event.At)
	assert.Equal(t, []string{"dashboard.document.load"}, telemetry.events)

	stored, err := service.Document(ctx, "fleet")
	require.NoError(t, err)
	assert.NotSame(t, doc, stored)
	assert.Equal(t, doc.PersistedForm(), stored.PersistedForm())
	assert.Equal(t, doc.Iteration(), stored.Iteration())
}

func TestServiceDocumentIsASnapshot(t *testing.T) {
	service := newTestService(nil, nil)
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	snapshot, err := service.Document(ctx, "fleet")
	require.NoError(t, err)
	snapshot.Panels[0].Title = "changed"
	snapshot.Panels = snapshot.Panels[:1]
	snapshot.Templating[0].Options[0].Selected = false

	again, err := service.Document(ctx, "fleet")
	require.NoError(t, err)
	assert.Len(t, again.Panels, 4)
	assert.NotEqual(t, "changed", again.Panels[0].Title)
	assert.True(t, again.Templating[0].Options[0].Selected)

	_, err = service.Document(ctx, "")
	assert.ErrorIs(t, err, errMissingUID)
}

func TestServiceLoadRequiresUID(t *testing.T) {
	service := newTestService(nil, nil)

	_, err := service.Load(context.Background(), "", []byte(`{"schemaVersion":16,"panels":[]}`))
	assert.ErrorIs(t, err, errMissingUID)

	_, err = service.Load(context.Background(), "x", []byte(`[]`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestServiceSelectVariable(t *testing.T) {
	hook := &recordingHook{}
	service := newTestService(hook, nil)
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	result, err := service.SelectVariable(ctx, "fleet", "apps", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Reused)

	view, err := service.Panels(ctx, "fleet")
	require.NoError(t, err)
	assert.Len(t, view.Panels, 5)
	assert.Equal(t, result.Iteration, view.Iteration)
	assertNoOverlap(t, view.Panels)
	assert.Equal(t, []string{ReasonLoad, ReasonSelect}, hook.reasons())
	assert.Equal(t, "apps", hook.events[1].Variable)

	_, err = service.SelectVariable(ctx, "fleet", "missing", "a")
	assert.ErrorIs(t, err, ErrVariableNotFound)
	_, err = service.SelectVariable(ctx, "nope", "apps", "a")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestServicePanelsReturnsCopies(t *testing.T) {
	service := newTestService(nil, nil)
	ctx := context.Background()
	doc, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	view, err := service.Panels(ctx, "fleet")
	require.NoError(t, err)
	view.Panels[0].Title = "changed"

	assert.Empty(t, doc.Panels[0].Title)
}

func TestServiceToggleRowAndProcessRepeats(t *testing.T) {
	hook := &recordingHook{}
	service := newTestService(hook, nil)
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	require.NoError(t, service.ToggleRow(ctx, "fleet", 2))
	doc, err := service.Document(ctx, "fleet")
	require.NoError(t, err)
	assert.True(t, doc.Panel(2).Row.Collapsed)
	assert.Len(t, doc.Panels, 3)

	result, err := service.ProcessRepeats(ctx, "fleet")
	require.NoError(t, err)
	assert.False(t, result.Changed())

	assert.ErrorIs(t, service.ToggleRow(ctx, "fleet", 1), ErrNotRow)
	assert.Equal(t, []string{ReasonLoad, ReasonToggle, ReasonRepeat}, hook.reasons())
	assert.Equal(t, 2, hook.events[1].PanelID)
}

func TestServicePersistStoresSnapshot(t *testing.T) {
	store := NewInMemoryDocumentStore()
	service := NewService(Options{Store: store})
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	data, err := service.Persist(ctx, "fleet")
	require.NoError(t, err)

	snapshot, err := store.Snapshot(ctx, "fleet")
	require.NoError(t, err)
	assert.Equal(t, data, snapshot)
	assert.NotContains(t, string(data), "repeatPanelId")

	reloaded, err := Load(snapshot)
	require.NoError(t, err)
	assert.Len(t, reloaded.Panels, 3)
}

func TestServicePersistRejectsInvalidForms(t *testing.T) {
	store := NewInMemoryDocumentStore()
	validator := &rejectingValidator{}
	hook := &recordingHook{}
	service := NewService(Options{Store: store, Validator: validator, ChangeHook: hook})
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	_, err = service.Persist(ctx, "fleet")

	assert.EqualError(t, err, "rejected")
	assert.Equal(t, 1, validator.calls)
	_, err = store.Snapshot(ctx, "fleet")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Equal(t, []string{ReasonLoad}, hook.reasons())
}

func TestServiceReturnsHookErrors(t *testing.T) {
	hook := &recordingHook{err: errors.New("offline")}
	service := newTestService(hook, nil)

	_, err := service.Load(context.Background(), "fleet", repeatDashboard("fleet"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestServiceDelete(t *testing.T) {
	hook := &recordingHook{}
	service := newTestService(hook, nil)
	ctx := context.Background()
	_, err := service.Load(ctx, "fleet", repeatDashboard("fleet"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, "fleet"))

	_, err = service.Document(ctx, "fleet")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, service.Delete(ctx, "fleet"), ErrDocumentNotFound)
	assert.ErrorIs(t, service.Delete(ctx, ""), errMissingUID)
	assert.Equal(t, []string{ReasonLoad, ReasonDelete}, hook.reasons())
}

func TestServiceProvision(t *testing.T) {
	store := NewInMemoryDocumentStore()
	service := NewService(Options{Store: store})
	fsys := fstest.MapFS{
		"dashboards/fleet.json":  {Data: repeatDashboard("ignored")},
		"dashboards/broken.json": {Data: []byte(`{"title":`)},
	}
	manifest := &ProvisionManifest{
		Version: ManifestVersion,
		Dashboards: []ProvisionEntry{
			{UID: "fleet", Path: "dashboards/fleet.json", Variables: map[string][]string{"apps": {"a", "b", "c"}}},
			{UID: "broken", Path: "dashboards/broken.json"},
			{UID: "missing", Path: "dashboards/missing.json"},
		},
	}

	provisioned, err := service.Provision(context.Background(), fsys, manifest)

	assert.Equal(t, []string{"fleet"}, provisioned)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Contains(t, err.Error(), "provision missing")

	doc, err := service.Document(context.Background(), "fleet")
	require.NoError(t, err)
	assert.Len(t, doc.Panels, 5)
	_, err = store.Snapshot(context.Background(), "fleet")
	assert.NoError(t, err)

	_, err = service.Provision(context.Background(), fsys, nil)
	assert.Error(t, err)
}

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-dashgrid/components/dashboard/migration"
	"github.com/goliatone/go-dashgrid/pkg/logging"
)

var errMissingUID = errors.New("dashboard: document uid is required")

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Store      DocumentStore
	Migrator   *migration.Migrator
	Validator  Validator
	ChangeHook ChangeHook
	Telemetry  Telemetry
	Logger     logging.Logger
	// Clock stamps change events. Defaults to time.Now.
	Clock func() time.Time
}

// Service hosts live documents: it loads them, applies variable and row
// changes, persists them and notifies transports about every change.
type Service struct {
	opts  Options
	locks sync.Map
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewInMemoryDocumentStore()
	}
	opts.Logger = logging.Normalize(opts.Logger)
	if opts.Migrator == nil {
		opts.Migrator = migration.New(migration.Options{Logger: opts.Logger})
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.ChangeHook == nil {
		opts.ChangeHook = noopChangeHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{opts: opts}
}

// lock serializes operations on one document.
func (s *Service) lock(uid string) func() {
	mu, _ := s.locks.LoadOrStore(uid, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Load decodes, upgrades and expands a dashboard and stores it under uid. An
// empty uid falls back to the document's own uid.
func (s *Service) Load(ctx context.Context, uid string, data []byte) (*Document, error) {
	doc, err := Load(data, WithMigrator(s.opts.Migrator))
	if err != nil {
		return nil, err
	}
	if uid == "" {
		uid = doc.UID
	}
	if uid == "" {
		return nil, errMissingUID
	}
	doc.UID = uid

	defer s.lock(uid)()
	result := doc.ProcessRepeats()
	if err := s.store().SaveDocument(ctx, uid, doc); err != nil {
		return nil, fmt.Errorf("dashboard: store %q: %w", uid, err)
	}

	report := doc.Migration()
	s.opts.Logger.Info("dashboard loaded",
		"uid", uid, "schema_from", report.From, "schema_to", doc.SchemaVersion, "panels", len(doc.Panels))
	s.recordTelemetry(ctx, "dashboard.document.load", repeatPayload(uid, result, map[string]any{
		"schema_from": report.From,
		"migrated":    report.Upgraded(),
	}))
	if err := s.notify(ctx, s.event(ctx, doc, ReasonLoad, result)); err != nil {
		return nil, err
	}
	return doc, nil
}

// Document returns a snapshot of the document stored under uid, taken under
// the document lock. Changes to the snapshot do not reach the service.
func (s *Service) Document(ctx context.Context, uid string) (*Document, error) {
	var snapshot *Document
	err := s.read(ctx, uid, func(doc *Document) error {
		snapshot = doc.Clone()
		return nil
	})
	return snapshot, err
}

// Panels returns a copy of the live panel list, clones included.
func (s *Service) Panels(ctx context.Context, uid string) (PanelsView, error) {
	var view PanelsView
	err := s.read(ctx, uid, func(doc *Document) error {
		view = PanelsView{UID: uid, Iteration: doc.Iteration(), Panels: make([]*Panel, 0, len(doc.Panels))}
		for _, p := range doc.Panels {
			view.Panels = append(view.Panels, p.Clone())
		}
		return nil
	})
	return view, err
}

// PersistedForm returns what Persist would store, without validating it.
func (s *Service) PersistedForm(ctx context.Context, uid string) (map[string]any, error) {
	var out map[string]any
	err := s.read(ctx, uid, func(doc *Document) error {
		out = doc.PersistedForm()
		return nil
	})
	return out, err
}

// SelectVariable changes a variable's selection and reprocesses repeats.
func (s *Service) SelectVariable(ctx context.Context, uid, name string, values ...string) (RepeatResult, error) {
	var result RepeatResult
	err := s.mutate(ctx, uid, func(doc *Document) (ChangeEvent, error) {
		var err error
		result, err = doc.SelectVariable(name, values...)
		if err != nil {
			return ChangeEvent{}, err
		}
		s.recordTelemetry(ctx, "dashboard.variable.select", repeatPayload(uid, result, map[string]any{
			"variable": name,
			"values":   len(values),
		}))
		event := s.event(ctx, doc, ReasonSelect, result)
		event.Variable = name
		return event, nil
	})
	return result, err
}

// ProcessRepeats re-expands every repeat source of the document.
func (s *Service) ProcessRepeats(ctx context.Context, uid string) (RepeatResult, error) {
	var result RepeatResult
	err := s.mutate(ctx, uid, func(doc *Document) (ChangeEvent, error) {
		result = doc.ProcessRepeats()
		s.recordTelemetry(ctx, "dashboard.repeat.process", repeatPayload(uid, result, nil))
		return s.event(ctx, doc, ReasonRepeat, result), nil
	})
	return result, err
}

// ToggleRow collapses or expands a row panel.
func (s *Service) ToggleRow(ctx context.Context, uid string, panelID int) error {
	return s.mutate(ctx, uid, func(doc *Document) (ChangeEvent, error) {
		if err := doc.ToggleRow(panelID); err != nil {
			return ChangeEvent{}, err
		}
		collapsed := doc.Panel(panelID).Row.Collapsed
		s.recordTelemetry(ctx, "dashboard.row.toggle", map[string]any{
			"uid":       uid,
			"panel_id":  panelID,
			"collapsed": collapsed,
		})
		event := s.event(ctx, doc, ReasonToggle, RepeatResult{Iteration: doc.Iteration()})
		event.PanelID = panelID
		return event, nil
	})
}

// Persist validates the persisted form and saves it as the document's
// snapshot. The encoded snapshot is returned.
func (s *Service) Persist(ctx context.Context, uid string) ([]byte, error) {
	var data []byte
	err := s.mutate(ctx, uid, func(doc *Document) (ChangeEvent, error) {
		persisted := doc.PersistedForm()
		if err := s.opts.Validator.Validate(persisted); err != nil {
			return ChangeEvent{}, err
		}
		var err error
		data, err = json.MarshalIndent(persisted, "", "  ")
		if err != nil {
			return ChangeEvent{}, fmt.Errorf("dashboard: encode %q: %w", uid, err)
		}
		if err := s.store().SaveSnapshot(ctx, uid, data); err != nil {
			return ChangeEvent{}, fmt.Errorf("dashboard: snapshot %q: %w", uid, err)
		}
		s.recordTelemetry(ctx, "dashboard.document.persist", map[string]any{"uid": uid, "bytes": len(data)})
		return s.event(ctx, doc, ReasonPersist, RepeatResult{Iteration: doc.Iteration()}), nil
	})
	return data, err
}

// Delete removes a document and its snapshot.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return errMissingUID
	}
	defer s.lock(uid)()
	if err := s.store().DeleteDocument(ctx, uid); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.document.delete", map[string]any{"uid": uid})
	return s.notify(ctx, ChangeEvent{
		ID:     uuid.NewString(),
		UID:    uid,
		Reason: ReasonDelete,
		Actor:  ActorFrom(ctx).ID,
		At:     s.opts.Clock(),
	})
}

// Provision loads every dashboard listed in the manifest from fsys, applies
// the manifest's variable selections and persists the result. Every entry is
// attempted; failures are joined.
func (s *Service) Provision(ctx context.Context, fsys fs.FS, manifest *ProvisionManifest) ([]string, error) {
	if manifest == nil {
		return nil, errors.New("dashboard: provisioning manifest is nil")
	}
	var (
		provisioned []string
		errs        []error
	)
	for _, entry := range manifest.Dashboards {
		if err := s.provision(ctx, fsys, entry); err != nil {
			s.opts.Logger.Warn("dashboard provisioning failed", "uid", entry.UID, "path", entry.Path, "error", err)
			errs = append(errs, fmt.Errorf("dashboard: provision %s: %w", entry.UID, err))
			continue
		}
		provisioned = append(provisioned, entry.UID)
	}
	s.recordTelemetry(ctx, "dashboard.provision", map[string]any{
		"dashboards": len(manifest.Dashboards),
		"failed":     len(errs),
	})
	return provisioned, errors.Join(errs...)
}

func (s *Service) provision(ctx context.Context, fsys fs.FS, entry ProvisionEntry) error {
	data, err := fs.ReadFile(fsys, entry.Path)
	if err != nil {
		return err
	}
	if _, err := s.Load(ctx, entry.UID, data); err != nil {
		return err
	}
	for _, name := range entry.variableNames() {
		if _, err := s.SelectVariable(ctx, entry.UID, name, entry.Variables[name]...); err != nil {
			return err
		}
	}
	_, err = s.Persist(ctx, entry.UID)
	return err
}

func (s *Service) store() DocumentStore {
	return s.opts.Store
}

func (s *Service) read(ctx context.Context, uid string, fn func(*Document) error) error {
	if uid == "" {
		return errMissingUID
	}
	defer s.lock(uid)()
	doc, err := s.store().Document(ctx, uid)
	if err != nil {
		return err
	}
	return fn(doc)
}

// mutate runs fn on the stored document under the document lock, saves the
// document and publishes the event fn returns.
func (s *Service) mutate(ctx context.Context, uid string, fn func(*Document) (ChangeEvent, error)) error {
	if uid == "" {
		return errMissingUID
	}
	defer s.lock(uid)()
	doc, err := s.store().Document(ctx, uid)
	if err != nil {
		return err
	}
	event, err := fn(doc)
	if err != nil {
		return err
	}
	if err := s.store().SaveDocument(ctx, uid, doc); err != nil {
		return fmt.Errorf("dashboard: store %q: %w", uid, err)
	}
	s.opts.Logger.Debug("dashboard changed", "uid", uid, "reason", event.Reason, "iteration", event.Iteration)
	return s.notify(ctx, event)
}

func (s *Service) event(ctx context.Context, doc *Document, reason string, result RepeatResult) ChangeEvent {
	return ChangeEvent{
		ID:        uuid.NewString(),
		UID:       doc.UID,
		Reason:    reason,
		Actor:     ActorFrom(ctx).ID,
		Iteration: doc.Iteration(),
		Repeats:   result,
		At:        s.opts.Clock(),
	}
}

func (s *Service) notify(ctx context.Context, event ChangeEvent) error {
	if err := s.opts.ChangeHook.DocumentChanged(ctx, event); err != nil {
		s.opts.Logger.Error("dashboard change hook failed", "uid", event.UID, "reason", event.Reason, "error", err)
		return fmt.Errorf("dashboard: change hook: %w", err)
	}
	return nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func repeatPayload(uid string, result RepeatResult, extra map[string]any) map[string]any {
	payload := map[string]any{
		"uid":       uid,
		"iteration": result.Iteration,
		"created":   result.Created,
		"reused":    result.Reused,
		"removed":   result.Removed,
	}
	for key, value := range extra {
		payload[key] = value
	}
	return payload
}

package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ettle/strcase"
	"github.com/mitchellh/copystructure"
	"github.com/tidwall/jsonc"

	"github.com/goliatone/go-dashgrid/components/dashboard/grid"
	"github.com/goliatone/go-dashgrid/components/dashboard/migration"
)

var (
	// ErrInvalidDocument is returned when the payload is not a JSON object.
	ErrInvalidDocument = errors.New("dashboard: document must be a JSON object")
	// ErrVariableNotFound is returned when a variable name is unknown.
	ErrVariableNotFound = errors.New("dashboard: variable not found")
	// ErrPanelNotFound is returned when no top-level panel has the id.
	ErrPanelNotFound = errors.New("dashboard: panel not found")
	// ErrNotRow is returned when a row operation targets a regular panel.
	ErrNotRow = errors.New("dashboard: panel is not a row")
)

// TimeRange is the default time range of a dashboard.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Document is a loaded dashboard. Panels is kept sorted by grid position and
// reflects the last reconcile pass. A Document is not safe for concurrent use.
type Document struct {
	UID           string
	Title         string
	SchemaVersion int
	Time          TimeRange
	Templating    []*TemplateVariable
	Annotations   []map[string]any
	Panels        []*Panel
	Extra         map[string]any

	iteration int64
	lastID    int
	report    migration.Report
}

// LoadOption customizes Load and FromObject.
type LoadOption func(*loadConfig)

type loadConfig struct {
	migrator *migration.Migrator
}

// WithMigrator replaces the default migrator.
func WithMigrator(m *migration.Migrator) LoadOption {
	return func(cfg *loadConfig) {
		cfg.migrator = m
	}
}

// Load decodes a dashboard (comments and trailing commas are tolerated),
// upgrades it to the latest schema and runs a cleanup pass over repeats.
func Load(data []byte, opts ...LoadOption) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, ErrInvalidDocument
	}
	return FromObject(raw, opts...), nil
}

// FromObject builds a Document from an already decoded dashboard. raw is not
// modified.
func FromObject(raw map[string]any, opts ...LoadOption) *Document {
	cfg := loadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	migrator := cfg.migrator
	if migrator == nil {
		migrator = migration.New(migration.Options{})
	}

	upgraded, report := migrator.Upgrade(raw)
	if !report.Upgraded() {
		upgraded = migration.Clone(upgraded)
	}

	d := &Document{
		Extra:         map[string]any{},
		SchemaVersion: migration.SchemaVersion(upgraded),
		report:        report,
	}
	for key, value := range upgraded {
		switch key {
		case "uid":
			d.UID = stringValue(value)
		case "title":
			d.Title = stringValue(value)
		case "schemaVersion":
		case "time":
			if tr, ok := value.(map[string]any); ok {
				d.Time = TimeRange{From: stringValue(tr["from"]), To: stringValue(tr["to"])}
			}
		case "templating":
			for _, item := range listValue(value) {
				if obj, ok := item.(map[string]any); ok {
					d.Templating = append(d.Templating, variableFromObject(obj))
				}
			}
		case "annotations":
			for _, item := range listValue(value) {
				if obj, ok := item.(map[string]any); ok {
					d.Annotations = append(d.Annotations, obj)
				}
			}
		case "panels":
			for _, item := range sliceValue(value) {
				if obj, ok := item.(map[string]any); ok {
					d.Panels = append(d.Panels, panelFromObject(obj))
				}
			}
		default:
			d.Extra[key] = value
		}
	}
	d.assignIDs()
	d.CleanUpRepeats()
	return d
}

func listValue(v any) []any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return sliceValue(obj["list"])
}

// assignIDs gives every panel without an id, or with a duplicate one, a
// fresh id above every id in the document.
func (d *Document) assignIDs() {
	seen := map[int]bool{}
	var pending []*Panel
	walkPanels(d.Panels, func(p *Panel) {
		if p.ID <= 0 || seen[p.ID] {
			pending = append(pending, p)
			return
		}
		seen[p.ID] = true
		d.lastID = max(d.lastID, p.ID)
	})
	for _, p := range pending {
		p.ID = d.NextPanelID()
	}
}

// NextPanelID allocates a panel id. Ids are never handed out twice.
func (d *Document) NextPanelID() int {
	d.lastID++
	return d.lastID
}

// Iteration returns the epoch of the last reconcile pass.
func (d *Document) Iteration() int64 { return d.iteration }

// Clone returns a deep copy that shares nothing mutable with d. The
// iteration counter and id allocator carry over.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Templating = deepCopy(d.Templating)
	out.Annotations = deepCopy(d.Annotations)
	out.Extra = deepCopy(d.Extra)
	out.Panels = make([]*Panel, 0, len(d.Panels))
	for _, p := range d.Panels {
		out.Panels = append(out.Panels, p.Clone())
	}
	return &out
}

func deepCopy[T any](v T) T {
	copied, err := copystructure.Copy(v)
	if err != nil {
		panic(fmt.Sprintf("dashboard: copy %T: %v", v, err))
	}
	return copied.(T)
}

// Migration reports what the schema upgrade did on load.
func (d *Document) Migration() migration.Report { return d.report }

// Slug is a URL friendly name derived from the title, falling back to the uid.
func (d *Document) Slug() string {
	if slug := strcase.ToKebab(d.Title); slug != "" {
		return slug
	}
	return d.UID
}

// Variable returns the template variable with the given name.
func (d *Document) Variable(name string) *TemplateVariable {
	for _, v := range d.Templating {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Panel finds a panel by id, including members nested in collapsed rows.
func (d *Document) Panel(id int) *Panel {
	var found *Panel
	walkPanels(d.Panels, func(p *Panel) {
		if found == nil && p.ID == id {
			found = p
		}
	})
	return found
}

// ProcessRepeats expands every repeat source against the current variables.
func (d *Document) ProcessRepeats() RepeatResult {
	return d.reconcile(true)
}

// CleanUpRepeats removes every clone without expanding sources.
func (d *Document) CleanUpRepeats() RepeatResult {
	return d.reconcile(false)
}

func (d *Document) reconcile(expand bool) RepeatResult {
	d.iteration++
	panels, result := Reconcile(d.Panels, d.Templating, ReconcileOptions{
		Epoch:  d.iteration,
		IDs:    d,
		Expand: expand,
	})
	d.Panels = panels
	return result
}

// SelectVariable changes a variable's selection and reprocesses repeats.
func (d *Document) SelectVariable(name string, values ...string) (RepeatResult, error) {
	v := d.Variable(name)
	if v == nil {
		return RepeatResult{}, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	v.Select(values...)
	return d.ProcessRepeats(), nil
}

// ToggleRow collapses or expands a top-level row. Collapsing moves the
// panels below the row (up to the next row) into it and pulls the rest of the
// grid up; expanding does the reverse.
func (d *Document) ToggleRow(id int) error {
	sortPanels(d.Panels)
	idx := slices.IndexFunc(d.Panels, func(p *Panel) bool { return p.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrPanelNotFound, id)
	}
	row := d.Panels[idx]
	if !row.IsRow() {
		return fmt.Errorf("%w: %d", ErrNotRow, id)
	}

	if row.Row.Collapsed {
		members := row.Row.Panels
		if len(members) > 0 {
			top, _ := bounds(members)
			dy := row.GridPos.Bottom() - top
			for _, m := range members {
				m.GridPos = grid.MustValidate(m.GridPos.Shift(dy))
			}
		}
		_, bottom := bounds(append([]*Panel{row}, members...))
		push := bottom - row.GridPos.Bottom()
		for _, p := range d.Panels[idx+1:] {
			p.GridPos = grid.MustValidate(p.GridPos.Shift(push))
		}
		rest := slices.Clone(d.Panels[idx+1:])
		d.Panels = append(append(d.Panels[:idx+1], members...), rest...)
		row.Row.Panels = nil
		row.Row.Collapsed = false
	} else {
		end := idx + 1
		for end < len(d.Panels) && !d.Panels[end].IsRow() {
			end++
		}
		members := slices.Clone(d.Panels[idx+1 : end])
		_, bottom := bounds(append([]*Panel{row}, members...))
		pull := bottom - row.GridPos.Bottom()
		rest := slices.Clone(d.Panels[end:])
		for _, p := range rest {
			p.GridPos.Y = max(p.GridPos.Y-pull, 0)
		}
		d.Panels = append(d.Panels[:idx+1], rest...)
		row.Row.Panels = members
		row.Row.Collapsed = true
	}
	sortPanels(d.Panels)
	return nil
}

// PersistedForm returns the dashboard as it should be saved: clones and
// repeat bookkeeping are removed and panels following a row marked collapsed
// are folded back into it. The result only holds JSON-native values.
func (d *Document) PersistedForm() map[string]any {
	out := make(map[string]any, len(d.Extra)+8)
	for key, value := range d.Extra {
		out[key] = value
	}
	if d.UID != "" {
		out["uid"] = d.UID
	}
	out["title"] = d.Title
	out["schemaVersion"] = d.SchemaVersion
	if d.Time != (TimeRange{}) {
		out["time"] = map[string]any{"from": d.Time.From, "to": d.Time.To}
	}

	variables := make([]any, 0, len(d.Templating))
	for _, v := range d.Templating {
		variables = append(variables, v.object())
	}
	out["templating"] = map[string]any{"list": variables}

	annotations := make([]any, 0, len(d.Annotations))
	for _, a := range d.Annotations {
		annotations = append(annotations, a)
	}
	out["annotations"] = map[string]any{"list": annotations}
	out["panels"] = persistedPanels(d.Panels)

	return jsonNative(out)
}

func persistedPanels(panels []*Panel) []any {
	sorted := slices.Clone(panels)
	sortPanels(sorted)

	out := make([]any, 0, len(sorted))
	var collapsed map[string]any
	for _, p := range sorted {
		if p.IsClone() {
			continue
		}
		obj := p.object(false)
		switch {
		case p.IsRow():
			collapsed = nil
			if p.Row.Collapsed {
				collapsed = obj
			}
			out = append(out, obj)
		case collapsed != nil:
			nested, _ := collapsed["panels"].([]any)
			collapsed["panels"] = append(nested, obj)
		default:
			out = append(out, obj)
		}
	}
	return out
}

// MarshalPersisted encodes PersistedForm as indented JSON with sorted keys.
func (d *Document) MarshalPersisted() ([]byte, error) {
	return json.MarshalIndent(d.PersistedForm(), "", "  ")
}

func jsonNative(obj map[string]any) map[string]any {
	data, err := json.Marshal(obj)
	if err != nil {
		return obj
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return obj
	}
	return out
}

package migration

import (
	"encoding/json"

	"github.com/mitchellh/copystructure"

	"github.com/goliatone/go-dashgrid/pkg/logging"
)

// LatestVersion is the schema version every upgraded document ends at.
const LatestVersion = 16

// Object is a raw, JSON-decoded dashboard (or fragment of one).
type Object = map[string]any

// Step upgrades documents written before Version. Document runs as soon as the
// step is reached; Panel is queued and runs once per panel (including panels
// nested in collapsed rows) after every step's Document hook has executed.
type Step struct {
	Version  int
	Name     string
	Document func(ctx *Context, doc Object)
	Panel    func(ctx *Context, panel Object)
}

// Context carries state shared by the steps of one upgrade.
type Context struct {
	doc    Object
	nextID int
}

// NextPanelID allocates an id above every id present in the document. The
// first call scans the document as it stands at that moment.
func (c *Context) NextPanelID() int {
	if c.nextID == 0 {
		c.nextID = maxPanelID(asSlice(c.doc["panels"])) + 1
	}
	id := c.nextID
	c.nextID++
	return id
}

// Report summarizes one upgrade.
type Report struct {
	From    int      `json:"from"`
	To      int      `json:"to"`
	Applied []string `json:"applied,omitempty"`
}

// Upgraded reports whether any step ran.
func (r Report) Upgraded() bool { return len(r.Applied) > 0 }

// Options configures a Migrator.
type Options struct {
	Logger logging.Logger
	// Steps overrides the version ladder, mostly for tests.
	Steps []Step
}

// Migrator folds the version ladder over raw documents.
type Migrator struct {
	steps  []Step
	logger logging.Logger
}

// New builds a Migrator with the default ladder.
func New(opts Options) *Migrator {
	steps := opts.Steps
	if len(steps) == 0 {
		steps = Steps()
	}
	return &Migrator{
		steps:  steps,
		logger: logging.Normalize(opts.Logger),
	}
}

var defaultMigrator = New(Options{})

// Upgrade runs the default Migrator.
func Upgrade(raw Object) (Object, Report) {
	return defaultMigrator.Upgrade(raw)
}

// SchemaVersion reads the schema version of a raw document; absent means 0.
func SchemaVersion(raw Object) int {
	v, _ := asInt(raw["schemaVersion"])
	return v
}

// Upgrade brings raw up to LatestVersion. The input is never mutated; a
// document already at (or past) LatestVersion is returned as is.
func (m *Migrator) Upgrade(raw Object) (Object, Report) {
	from := SchemaVersion(raw)
	report := Report{From: from, To: from}
	if raw != nil && from >= LatestVersion {
		return raw, report
	}

	doc := Clone(raw)
	ctx := &Context{doc: doc}
	var queued []Step
	for _, step := range m.steps {
		if from >= step.Version {
			continue
		}
		if step.Document != nil {
			step.Document(ctx, doc)
		}
		if step.Panel != nil {
			queued = append(queued, step)
		}
		report.Applied = append(report.Applied, step.Name)
		m.logger.Debug("dashboard schema step applied", "version", step.Version, "step", step.Name)
	}
	applyPanelSteps(ctx, doc, queued)

	doc["schemaVersion"] = LatestVersion
	report.To = LatestVersion
	m.logger.Info("dashboard schema upgraded", "from", from, "to", LatestVersion, "steps", len(report.Applied))
	return doc, report
}

// ApplyStep runs a single step against doc in place, as Upgrade would if it
// were the only pending step.
func ApplyStep(step Step, doc Object) {
	ctx := &Context{doc: doc}
	if step.Document != nil {
		step.Document(ctx, doc)
	}
	if step.Panel != nil {
		applyPanelSteps(ctx, doc, []Step{step})
	}
}

func applyPanelSteps(ctx *Context, doc Object, steps []Step) {
	if len(steps) == 0 {
		return
	}
	for _, item := range asSlice(doc["panels"]) {
		panel, ok := asObject(item)
		if !ok {
			continue
		}
		for _, step := range steps {
			step.Panel(ctx, panel)
			for _, nestedItem := range asSlice(panel["panels"]) {
				if nested, ok := asObject(nestedItem); ok {
					step.Panel(ctx, nested)
				}
			}
		}
	}
}

// Clone deep-copies a raw document.
func Clone(raw Object) Object {
	if raw == nil {
		return Object{}
	}
	copied, err := copystructure.Copy(raw)
	if err == nil {
		if obj, ok := copied.(Object); ok {
			return obj
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Object{}
	}
	var out Object
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return Object{}
	}
	return out
}

func maxPanelID(panels []any) int {
	top := 0
	for _, item := range panels {
		panel, ok := asObject(item)
		if !ok {
			continue
		}
		if id, ok := asInt(panel["id"]); ok && id > top {
			top = id
		}
		top = max(top, maxPanelID(asSlice(panel["panels"])))
	}
	return top
}

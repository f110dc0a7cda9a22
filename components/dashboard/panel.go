package dashboard

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/copystructure"

	"github.com/goliatone/go-dashgrid/components/dashboard/grid"
	"github.com/goliatone/go-dashgrid/components/dashboard/migration"
)

// RowType is the panel type of row containers.
const RowType = "row"

// Direction controls how repeat clones are laid out.
type Direction string

const (
	DirectionHorizontal Direction = "h"
	DirectionVertical   Direction = "v"
)

// ScopedValue is the option a repeated panel is bound to.
type ScopedValue struct {
	Text     string `json:"text"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// ScopedVars binds variable names to the option a panel renders for.
type ScopedVars map[string]ScopedValue

// Row is present only on row container panels. Panels holds the members while
// the row is collapsed and is empty while it is expanded.
type Row struct {
	Collapsed bool
	Panels    []*Panel
}

// Panel is one grid item. Fields the document model does not interpret are
// kept in Extra and written back untouched.
type Panel struct {
	ID              int
	Type            string
	Title           string
	GridPos         grid.Pos
	Repeat          string
	RepeatDirection string
	RepeatPanelID   int
	RepeatIteration int64
	RepeatedByRow   bool
	MinSpan         int
	MaxPerRow       int
	ScopedVars      ScopedVars
	Row             *Row
	Extra           map[string]any
}

// IsRow reports whether the panel is a row container.
func (p *Panel) IsRow() bool { return p != nil && p.Row != nil }

// IsClone reports whether the panel was produced by repetition.
func (p *Panel) IsClone() bool { return p != nil && p.RepeatPanelID != 0 }

// Direction normalizes RepeatDirection; anything unrecognized is horizontal.
func (p *Panel) Direction() Direction {
	switch strings.ToLower(strings.TrimSpace(p.RepeatDirection)) {
	case "v", "vertical":
		return DirectionVertical
	}
	return DirectionHorizontal
}

// Clone returns a deep copy, nested row members included.
func (p *Panel) Clone() *Panel {
	if p == nil {
		return nil
	}
	if copied, err := copystructure.Copy(p); err == nil {
		if clone, ok := copied.(*Panel); ok {
			return clone
		}
	}
	return panelFromObject(migration.Clone(p.object(true)))
}

// MarshalJSON writes the live view of the panel, repeat bookkeeping included.
func (p *Panel) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.object(true))
}

// UnmarshalJSON reads a panel in its persisted (or live) shape.
func (p *Panel) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = *panelFromObject(raw)
	return nil
}

func panelFromObject(obj map[string]any) *Panel {
	p := &Panel{Extra: map[string]any{}, GridPos: grid.DefaultPos()}
	placed := false
	for key, value := range obj {
		switch key {
		case "id":
			p.ID, _ = intValue(value)
		case "type":
			p.Type, _ = value.(string)
		case "title":
			p.Title = stringValue(value)
		case "gridPos":
			if pos, ok := posValue(value); ok {
				p.GridPos = grid.Clamp(pos)
				placed = true
			}
		case "repeat":
			p.Repeat, _ = value.(string)
		case "repeatDirection":
			p.RepeatDirection, _ = value.(string)
		case "repeatPanelId":
			p.RepeatPanelID, _ = intValue(value)
		case "repeatIteration":
			iteration, _ := floatValue(value)
			p.RepeatIteration = int64(iteration)
		case "repeatedByRow":
			p.RepeatedByRow = boolValue(value)
		case "minSpan":
			p.MinSpan, _ = intValue(value)
		case "maxPerRow":
			p.MaxPerRow, _ = intValue(value)
		case "scopedVars":
			p.ScopedVars = scopedVarsValue(value)
		case "collapsed", "panels":
		default:
			p.Extra[key] = value
		}
	}

	if p.Type == RowType {
		p.Row = &Row{Collapsed: boolValue(obj["collapsed"])}
		for _, item := range sliceValue(obj["panels"]) {
			if nested, ok := item.(map[string]any); ok {
				p.Row.Panels = append(p.Row.Panels, panelFromObject(nested))
			}
		}
		p.GridPos.X, p.GridPos.W = 0, grid.ColumnCount
		if !placed {
			p.GridPos.H = 1
		}
	} else {
		for _, key := range []string{"collapsed", "panels"} {
			if value, ok := obj[key]; ok {
				p.Extra[key] = value
			}
		}
	}
	return p
}

// object renders the panel as a JSON-ready map. The persisted shape leaves out
// repeat bookkeeping and clones nested in rows.
func (p *Panel) object(live bool) map[string]any {
	out := make(map[string]any, len(p.Extra)+12)
	for key, value := range p.Extra {
		out[key] = value
	}
	out["id"] = p.ID
	if p.Type != "" {
		out["type"] = p.Type
	}
	if p.Title != "" {
		out["title"] = p.Title
	}
	out["gridPos"] = map[string]any{"x": p.GridPos.X, "y": p.GridPos.Y, "w": p.GridPos.W, "h": p.GridPos.H}
	if p.Repeat != "" {
		out["repeat"] = p.Repeat
	}
	if p.RepeatDirection != "" {
		out["repeatDirection"] = p.RepeatDirection
	}
	if p.MinSpan > 0 {
		out["minSpan"] = p.MinSpan
	}
	if p.MaxPerRow > 0 {
		out["maxPerRow"] = p.MaxPerRow
	}
	if p.Row != nil {
		out["collapsed"] = p.Row.Collapsed
		nested := make([]any, 0, len(p.Row.Panels))
		for _, member := range p.Row.Panels {
			if !live && member.IsClone() {
				continue
			}
			nested = append(nested, member.object(live))
		}
		out["panels"] = nested
	}
	if live {
		if p.RepeatPanelID != 0 {
			out["repeatPanelId"] = p.RepeatPanelID
		}
		if p.RepeatIteration != 0 {
			out["repeatIteration"] = p.RepeatIteration
		}
		if p.RepeatedByRow {
			out["repeatedByRow"] = true
		}
		if len(p.ScopedVars) > 0 {
			out["scopedVars"] = p.ScopedVars
		}
	}
	return out
}

func scopedVarsValue(v any) ScopedVars {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(ScopedVars, len(obj))
	for name, item := range obj {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out[name] = ScopedValue{
			Text:     stringValue(entry["text"]),
			Value:    stringValue(entry["value"]),
			Selected: boolValue(entry["selected"]),
		}
	}
	return out
}

func posValue(v any) (grid.Pos, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return grid.Pos{}, false
	}
	x, _ := intValue(obj["x"])
	y, _ := intValue(obj["y"])
	w, _ := intValue(obj["w"])
	h, _ := intValue(obj["h"])
	return grid.Pos{X: x, Y: y, W: w, H: h}, true
}

// walkPanels visits top-level panels and the members nested in their rows.
func walkPanels(panels []*Panel, fn func(*Panel)) {
	for _, p := range panels {
		fn(p)
		if p.IsRow() {
			for _, member := range p.Row.Panels {
				fn(member)
			}
		}
	}
}

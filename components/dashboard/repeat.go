package dashboard

import (
	"maps"
	"slices"

	"github.com/goliatone/go-dashgrid/components/dashboard/grid"
)

// IDAllocator hands out panel ids that have never been used in a document.
type IDAllocator interface {
	NextPanelID() int
}

// ReconcileOptions configures one Reconcile pass.
type ReconcileOptions struct {
	// Epoch is stamped on every clone that survives the pass.
	Epoch int64
	// IDs allocates ids for new clones. Defaults to max(id)+1 onwards.
	IDs IDAllocator
	// Expand materializes repeats. Without it the pass only removes clones
	// and resolves the layout.
	Expand bool
}

// RepeatResult summarizes a Reconcile pass.
type RepeatResult struct {
	Iteration int64 `json:"iteration"`
	Created   int   `json:"created"`
	Reused    int   `json:"reused"`
	Removed   int   `json:"removed"`
}

// Changed reports whether clones were added or removed.
func (r RepeatResult) Changed() bool {
	return r.Created > 0 || r.Removed > 0
}

// Reconcile expands repeat sources against the variables and returns the new
// panel list; the input list is left untouched. Existing clones are reused
// by ordinal so edits made to them survive. Clones that do not receive the
// epoch in this pass are dropped.
func Reconcile(panels []*Panel, variables []*TemplateVariable, opts ReconcileOptions) ([]*Panel, RepeatResult) {
	work := make([]*Panel, 0, len(panels))
	for _, p := range panels {
		if p != nil {
			work = append(work, p.Clone())
		}
	}
	sortPanels(work)
	walkPanels(work, func(p *Panel) { p.ScopedVars = nil })

	ids := opts.IDs
	if ids == nil {
		ids = &sequenceIDs{next: maxPanelID(work) + 1}
	}
	r := &reconciler{
		epoch:  opts.Epoch,
		ids:    ids,
		vars:   indexVariables(variables),
		result: RepeatResult{Iteration: opts.Epoch},
	}
	before := countClones(work)
	idx := indexClones(work)

	var (
		laidOut []*section
		floor   int
	)
	push := func(s *section) {
		floor = s.stack(floor)
		laidOut = append(laidOut, s)
	}
	for _, s := range splitSections(idx.originals) {
		members := slices.Clone(s.members)
		var blocks []*rowBlock
		if opts.Expand {
			if s.header != nil && s.header.Repeat != "" {
				blocks = r.repeatRow(s.header, members, idx.rows[s.header.ID])
			}
			s.members = s.members[:0]
			for _, p := range members {
				if p.Repeat != "" {
					if group := r.repeatPanel(p, idx.panels[p.ID]); group != nil {
						s.groups = append(s.groups, group)
						continue
					}
				}
				s.members = append(s.members, p)
			}
		}
		s.layout()
		push(s)
		for _, blk := range blocks {
			push(blk.place(s.header, members, floor))
		}
	}

	var out []*Panel
	for _, s := range laidOut {
		out = append(out, s.panels()...)
	}
	r.pruneNested(out)
	sortPanels(out)

	r.result.Removed = before + r.result.Created - countClones(out)
	return out, r.result
}

type reconciler struct {
	epoch  int64
	ids    IDAllocator
	vars   map[string]*TemplateVariable
	result RepeatResult
}

func (r *reconciler) selection(name string) (*TemplateVariable, []VariableOption) {
	v := r.vars[name]
	if v == nil {
		return nil, nil
	}
	return v, v.SelectedOptions()
}

func (r *reconciler) fresh(src *Panel) *Panel {
	clone := src.Clone()
	clone.ID = r.ids.NextPanelID()
	r.result.Created++
	return clone
}

// stamp marks clone as the copy of base for this pass, scoped to opt on top
// of whatever scope base already carries.
func (r *reconciler) stamp(clone, base *Panel, scope ScopedVars) {
	clone.RepeatPanelID = base.ID
	clone.RepeatIteration = r.epoch
	clone.Repeat = ""
	clone.ScopedVars = mergeScope(base.ScopedVars, scope)
}

// repeatPanel returns the source followed by one clone per further option,
// positioned by the source's direction. nil means nothing to expand.
func (r *reconciler) repeatPanel(src *Panel, existing []*Panel) []*Panel {
	v, options := r.selection(src.Repeat)
	if len(options) == 0 {
		return nil
	}
	src.ScopedVars = mergeScope(src.ScopedVars, v.scope(options[0]))
	group := []*Panel{src}
	for i, opt := range options[1:] {
		var clone *Panel
		if i < len(existing) {
			clone = existing[i]
			r.result.Reused++
		} else {
			clone = r.fresh(src)
		}
		r.stamp(clone, src, v.scope(opt))
		clone.RepeatedByRow = false
		group = append(group, clone)
	}
	arrange(src, group, len(options))
	return group
}

func arrange(src *Panel, group []*Panel, count int) {
	if src.Direction() == DirectionVertical {
		y := src.GridPos.Bottom()
		for _, clone := range group[1:] {
			h := clone.GridPos.H
			clone.GridPos = grid.MustValidate(grid.Pos{X: src.GridPos.X, Y: y, W: src.GridPos.W, H: h})
			y += h
		}
		return
	}

	perRow := count
	if src.MaxPerRow > 0 && src.MaxPerRow < perRow {
		perRow = src.MaxPerRow
	}
	minWidth := src.MinSpan
	if minWidth <= 0 {
		minWidth = grid.DefaultRepeatMinWidth
	}
	width := grid.ClampWidth(max(grid.ColumnCount/perRow, minWidth))

	x, y, lineHeight := 0, src.GridPos.Y, 0
	for _, p := range group {
		p.GridPos = grid.MustValidate(grid.Pos{X: x, Y: y, W: width, H: p.GridPos.H})
		lineHeight = max(lineHeight, p.GridPos.H)
		x += width
		if x+width > grid.ColumnCount {
			x, y, lineHeight = 0, y+lineHeight, 0
		}
	}
}

// rowBlock is one repetition of a row: the row clone plus, for expanded
// rows, the clones of its members in source member order.
type rowBlock struct {
	header  *Panel
	members []*Panel
}

func (r *reconciler) repeatRow(src *Panel, members []*Panel, existing []*rowBlock) []*rowBlock {
	v, options := r.selection(src.Repeat)
	if len(options) == 0 {
		return nil
	}
	collapsed := src.Row.Collapsed
	if collapsed {
		members = src.Row.Panels
	}
	first := v.scope(options[0])
	src.ScopedVars = mergeScope(src.ScopedVars, first)
	for _, m := range members {
		m.ScopedVars = mergeScope(m.ScopedVars, first)
	}

	blocks := make([]*rowBlock, 0, len(options)-1)
	for i, opt := range options[1:] {
		var blk *rowBlock
		if i < len(existing) {
			blk = existing[i]
			r.result.Reused++
		} else {
			header := r.fresh(src)
			header.Row.Panels = nil
			blk = &rowBlock{header: header}
		}
		scope := v.scope(opt)
		r.stamp(blk.header, src, scope)
		blk.header.RepeatedByRow = false
		blk.header.Row.Collapsed = collapsed
		if collapsed {
			blk.header.Row.Panels = r.rowMembers(members, blk.header.Row.Panels, scope)
			blk.members = nil
		} else {
			blk.header.Row.Panels = nil
			blk.members = r.rowMembers(members, blk.members, scope)
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

// rowMembers pairs every source member with a clone, reusing an existing
// clone of that member when there is one.
func (r *reconciler) rowMembers(sources, existing []*Panel, scope ScopedVars) []*Panel {
	used := make([]bool, len(existing))
	out := make([]*Panel, 0, len(sources))
	for _, m := range sources {
		var clone *Panel
		for k, e := range existing {
			if !used[k] && e.RepeatPanelID == m.ID {
				clone, used[k] = e, true
				break
			}
		}
		if clone != nil {
			r.result.Reused++
		} else {
			clone = r.fresh(m)
		}
		r.stamp(clone, m, scope)
		clone.RepeatedByRow = true
		out = append(out, clone)
	}
	return out
}

// place puts the block's row at top and mirrors the source members below
// it, pulled up into the space left by panels the block does not carry.
func (b *rowBlock) place(src *Panel, members []*Panel, top int) *section {
	offset := top - src.GridPos.Y
	b.header.GridPos = grid.MustValidate(src.GridPos.Shift(offset))
	s := &section{header: b.header}
	for i, clone := range b.members {
		clone.GridPos = grid.MustValidate(members[i].GridPos.Shift(offset))
		s.members = append(s.members, clone)
	}
	compact(b.header, s.members)
	return s
}

// pruneNested drops clones nested in rows that this pass did not stamp.
func (r *reconciler) pruneNested(panels []*Panel) {
	for _, p := range panels {
		if !p.IsRow() {
			continue
		}
		p.Row.Panels = slices.DeleteFunc(p.Row.Panels, func(m *Panel) bool {
			return m.IsClone() && m.RepeatIteration != r.epoch
		})
	}
}

type cloneIndex struct {
	originals []*Panel
	panels    map[int][]*Panel
	rows      map[int][]*rowBlock
}

// indexClones separates originals from clones. Panel clones are keyed by
// source id in grid order; member clones of an expanded row clone follow
// their row clone on the grid.
func indexClones(sorted []*Panel) cloneIndex {
	idx := cloneIndex{panels: map[int][]*Panel{}, rows: map[int][]*rowBlock{}}
	var block *rowBlock
	for _, p := range sorted {
		switch {
		case !p.IsClone():
			idx.originals = append(idx.originals, p)
			if p.IsRow() {
				block = nil
			}
		case p.IsRow():
			block = &rowBlock{header: p}
			idx.rows[p.RepeatPanelID] = append(idx.rows[p.RepeatPanelID], block)
		case p.RepeatedByRow:
			if block != nil {
				block.members = append(block.members, p)
			}
		default:
			idx.panels[p.RepeatPanelID] = append(idx.panels[p.RepeatPanelID], p)
		}
	}
	return idx
}

func indexVariables(variables []*TemplateVariable) map[string]*TemplateVariable {
	out := make(map[string]*TemplateVariable, len(variables))
	for _, v := range variables {
		if v == nil || v.Name == "" {
			continue
		}
		if _, ok := out[v.Name]; !ok {
			out[v.Name] = v
		}
	}
	return out
}

func mergeScope(base, add ScopedVars) ScopedVars {
	out := make(ScopedVars, len(base)+len(add))
	maps.Copy(out, base)
	maps.Copy(out, add)
	return out
}

type sequenceIDs struct{ next int }

func (s *sequenceIDs) NextPanelID() int {
	id := s.next
	s.next++
	return id
}

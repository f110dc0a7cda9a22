package dashboard

import (
	"cmp"
	"slices"

	"github.com/goliatone/go-dashgrid/components/dashboard/grid"
)

// section is a row header and the panels that follow it on the grid. The
// section without a header holds the panels above the first row.
type section struct {
	header  *Panel
	members []*Panel
	groups  [][]*Panel
}

func splitSections(sorted []*Panel) []*section {
	free := &section{}
	sections := []*section{free}
	current := free
	for _, p := range sorted {
		if p.IsRow() {
			current = &section{header: p}
			sections = append(sections, current)
			continue
		}
		current.members = append(current.members, p)
	}
	return sections
}

func (s *section) panels() []*Panel {
	var out []*Panel
	if s.header != nil {
		out = append(out, s.header)
	}
	for _, g := range s.groups {
		out = append(out, g...)
	}
	return append(out, s.members...)
}

// layout removes overlaps inside the section. Repeat groups move first and
// as a whole; the remaining panels are then pushed down one at a time.
func (s *section) layout() {
	var placed []grid.Pos
	if s.header != nil {
		placed = append(placed, s.header.GridPos)
	}
	for _, g := range s.groups {
		settle(g, placed)
		for _, p := range g {
			placed = append(placed, p.GridPos)
		}
	}
	for _, p := range s.members {
		settle([]*Panel{p}, placed)
		placed = append(placed, p.GridPos)
	}
}

// settle shifts the block down until none of its panels overlaps placed.
func settle(block []*Panel, placed []grid.Pos) {
	for {
		dy := 0
		for _, p := range block {
			for _, q := range placed {
				if p.GridPos.Overlaps(q) {
					dy = max(dy, q.Bottom()-p.GridPos.Y)
				}
			}
		}
		if dy == 0 {
			return
		}
		for _, p := range block {
			p.GridPos = grid.MustValidate(p.GridPos.Shift(dy))
		}
	}
}

// stack moves a row section down as a unit when it starts above floor and
// returns the new floor. Sections never move up; the section above the first
// row is never moved.
func (s *section) stack(floor int) int {
	panels := s.panels()
	if len(panels) == 0 {
		return floor
	}
	top, bottom := bounds(panels)
	if s.header != nil && top < floor {
		dy := floor - top
		for _, p := range panels {
			p.GridPos = grid.MustValidate(p.GridPos.Shift(dy))
		}
		bottom += dy
	}
	return max(floor, bottom)
}

// compact pulls panels up towards the bottom of header without letting them
// overlap each other. Panels only move up.
func compact(header *Panel, panels []*Panel) {
	sorted := slices.Clone(panels)
	sortPanels(sorted)
	placed := []grid.Pos{header.GridPos}
	for _, p := range sorted {
		y := header.GridPos.Bottom()
		for _, q := range placed[1:] {
			if p.GridPos.X < q.X+q.W && q.X < p.GridPos.X+p.GridPos.W {
				y = max(y, q.Bottom())
			}
		}
		if y < p.GridPos.Y {
			p.GridPos.Y = y
		}
		placed = append(placed, p.GridPos)
	}
}

func bounds(panels []*Panel) (top, bottom int) {
	for i, p := range panels {
		if i == 0 || p.GridPos.Y < top {
			top = p.GridPos.Y
		}
		bottom = max(bottom, p.GridPos.Bottom())
	}
	return top, bottom
}

// sortPanels orders panels top to bottom, then left to right.
func sortPanels(panels []*Panel) {
	slices.SortStableFunc(panels, func(a, b *Panel) int {
		if c := cmp.Compare(a.GridPos.Y, b.GridPos.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.GridPos.X, b.GridPos.X)
	})
}

func maxPanelID(panels []*Panel) int {
	top := 0
	walkPanels(panels, func(p *Panel) {
		top = max(top, p.ID)
	})
	return top
}

func countClones(panels []*Panel) int {
	n := 0
	walkPanels(panels, func(p *Panel) {
		if p.IsClone() {
			n++
		}
	})
	return n
}

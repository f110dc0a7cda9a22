package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ColumnCount is the width of the dashboard grid in columns.
	ColumnCount = 24
	// LegacyColumnCount is the width of the pre-grid row layout (bootstrap spans).
	LegacyColumnCount = 12
	// CellHeight is the pixel height of one grid row unit.
	CellHeight = 30
	// CellVMargin is the vertical pixel margin between grid row units.
	CellVMargin = 10
	// DefaultRowHeight is the pixel height assumed for legacy rows without one.
	DefaultRowHeight = 250
	// MinPanelHeight is the smallest pixel height a legacy row or panel converts from.
	MinPanelHeight = CellHeight * 3
	// DefaultPanelSpan is the legacy span assumed for panels without one.
	DefaultPanelSpan = 4
	// DefaultRepeatMinWidth is the narrowest horizontal repeat clone, in columns.
	DefaultRepeatMinWidth = 6
)

// Pos is a panel rectangle in grid units.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DefaultPos is used for panels persisted without a gridPos.
func DefaultPos() Pos {
	return Pos{X: 0, Y: 0, W: 6, H: 3}
}

// Right returns the first column after the rectangle.
func (p Pos) Right() int { return p.X + p.W }

// Bottom returns the first row after the rectangle.
func (p Pos) Bottom() int { return p.Y + p.H }

// Overlaps reports whether two rectangles share at least one cell.
func (p Pos) Overlaps(o Pos) bool {
	if p.W <= 0 || p.H <= 0 || o.W <= 0 || o.H <= 0 {
		return false
	}
	return p.X < o.Right() && o.X < p.Right() && p.Y < o.Bottom() && o.Y < p.Bottom()
}

// Shift moves the rectangle down by dy rows.
func (p Pos) Shift(dy int) Pos {
	p.Y += dy
	return p
}

// Validate reports a rectangle that cannot exist on the grid.
func (p Pos) Validate() error {
	switch {
	case p.W <= 0:
		return fmt.Errorf("grid: width %d must be positive", p.W)
	case p.H <= 0:
		return fmt.Errorf("grid: height %d must be positive", p.H)
	case p.X < 0:
		return fmt.Errorf("grid: x %d must not be negative", p.X)
	case p.Y < 0:
		return fmt.Errorf("grid: y %d must not be negative", p.Y)
	case p.Right() > ColumnCount:
		return fmt.Errorf("grid: x+w %d exceeds %d columns", p.Right(), ColumnCount)
	}
	return nil
}

// MustValidate panics when the rectangle is invalid. Positions computed by this
// module must always pass; a failure is a bug in the layout code, not bad input.
func MustValidate(p Pos) Pos {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

// Clamp forces an arbitrary rectangle (usually decoded input) onto the grid.
func Clamp(p Pos) Pos {
	def := DefaultPos()
	if p.W <= 0 {
		p.W = def.W
	}
	if p.W > ColumnCount {
		p.W = ColumnCount
	}
	if p.H <= 0 {
		p.H = def.H
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Right() > ColumnCount {
		p.X = ColumnCount - p.W
	}
	return p
}

// ClampWidth bounds a width to [1, ColumnCount].
func ClampWidth(w int) int {
	if w < 1 {
		return 1
	}
	if w > ColumnCount {
		return ColumnCount
	}
	return w
}

// HeightUnits converts a legacy pixel height into grid row units.
func HeightUnits(px float64) int {
	if px < MinPanelHeight {
		px = MinPanelHeight
	}
	return int(math.Ceil(px / float64(CellHeight+CellVMargin)))
}

// SpanWidth converts a legacy 12-column span into grid columns.
func SpanWidth(span float64) int {
	factor := ColumnCount / LegacyColumnCount
	return ClampWidth(int(math.Floor(span)) * factor)
}

// MinSpanWidth converts a legacy minSpan into grid columns.
func MinSpanWidth(minSpan float64) int {
	w := int(float64(ColumnCount) / float64(LegacyColumnCount) * minSpan)
	return ClampWidth(w)
}

// ParseHeight reads a legacy height that may be a number, a numeric string or
// a "250px" style string. ok is false when no usable value is present.
func ParseHeight(v any) (float64, bool) {
	switch h := v.(type) {
	case float64:
		return h, h != 0
	case float32:
		return float64(h), h != 0
	case int:
		return float64(h), h != 0
	case int64:
		return float64(h), h != 0
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "px"))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// parseInt semantics: keep the leading digits
			end := 0
			for end < len(s) && s[end] >= '0' && s[end] <= '9' {
				end++
			}
			if end == 0 {
				return 0, false
			}
			f, _ = strconv.ParseFloat(s[:end], 64)
		}
		return math.Trunc(f), f != 0
	}
	return 0, false
}

package grid

// RowArea tracks how far each column of a legacy row has been filled while
// its panels are packed onto the grid. Fill values are relative to YPos.
//
//	|******** ****
//	|******** ****
//	|********
//	 33333333 2222 0000...
type RowArea struct {
	fill   []int
	height int
	yPos   int
}

// NewRowArea builds an empty area of the given height (grid units) starting at yPos.
func NewRowArea(height, width, yPos int) *RowArea {
	if width <= 0 {
		width = ColumnCount
	}
	if height <= 0 {
		height = 1
	}
	return &RowArea{
		fill:   make([]int, width),
		height: height,
		yPos:   yPos,
	}
}

// YPos returns the current origin of the area; it advances when panels wrap.
func (r *RowArea) YPos() int { return r.yPos }

// Height returns the target height of the row in grid units.
func (r *RowArea) Height() int { return r.height }

// Fill returns a copy of the per-column fill profile.
func (r *RowArea) Fill() []int {
	return append([]int(nil), r.fill...)
}

// Reset empties every column.
func (r *RowArea) Reset() {
	for i := range r.fill {
		r.fill[i] = 0
	}
}

// Bottom is the first grid row below everything placed in the current band.
func (r *RowArea) Bottom() int {
	return r.yPos + max(r.height, r.tallest())
}

func (r *RowArea) tallest() int {
	top := 0
	for _, v := range r.fill {
		top = max(top, v)
	}
	return top
}

// Add records a placed panel in the fill profile.
func (r *RowArea) Add(pos Pos) {
	filled := pos.Y + pos.H - r.yPos
	for i := max(pos.X, 0); i < pos.Right() && i < len(r.fill); i++ {
		if filled > r.fill[i] {
			r.fill[i] = filled
		}
	}
}

// Position finds where a panel of the given width fits. The returned x is a
// column and y is relative to YPos. When nothing fits the area wraps once: the
// origin moves below the current band and the profile is reset.
func (r *RowArea) Position(width int) (x, y int) {
	width = ClampWidth(min(width, len(r.fill)))
	if x, y, ok := r.scan(width); ok {
		return x, y
	}
	r.yPos = r.Bottom()
	r.Reset()
	if x, y, ok := r.scan(width); ok {
		return x, y
	}
	return 0, 0
}

// scan walks columns right to left collecting a run of columns that still
// have room and whose fill does not grow moving left.
func (r *RowArea) scan(width int) (x, y int, ok bool) {
	start, end := -1, -1
	for i := len(r.fill) - 1; i >= 0; i-- {
		if r.height-r.fill[i] <= 0 {
			break
		}
		if end < 0 {
			end = i
			continue
		}
		if r.fill[i] > r.fill[i+1] {
			break
		}
		start = i
	}
	if start < 0 && end >= 0 && width == 1 {
		start = end
	}
	if start < 0 || end < 0 || end-start < width-1 {
		return 0, 0, false
	}
	top := 0
	for _, v := range r.fill[start:] {
		top = max(top, v)
	}
	return start, top, true
}

// Place positions a panel, records it and returns its absolute rectangle.
func (r *RowArea) Place(width, height int) Pos {
	width = ClampWidth(width)
	if height <= 0 {
		height = r.height
	}
	x, y := r.Position(width)
	pos := Pos{X: x, Y: r.yPos + y, W: width, H: height}
	if pos.Right() > len(r.fill) {
		pos.X = len(r.fill) - pos.W
	}
	r.Add(pos)
	return MustValidate(pos)
}

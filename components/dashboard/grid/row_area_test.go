package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAreaPlacesSideBySide(t *testing.T) {
	area := NewRowArea(8, ColumnCount, 0)

	first := area.Place(12, 8)
	second := area.Place(12, 8)

	assert.Equal(t, Pos{X: 0, Y: 0, W: 12, H: 8}, first)
	assert.Equal(t, Pos{X: 12, Y: 0, W: 12, H: 8}, second)
	assert.Equal(t, 0, area.YPos())
	assert.Equal(t, 8, area.Bottom())
}

func TestRowAreaStacksShortPanels(t *testing.T) {
	area := NewRowArea(8, ColumnCount, 0)

	tall := area.Place(12, 8)
	top := area.Place(12, 4)
	bottom := area.Place(12, 4)

	assert.Equal(t, Pos{X: 0, Y: 0, W: 12, H: 8}, tall)
	assert.Equal(t, Pos{X: 12, Y: 0, W: 12, H: 4}, top)
	assert.Equal(t, Pos{X: 12, Y: 4, W: 12, H: 4}, bottom)
	assert.Equal(t, 0, area.YPos(), "stacking inside the row must not wrap")
}

func TestRowAreaWrapsWhenFull(t *testing.T) {
	area := NewRowArea(4, ColumnCount, 10)

	area.Place(16, 4)
	wrapped := area.Place(16, 4)

	assert.Equal(t, Pos{X: 0, Y: 14, W: 16, H: 4}, wrapped)
	assert.Equal(t, 14, area.YPos())
}

func TestRowAreaWrapClearsTallPanels(t *testing.T) {
	area := NewRowArea(3, ColumnCount, 0)

	tall := area.Place(24, 10)
	next := area.Place(12, 3)

	assert.False(t, tall.Overlaps(next), "wrapping must clear panels taller than the row")
	assert.Equal(t, 10, next.Y)
}

func TestRowAreaNeverOverlaps(t *testing.T) {
	area := NewRowArea(6, ColumnCount, 0)
	widths := []int{8, 4, 12, 6, 6, 24, 2, 10, 14, 1}
	heights := []int{6, 3, 3, 6, 2, 4, 6, 3, 3, 1}

	var placed []Pos
	for i := range widths {
		pos := area.Place(widths[i], heights[i])
		require.NoError(t, pos.Validate())
		for _, other := range placed {
			require.Falsef(t, pos.Overlaps(other), "panel %d at %+v overlaps %+v", i, pos, other)
		}
		placed = append(placed, pos)
	}
}

func TestRowAreaSingleColumnPanel(t *testing.T) {
	area := NewRowArea(3, ColumnCount, 0)
	area.Place(23, 3)

	pos := area.Place(1, 3)

	assert.Equal(t, Pos{X: 23, Y: 0, W: 1, H: 3}, pos)
}

func TestRowAreaFillProfile(t *testing.T) {
	area := NewRowArea(5, ColumnCount, 2)
	area.Add(Pos{X: 0, Y: 2, W: 4, H: 3})

	fill := area.Fill()

	assert.Equal(t, []int{3, 3, 3, 3, 0}, fill[:5])
	area.Reset()
	assert.Equal(t, 0, area.Fill()[0])
}

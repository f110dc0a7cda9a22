package migration

import (
	"github.com/goliatone/go-dashgrid/components/dashboard/grid"
)

// upgradeToGridLayout converts the legacy rows array into absolutely
// positioned panels. Panels already present in the document keep their place
// and the converted rows are appended below them.
func upgradeToGridLayout(ctx *Context, doc Object) {
	rows := asSlice(doc["rows"])
	delete(doc, "rows")
	if len(rows) == 0 {
		return
	}

	panels := asSlice(doc["panels"])
	nextRowID := max(maxPanelID(panels), maxLegacyRowPanelID(rows)) + 1
	if ctx.nextID > nextRowID {
		nextRowID = ctx.nextID
	}

	yPos := 0
	for _, item := range panels {
		if panel, ok := asObject(item); ok {
			if pos, ok := gridPosOf(panel); ok {
				yPos = max(yPos, pos.Bottom())
			}
		}
	}

	showRows := false
	for _, item := range rows {
		row, ok := asObject(item)
		if !ok {
			continue
		}
		if truthy(row["collapse"]) || truthy(row["showTitle"]) || truthy(row["repeat"]) {
			showRows = true
			break
		}
	}

	for _, item := range rows {
		row, ok := asObject(item)
		if !ok || truthy(row["repeatIteration"]) {
			continue
		}

		px, ok := grid.ParseHeight(row["height"])
		if !ok {
			px = grid.DefaultRowHeight
		}
		height := grid.HeightUnits(px)
		rowStart := yPos
		collapsed := truthy(row["collapse"])

		var rowPanel Object
		if showRows {
			rowPanel = Object{
				"id":        nextRowID,
				"type":      "row",
				"title":     row["title"],
				"collapsed": collapsed,
				"panels":    []any{},
				"gridPos":   posObject(grid.MustValidate(grid.Pos{X: 0, Y: yPos, W: grid.ColumnCount, H: 1})),
			}
			if repeat, ok := asString(row["repeat"]); ok && repeat != "" {
				rowPanel["repeat"] = repeat
			}
			nextRowID++
			panels = append(panels, rowPanel)
			yPos++
		}

		area := grid.NewRowArea(height, grid.ColumnCount, yPos)
		var members []any
		for _, p := range asSlice(row["panels"]) {
			panel, ok := asObject(p)
			if !ok {
				continue
			}
			span, ok := asFloat(panel["span"])
			if !ok || span <= 0 {
				span = grid.DefaultPanelSpan
			}
			if minSpan, ok := asFloat(panel["minSpan"]); ok && minSpan > 0 {
				panel["minSpan"] = grid.MinSpanWidth(minSpan)
			}
			panelHeight := height
			if h, ok := grid.ParseHeight(panel["height"]); ok {
				panelHeight = grid.HeightUnits(h)
			}

			pos := area.Place(grid.SpanWidth(span), panelHeight)
			panel["gridPos"] = posObject(pos)
			delete(panel, "span")
			delete(panel, "height")
			members = append(members, panel)
		}

		switch {
		case rowPanel != nil && collapsed:
			if members == nil {
				members = []any{}
			}
			rowPanel["panels"] = members
			yPos = rowStart + 1
		default:
			panels = append(panels, members...)
			yPos = area.Bottom()
		}
	}
	if panels == nil {
		panels = []any{}
	}
	doc["panels"] = panels
}

func maxLegacyRowPanelID(rows []any) int {
	top := 0
	for _, item := range rows {
		if row, ok := asObject(item); ok {
			top = max(top, maxPanelID(asSlice(row["panels"])))
		}
	}
	return top
}

func gridPosOf(panel Object) (grid.Pos, bool) {
	raw, ok := asObject(panel["gridPos"])
	if !ok {
		return grid.Pos{}, false
	}
	x, _ := asInt(raw["x"])
	y, _ := asInt(raw["y"])
	w, _ := asInt(raw["w"])
	h, _ := asInt(raw["h"])
	return grid.Pos{X: x, Y: y, W: w, H: h}, true
}

func posObject(p grid.Pos) Object {
	return Object{"x": p.X, "y": p.Y, "w": p.W, "h": p.H}
}

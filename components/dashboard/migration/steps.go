package migration

import (
	"sort"
	"strings"
)

// Steps returns the version ladder in application order. Two steps share
// version 12: they address unrelated changes shipped in the same release.
func Steps() []Step {
	return []Step{
		{Version: 2, Name: "v2-services-filter", Document: moveServicesFilter, Panel: upgradeGraphV2},
		{Version: 3, Name: "v3-panel-ids", Panel: ensurePanelID},
		{Version: 4, Name: "v4-alias-yaxis", Panel: moveAliasYAxis},
		{Version: 6, Name: "v6-pulldowns", Document: movePulldowns},
		{Version: 7, Name: "v7-nav-refids", Document: moveNav, Panel: ensureRefIDs},
		{Version: 8, Name: "v8-influxdb-targets", Panel: upgradeInfluxTargets},
		{Version: 9, Name: "v9-singlestat-thresholds", Panel: trimSinglestatThresholds},
		{Version: 10, Name: "v10-table-thresholds", Panel: trimTableThresholds},
		{Version: 12, Name: "v12-variable-refresh", Document: normalizeVariableRefresh},
		{Version: 12, Name: "v12-graph-axes", Panel: upgradeGraphAxes},
		{Version: 13, Name: "v13-graph-thresholds", Panel: upgradeGraphThresholds},
		{Version: 14, Name: "v14-shared-crosshair", Document: moveSharedCrosshair},
		{Version: 16, Name: "v16-grid-layout", Document: upgradeToGridLayout},
	}
}

func moveServicesFilter(_ *Context, doc Object) {
	services, ok := asObject(doc["services"])
	if !ok {
		delete(doc, "services")
		return
	}
	if filter, ok := asObject(services["filter"]); ok {
		doc["time"] = filter["time"]
		list := asSlice(filter["list"])
		if list == nil {
			list = []any{}
		}
		ensureObject(doc, "templating")["list"] = list
	}
	delete(doc, "services")
}

func upgradeGraphV2(_ *Context, panel Object) {
	if panel["type"] == "graphite" {
		panel["type"] = "graph"
	}
	if panel["type"] != "graph" {
		return
	}
	if show, ok := panel["legend"].(bool); ok {
		panel["legend"] = Object{"show": show}
	}
	if grid, ok := asObject(panel["grid"]); ok {
		if truthy(grid["min"]) {
			grid["leftMin"] = grid["min"]
			delete(grid, "min")
		}
		if truthy(grid["max"]) {
			grid["leftMax"] = grid["max"]
			delete(grid, "max")
		}
	}
	if truthy(panel["y_format"]) {
		setYFormat(panel, 0, panel["y_format"])
		delete(panel, "y_format")
	}
	if truthy(panel["y2_format"]) {
		setYFormat(panel, 1, panel["y2_format"])
		delete(panel, "y2_format")
	}
}

func setYFormat(panel Object, idx int, format any) {
	formats := asSlice(panel["y_formats"])
	for len(formats) <= idx {
		formats = append(formats, nil)
	}
	formats[idx] = format
	panel["y_formats"] = formats
}

func ensurePanelID(ctx *Context, panel Object) {
	if !truthy(panel["id"]) {
		panel["id"] = ctx.NextPanelID()
	}
}

func moveAliasYAxis(_ *Context, panel Object) {
	if panel["type"] != "graph" {
		return
	}
	aliases, ok := asObject(panel["aliasYAxis"])
	if ok && len(aliases) > 0 {
		keys := make([]string, 0, len(aliases))
		for key := range aliases {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		overrides := asSlice(panel["seriesOverrides"])
		for _, key := range keys {
			overrides = append(overrides, Object{"alias": key, "yaxis": aliases[key]})
		}
		panel["seriesOverrides"] = overrides
	}
	delete(panel, "aliasYAxis")
}

func movePulldowns(_ *Context, doc Object) {
	for _, item := range asSlice(doc["pulldowns"]) {
		pulldown, ok := asObject(item)
		if !ok || pulldown["type"] != "annotations" {
			continue
		}
		list := asSlice(pulldown["annotations"])
		if list == nil {
			list = []any{}
		}
		doc["annotations"] = Object{"list": list}
		break
	}
	delete(doc, "pulldowns")

	for _, variable := range variables(doc) {
		if _, ok := variable["datasource"]; !ok {
			variable["datasource"] = nil
		}
		if t, ok := variable["type"]; !ok || t == nil || t == "filter" {
			variable["type"] = "query"
		}
		if _, ok := variable["allFormat"]; !ok {
			variable["allFormat"] = "glob"
		}
	}
}

func moveNav(_ *Context, doc Object) {
	if nav := asSlice(doc["nav"]); len(nav) > 0 {
		doc["timepicker"] = nav[0]
	}
	delete(doc, "nav")
}

const queryLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func ensureRefIDs(_ *Context, panel Object) {
	targets := asSlice(panel["targets"])
	for _, item := range targets {
		target, ok := asObject(item)
		if !ok || truthy(target["refId"]) {
			continue
		}
		if letter, ok := nextQueryLetter(targets); ok {
			target["refId"] = letter
		}
	}
}

func nextQueryLetter(targets []any) (string, bool) {
	used := make(map[string]bool, len(targets))
	for _, item := range targets {
		if target, ok := asObject(item); ok {
			if ref, ok := asString(target["refId"]); ok {
				used[ref] = true
			}
		}
	}
	for _, r := range queryLetters {
		if letter := string(r); !used[letter] {
			return letter, true
		}
	}
	return "", false
}

func upgradeInfluxTargets(_ *Context, panel Object) {
	for _, item := range asSlice(panel["targets"]) {
		target, ok := asObject(item)
		if !ok || !truthy(target["fields"]) || !truthy(target["tags"]) || !truthy(target["groupBy"]) {
			continue
		}
		if truthy(target["rawQuery"]) {
			delete(target, "fields")
			delete(target, "fill")
			continue
		}

		var selects []any
		for _, f := range asSlice(target["fields"]) {
			field, ok := asObject(f)
			if !ok {
				continue
			}
			parts := []any{
				Object{"type": "field", "params": []any{field["name"]}},
				Object{"type": field["func"], "params": []any{}},
			}
			if truthy(field["mathExpr"]) {
				parts = append(parts, Object{"type": "math", "params": []any{field["mathExpr"]}})
			}
			if truthy(field["asExpr"]) {
				parts = append(parts, Object{"type": "alias", "params": []any{field["asExpr"]}})
			}
			selects = append(selects, parts)
		}
		target["select"] = selects
		delete(target, "fields")

		groupBy := asSlice(target["groupBy"])
		for _, g := range groupBy {
			part, ok := asObject(g)
			if !ok {
				continue
			}
			if part["type"] == "time" && truthy(part["interval"]) {
				part["params"] = []any{part["interval"]}
				delete(part, "interval")
			}
			if part["type"] == "tag" && truthy(part["key"]) {
				part["params"] = []any{part["key"]}
				delete(part, "key")
			}
		}
		if truthy(target["fill"]) {
			groupBy = append(groupBy, Object{"type": "fill", "params": []any{target["fill"]}})
			delete(target, "fill")
		}
		target["groupBy"] = groupBy
	}
}

func trimSinglestatThresholds(_ *Context, panel Object) {
	if panel["type"] != "singlestat" {
		return
	}
	thresholds, ok := asString(panel["thresholds"])
	if !ok || thresholds == "" {
		return
	}
	parts := strings.Split(thresholds, ",")
	if len(parts) >= 3 {
		panel["thresholds"] = strings.Join(parts[1:], ",")
	}
}

func trimTableThresholds(_ *Context, panel Object) {
	if panel["type"] != "table" {
		return
	}
	for _, item := range asSlice(panel["styles"]) {
		style, ok := asObject(item)
		if !ok {
			continue
		}
		if thresholds := asSlice(style["thresholds"]); len(thresholds) >= 3 {
			style["thresholds"] = append([]any{}, thresholds[1:]...)
		}
	}
}

func normalizeVariableRefresh(_ *Context, doc Object) {
	for _, variable := range variables(doc) {
		if truthy(variable["refresh"]) {
			variable["refresh"] = 1
		} else {
			variable["refresh"] = 0
		}
		if truthy(variable["hideVariable"]) {
			variable["hide"] = 2
		} else if truthy(variable["hideLabel"]) {
			variable["hide"] = 1
		}
		delete(variable, "hideVariable")
		delete(variable, "hideLabel")
	}
}

func upgradeGraphAxes(_ *Context, panel Object) {
	if panel["type"] != "graph" {
		return
	}
	grid, ok := asObject(panel["grid"])
	if !ok {
		return
	}
	if _, exists := panel["yaxes"]; exists {
		return
	}
	formats := asSlice(panel["y_formats"])
	format := func(i int) any {
		if i < len(formats) {
			return formats[i]
		}
		return nil
	}

	left := Object{}
	copyIfPresent(left, "show", panel, "y-axis")
	copyIfPresent(left, "min", grid, "leftMin")
	copyIfPresent(left, "max", grid, "leftMax")
	copyIfPresent(left, "logBase", grid, "leftLogBase")
	copyIfPresent(left, "label", panel, "leftYAxisLabel")
	if f := format(0); f != nil {
		left["format"] = f
	}

	right := Object{}
	copyIfPresent(right, "show", panel, "y-axis")
	copyIfPresent(right, "min", grid, "rightMin")
	copyIfPresent(right, "max", grid, "rightMax")
	copyIfPresent(right, "logBase", grid, "rightLogBase")
	copyIfPresent(right, "label", panel, "rightYAxisLabel")
	if f := format(1); f != nil {
		right["format"] = f
	}

	panel["yaxes"] = []any{left, right}
	xaxis := Object{}
	copyIfPresent(xaxis, "show", panel, "x-axis")
	panel["xaxis"] = xaxis

	for _, key := range []string{"leftMin", "leftMax", "leftLogBase", "rightMin", "rightMax", "rightLogBase"} {
		delete(grid, key)
	}
	for _, key := range []string{"y_formats", "leftYAxisLabel", "rightYAxisLabel", "y-axis", "x-axis"} {
		delete(panel, key)
	}
}

func upgradeGraphThresholds(_ *Context, panel Object) {
	if panel["type"] != "graph" {
		return
	}
	panel["thresholds"] = []any{}
	grid, ok := asObject(panel["grid"])
	if !ok {
		return
	}
	line := truthy(grid["thresholdLine"])
	build := func(value, color any) Object {
		t := Object{"value": value, "colorMode": "custom"}
		if line {
			t["line"] = true
			t["lineColor"] = color
		} else {
			t["fill"] = true
			t["fillColor"] = color
		}
		return t
	}

	thresholds := []any{}
	if isNumber(grid["threshold1"]) {
		t1 := build(grid["threshold1"], grid["threshold1Color"])
		if isNumber(grid["threshold2"]) {
			t2 := build(grid["threshold2"], grid["threshold2Color"])
			v1, _ := asFloat(grid["threshold1"])
			v2, _ := asFloat(grid["threshold2"])
			op := "gt"
			if v1 > v2 {
				op = "lt"
			}
			t1["op"], t2["op"] = op, op
			thresholds = append(thresholds, t1, t2)
		} else {
			t1["op"] = "gt"
			thresholds = append(thresholds, t1)
		}
	}
	panel["thresholds"] = thresholds

	for _, key := range []string{"threshold1", "threshold1Color", "threshold2", "threshold2Color", "thresholdLine"} {
		delete(grid, key)
	}
}

func moveSharedCrosshair(_ *Context, doc Object) {
	if truthy(doc["sharedCrosshair"]) {
		doc["graphTooltip"] = 1
	} else {
		doc["graphTooltip"] = 0
	}
	delete(doc, "sharedCrosshair")
}

package dashboard

import (
	"slices"
	"strings"
)

const (
	// AllText is the display text of the "All" pseudo-option.
	AllText = "All"
	// AllValue is the value of the "All" pseudo-option.
	AllValue = "$__all"
)

// VariableOption is one selectable value of a template variable.
type VariableOption struct {
	Text     string `json:"text"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// IsAll reports whether the option is the "All" pseudo-option.
func (o VariableOption) IsAll() bool {
	return o.Value == AllValue || o.Text == AllText
}

// TemplateVariable is a dashboard variable. Repeat sources name one of these.
type TemplateVariable struct {
	Name       string
	Type       string
	Multi      bool
	IncludeAll bool
	Current    map[string]any
	Options    []VariableOption
	Extra      map[string]any
}

// AllSelected reports whether the current selection is the "All" sentinel.
func (v *TemplateVariable) AllSelected() bool {
	if v == nil || v.Current == nil {
		return false
	}
	if stringValue(v.Current["text"]) == AllText {
		return true
	}
	return slices.Contains(stringsValue(v.Current["value"]), AllValue)
}

// SelectedOptions returns the options a repeat expands into, in option order.
// With "All" current that is every real option. Variables persisted without
// selection flags fall back to the current value.
func (v *TemplateVariable) SelectedOptions() []VariableOption {
	if v == nil {
		return nil
	}
	var selected []VariableOption
	if v.AllSelected() {
		for _, opt := range v.Options {
			if !opt.IsAll() {
				selected = append(selected, opt)
			}
		}
		return selected
	}
	for _, opt := range v.Options {
		if opt.Selected && !opt.IsAll() {
			selected = append(selected, opt)
		}
	}
	if len(selected) > 0 {
		return selected
	}

	for _, value := range stringsValue(v.Current["value"]) {
		if value == "" || value == AllValue {
			continue
		}
		idx := slices.IndexFunc(v.Options, func(o VariableOption) bool { return o.Value == value })
		if idx >= 0 {
			selected = append(selected, v.Options[idx])
			continue
		}
		selected = append(selected, VariableOption{Text: value, Value: value, Selected: true})
	}
	return selected
}

// Select makes values the current selection. AllValue (or AllText) selects
// the "All" sentinel. Values matching no option are ignored unless the
// variable has no options at all, in which case they are taken as given.
func (v *TemplateVariable) Select(values ...string) {
	all := slices.ContainsFunc(values, func(s string) bool { return s == AllValue || s == AllText })

	var texts, picked []string
	for i := range v.Options {
		opt := &v.Options[i]
		if all {
			opt.Selected = opt.IsAll()
			continue
		}
		opt.Selected = !opt.IsAll() && slices.Contains(values, opt.Value)
		if opt.Selected {
			texts = append(texts, opt.Text)
			picked = append(picked, opt.Value)
		}
	}
	switch {
	case all:
		texts, picked = []string{AllText}, []string{AllValue}
	case len(v.Options) == 0:
		texts, picked = values, values
	}

	current := map[string]any{"text": strings.Join(texts, " + ")}
	if v.Multi || len(picked) > 1 {
		list := make([]any, 0, len(picked))
		for _, value := range picked {
			list = append(list, value)
		}
		current["value"] = list
	} else if len(picked) == 1 {
		current["value"] = picked[0]
	} else {
		current["value"] = ""
	}
	v.Current = current
}

func (v *TemplateVariable) scope(opt VariableOption) ScopedVars {
	return ScopedVars{v.Name: {Text: opt.Text, Value: opt.Value, Selected: true}}
}

func variableFromObject(obj map[string]any) *TemplateVariable {
	v := &TemplateVariable{Extra: map[string]any{}}
	for key, value := range obj {
		switch key {
		case "name":
			v.Name = stringValue(value)
		case "type":
			v.Type = stringValue(value)
		case "multi":
			v.Multi = boolValue(value)
		case "includeAll":
			v.IncludeAll = boolValue(value)
		case "current":
			if current, ok := value.(map[string]any); ok {
				v.Current = current
			}
		case "options":
			for _, item := range sliceValue(value) {
				opt, ok := item.(map[string]any)
				if !ok {
					continue
				}
				v.Options = append(v.Options, VariableOption{
					Text:     stringValue(opt["text"]),
					Value:    stringValue(opt["value"]),
					Selected: boolValue(opt["selected"]),
				})
			}
		default:
			v.Extra[key] = value
		}
	}
	return v
}

func (v *TemplateVariable) object() map[string]any {
	out := make(map[string]any, len(v.Extra)+6)
	for key, value := range v.Extra {
		out[key] = value
	}
	out["name"] = v.Name
	if v.Type != "" {
		out["type"] = v.Type
	}
	out["multi"] = v.Multi
	out["includeAll"] = v.IncludeAll
	if v.Current != nil {
		out["current"] = v.Current
	}
	options := make([]any, 0, len(v.Options))
	for _, opt := range v.Options {
		options = append(options, map[string]any{"text": opt.Text, "value": opt.Value, "selected": opt.Selected})
	}
	out["options"] = options
	return out
}

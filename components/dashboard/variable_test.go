package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testVariable(multi bool) *TemplateVariable {
	return &TemplateVariable{
		Name:  "host",
		Multi: multi,
		Options: []VariableOption{
			{Text: AllText, Value: AllValue},
			{Text: "web-1", Value: "web1"},
			{Text: "web-2", Value: "web2"},
			{Text: "db-1", Value: "db1"},
		},
	}
}

func TestSelectMarksOptions(t *testing.T) {
	v := testVariable(true)

	v.Select("db1", "web1", "missing")

	assert.Equal(t, []VariableOption{
		{Text: "web-1", Value: "web1", Selected: true},
		{Text: "db-1", Value: "db1", Selected: true},
	}, v.SelectedOptions())
	assert.Equal(t, map[string]any{"text": "web-1 + db-1", "value": []any{"web1", "db1"}}, v.Current)
}

func TestSelectSingleValue(t *testing.T) {
	v := testVariable(false)

	v.Select("web2")

	assert.Equal(t, map[string]any{"text": "web-2", "value": "web2"}, v.Current)
	assert.Len(t, v.SelectedOptions(), 1)
}

func TestSelectAllExpandsToEveryOption(t *testing.T) {
	v := testVariable(true)

	v.Select(AllValue)

	assert.True(t, v.AllSelected())
	assert.True(t, v.Options[0].Selected)
	assert.Len(t, v.SelectedOptions(), 3)
	assert.Equal(t, map[string]any{"text": AllText, "value": []any{AllValue}}, v.Current)
}

func TestSelectWithoutOptionsKeepsValues(t *testing.T) {
	v := &TemplateVariable{Name: "region"}

	v.Select("eu", "us")

	assert.Equal(t, []VariableOption{
		{Text: "eu", Value: "eu", Selected: true},
		{Text: "us", Value: "us", Selected: true},
	}, v.SelectedOptions())
}

func TestSelectedOptionsFallsBackToCurrent(t *testing.T) {
	v := testVariable(true)
	v.Current = map[string]any{"text": "web-2", "value": "web2"}

	assert.Equal(t, []VariableOption{{Text: "web-2", Value: "web2"}}, v.SelectedOptions())
}

func TestNilVariableHasNoSelection(t *testing.T) {
	var v *TemplateVariable

	assert.False(t, v.AllSelected())
	assert.Empty(t, v.SelectedOptions())
}

func TestVariableObjectRoundTrip(t *testing.T) {
	v := testVariable(true)
	v.Type = "query"
	v.Extra = map[string]any{"datasource": "prom"}
	v.Select("web1")

	decoded := variableFromObject(v.object())

	assert.Equal(t, v, decoded)
}

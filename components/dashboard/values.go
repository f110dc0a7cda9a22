package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func intValue(v any) (int, bool) {
	f, ok := floatValue(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []any:
		parts := make([]string, 0, len(s))
		for _, item := range s {
			parts = append(parts, stringValue(item))
		}
		return strings.Join(parts, " + ")
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func stringsValue(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return []string{s}
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, stringValue(item))
		}
		return out
	}
	return []string{stringValue(v)}
}

func sliceValue(v any) []any {
	s, _ := v.([]any)
	return s
}

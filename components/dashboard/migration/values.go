package migration

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

func asObject(v any) (Object, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok && obj != nil
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []Object:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
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

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	}
	return false
}

// truthy mirrors the loose truthiness legacy documents were written against.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func ensureObject(parent Object, key string) Object {
	if obj, ok := asObject(parent[key]); ok {
		return obj
	}
	obj := Object{}
	parent[key] = obj
	return obj
}

// copyIfPresent copies src[srcKey] to dst[dstKey] when the key exists.
func copyIfPresent(dst Object, dstKey string, src Object, srcKey string) {
	if src == nil {
		return
	}
	if v, ok := src[srcKey]; ok {
		dst[dstKey] = v
	}
}

func variables(doc Object) []Object {
	templating, ok := asObject(doc["templating"])
	if !ok {
		return nil
	}
	var out []Object
	for _, item := range asSlice(templating["list"]) {
		if v, ok := asObject(item); ok {
			out = append(out, v)
		}
	}
	return out
}

package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answers is the raw answer mapping sent by a client, keyed by field id.
// Values are whatever encoding/json produced: strings, float64, bool,
// []any or nil.
type Answers map[string]any

// toNumber coerces numbers and numeric strings. Everything else, including
// the empty string, is not a number.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringify renders an answer the way a browser would coerce it to text:
// false and nil become empty, lists are comma joined.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(s)
	}
}

// isEmpty reports whether an answer counts as not given.
func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case bool:
		return !s
	case []any:
		return len(s) == 0
	case []string:
		return len(s) == 0
	case []FileRef:
		return len(s) == 0
	}
	return false
}

// toStrings turns a single string or a list of strings into a list.
func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case string:
		return []string{s}, true
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "yes", "1":
			return true, true
		case "false", "off", "no", "0", "":
			return false, true
		}
	}
	return false, false
}

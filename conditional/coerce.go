package conditional

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// stringify renders any form-data value as a string for string-family
// comparison.  Composite values go through JSON.
func stringify(x interface{}) string {
	switch v := x.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		js, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(js)
	}
}

// toNumber coerces a value to a float64 if it can.
func toNumber(x interface{}) (float64, bool) {
	switch v := x.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// truthy implements the permissive boolean parse: true/yes/1/on
// (case-insensitive), plus real booleans and non-zero numbers.
func truthy(x interface{}) bool {
	switch v := x.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "on":
			return true
		}
		return false
	default:
		return false
	}
}

// dateLayouts are tried in order when parsing a date-typed value.
// RFC3339 covers API-supplied values; the rest cover what the GOV.UK
// date inputs and admins produce.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// toTime coerces a value to a time.
func toTime(x interface{}) (time.Time, bool) {
	switch v := x.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// toList coerces a value to a list of strings.  Accepts real lists,
// JSON array strings, and comma-separated strings.
func toList(x interface{}) []string {
	switch v := x.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []interface{}:
		acc := make([]string, 0, len(v))
		for _, y := range v {
			acc = append(acc, stringify(y))
		}
		return acc
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var ys []interface{}
			if err := json.Unmarshal([]byte(s), &ys); err == nil {
				acc := make([]string, 0, len(ys))
				for _, y := range ys {
					acc = append(acc, stringify(y))
				}
				return acc
			}
		}
		parts := strings.Split(s, ",")
		acc := make([]string, 0, len(parts))
		for _, p := range parts {
			acc = append(acc, strings.TrimSpace(p))
		}
		return acc
	default:
		return []string{stringify(x)}
	}
}

// isEmptyValue reports whether a form-data value counts as empty:
// nil, a whitespace-only string, or an empty list/map.
func isEmptyValue(x interface{}) bool {
	switch v := x.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

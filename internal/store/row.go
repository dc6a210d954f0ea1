package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Has reports whether column is present and not null.
func (r Row) Has(column string) bool {
	v, ok := r[column]
	return ok && v != nil
}

func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// StringPtr returns nil for absent or null columns.
func (r Row) StringPtr(column string) *string {
	if !r.Has(column) {
		return nil
	}
	s := r.String(column)
	return &s
}

func (r Row) Float(column string) float64 {
	f, _ := toFloat(r[column])
	return f
}

func (r Row) FloatPtr(column string) *float64 {
	f, ok := toFloat(r[column])
	if !ok {
		return nil
	}
	return &f
}

func (r Row) Int(column string) int {
	f, _ := toFloat(r[column])
	return int(f)
}

func (r Row) IntPtr(column string) *int {
	f, ok := toFloat(r[column])
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Time converts timestamp columns, including string timestamps, to
// time.Time. Unparseable or null values yield the zero time.
func (r Row) Time(column string) time.Time {
	t, _ := toTime(r[column])
	return t
}

func (r Row) TimePtr(column string) *time.Time {
	t, ok := toTime(r[column])
	if !ok {
		return nil
	}
	return &t
}

// Date formats a date column as YYYY-MM-DD.
func (r Row) Date(column string) string {
	switch v := r[column].(type) {
	case time.Time:
		return v.Format(time.DateOnly)
	case string:
		if t, ok := toTime(v); ok {
			return t.Format(time.DateOnly)
		}
		return v
	default:
		return ""
	}
}

// JSON returns a json column decoded into generic values. Columns holding
// raw bytes or strings are unmarshalled.
func (r Row) JSON(column string) any {
	switch v := r[column].(type) {
	case []byte:
		var out any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil
		}
		return out
	case string:
		var out any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return v
		}
		return out
	default:
		return v
	}
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Compare orders two storage values of the same column. Nulls sort first.
// Numbers, times (including string timestamps) and strings are supported.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmpFloat(fa, fb)
		}
	}
	_, aIsTime := a.(time.Time)
	_, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		ta, okA := toTime(a)
		tb, okB := toTime(b)
		if okA && okB {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

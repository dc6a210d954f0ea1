package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRowAccessors(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	r := Row{
		"name":    "Latte",
		"price":   "4.50",
		"count":   int64(3),
		"ok":      true,
		"flag":    "true",
		"at":      ts,
		"at_text": "2024-03-01T12:30:00Z",
		"day":     "2024-03-01",
		"nothing": nil,
		"payload": `{"a":1}`,
	}

	assert.Equal(t, "Latte", r.String("name"))
	assert.Equal(t, "", r.String("missing"))
	assert.Equal(t, 4.5, r.Float("price"))
	assert.Equal(t, 3, r.Int("count"))
	assert.True(t, r.Bool("ok"))
	assert.True(t, r.Bool("flag"))
	assert.False(t, r.Bool("missing"))
	assert.Equal(t, ts, r.Time("at"))
	assert.Equal(t, ts, r.Time("at_text"))
	assert.Equal(t, "2024-03-01", r.Date("at"))
	assert.Equal(t, "2024-03-01", r.Date("day"))
	assert.Equal(t, map[string]any{"a": float64(1)}, r.JSON("payload"))

	assert.True(t, r.Has("name"))
	assert.False(t, r.Has("nothing"))
	assert.False(t, r.Has("missing"))
	assert.Nil(t, r.StringPtr("nothing"))
	assert.Nil(t, r.FloatPtr("nothing"))
	assert.Nil(t, r.IntPtr("missing"))
	assert.Nil(t, r.TimePtr("nothing"))
}

func TestRowClone(t *testing.T) {
	r := Row{"a": 1}
	c := r.Clone()
	c["a"] = 2

	assert.Equal(t, 1, r["a"])
}

func TestCompare(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{name: "both nil", a: nil, b: nil, want: 0},
		{name: "nil first", a: nil, b: 1, want: -1},
		{name: "nil last", a: 1, b: nil, want: 1},
		{name: "mixed numbers", a: int64(2), b: 2.5, want: -1},
		{name: "numeric string", a: "10", b: 9, want: 1},
		{name: "times", a: late, b: early, want: 1},
		{name: "time against text", a: early, b: "2024-01-01T00:00:00Z", want: 0},
		{name: "bools", a: false, b: true, want: -1},
		{name: "strings", a: "apple", b: "banana", want: -1},
		{name: "equal strings", a: "pear", b: "pear", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestColumnAndIndex(t *testing.T) {
	rows := []Row{
		{"id": "a", "menu_item_id": "m1"},
		{"id": "b", "menu_item_id": "m2"},
		{"id": "c", "menu_item_id": "m1"},
		{"id": "d", "menu_item_id": nil},
	}

	if diff := cmp.Diff([]any{"m1", "m2"}, Column(rows, "menu_item_id")); diff != "" {
		t.Errorf("Column() mismatch (-want +got):\n%s", diff)
	}

	idx := Index(rows, "id")
	assert.Len(t, idx, 4)
	assert.Equal(t, "m2", idx["b"]["menu_item_id"])
}

func TestQueryBuildersCopy(t *testing.T) {
	base := From("orders").Where(Eq("status", "new"))
	a := base.Where(Eq("table_number", 1)).OrderBy(Desc("created_at"))
	b := base.Where(Eq("table_number", 2)).Limit(5)

	assert.Len(t, base.Filters, 1)
	assert.Empty(t, base.Orders)
	assert.Equal(t, 1, a.Filters[1].Value)
	assert.Equal(t, 2, b.Filters[1].Value)
	assert.Equal(t, 5, b.Max)
	assert.Equal(t, 0, a.Max)
}

func TestInStrings(t *testing.T) {
	f := InStrings("status", "new", "ready")

	assert.Equal(t, OpIn, f.Op)
	assert.Equal(t, []any{"new", "ready"}, f.Values())
	assert.Empty(t, Eq("a", 1).Values())
}

package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	type patch struct {
		Price Optional[float64] `json:"price"`
		Notes Optional[string]  `json:"notes"`
	}

	tests := []struct {
		name      string
		input     string
		wantPrice Optional[float64]
		wantRow   map[string]any
	}{
		{name: "absent", input: `{}`, wantRow: map[string]any{}},
		{name: "null", input: `{"notes":null}`, wantRow: map[string]any{"notes": nil}},
		{
			name:      "value",
			input:     `{"price":9.5,"notes":"no ice"}`,
			wantPrice: Some(9.5),
			wantRow:   map[string]any{"price": 9.5, "notes": "no ice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))

			assert.Equal(t, tt.wantPrice, p.Price)
			row := map[string]any{}
			p.Price.Put(row, "price")
			p.Notes.Put(row, "notes")
			assert.Equal(t, tt.wantRow, row)
		})
	}
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
	}{A: Some(3)})
	require.NoError(t, err)

	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
	assert.True(t, Some("x").Present())
	assert.False(t, Optional[string]{Set: true, Null: true}.Present())
}

package postgres

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		q        store.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "plain",
			q:       store.From("menu_items"),
			wantSQL: `SELECT * FROM "menu_items"`,
		},
		{
			name: "filters orders and limit",
			q: store.From("orders").
				Where(store.Eq("table_number", 4), store.IsNull("split_people")).
				OrderBy(store.Desc("created_at"), store.Asc("id")).
				Limit(1),
			wantSQL:  `SELECT * FROM "orders" WHERE "table_number" = $1 AND "split_people" IS NULL ORDER BY "created_at" DESC, "id" ASC LIMIT 1`,
			wantArgs: []any{4},
		},
		{
			name:     "in compares text",
			q:        store.From("orders").Where(store.InStrings("status", "new", "ready"), store.Gte("total", 10)),
			wantSQL:  `SELECT * FROM "orders" WHERE "status"::text = ANY($1::text[]) AND "total" >= $2`,
			wantArgs: []any{[]string{"new", "ready"}, 10},
		},
		{
			name:    "empty in matches nothing",
			q:       store.From("menu_items").Where(store.In("id", nil)),
			wantSQL: `SELECT * FROM "menu_items" WHERE FALSE`,
		},
		{
			name:    "identifiers are quoted",
			q:       store.From(`bad"name`).Where(store.NotNull("x")),
			wantSQL: `SELECT * FROM "bad""name" WHERE "x" IS NOT NULL`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := buildSelect(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, stmt.sql)
			if diff := cmp.Diff(tt.wantArgs, stmt.args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSelectUnsupportedOperator(t *testing.T) {
	_, err := buildSelect(store.From("orders").Where(store.Filter{Column: "a", Op: "like", Value: "x"}))
	assert.Error(t, err)
}

func TestBuildInsert(t *testing.T) {
	stmt := buildInsert("ratings", store.Row{"rating": 5, "menu_item_id": "m1", "comment": nil})

	assert.Equal(t, `INSERT INTO "ratings" ("comment", "menu_item_id", "rating") VALUES ($1, $2, $3) RETURNING *`, stmt.sql)
	assert.Equal(t, []any{nil, "m1", 5}, stmt.args)

	empty := buildInsert("ratings", store.Row{})
	assert.Equal(t, `INSERT INTO "ratings" DEFAULT VALUES RETURNING *`, empty.sql)
	assert.Empty(t, empty.args)
}

func TestBuildUpdate(t *testing.T) {
	stmt, err := buildUpdate("orders", store.Row{"status": "paid", "updated_at": "now"}, []store.Filter{store.Eq("id", "o1")})
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "orders" SET "status" = $1, "updated_at" = $2 WHERE "id" = $3 RETURNING *`, stmt.sql)
	assert.Equal(t, []any{"paid", "now", "o1"}, stmt.args)

	_, err = buildUpdate("orders", store.Row{}, nil)
	assert.Error(t, err)
}

func TestBuildDelete(t *testing.T) {
	stmt, err := buildDelete("employees", []store.Filter{store.Eq("id", "e1")})
	require.NoError(t, err)

	assert.Equal(t, `DELETE FROM "employees" WHERE "id" = $1`, stmt.sql)
	assert.Equal(t, []any{"e1"}, stmt.args)
}

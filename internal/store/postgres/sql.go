package postgres

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

// statement is a SQL text with its positional arguments.
type statement struct {
	sql  string
	args []any
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func buildSelect(q store.Query) (statement, error) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT * FROM ")
	b.WriteString(ident(q.Table))

	where, args, err := buildWhere(q.Filters, args)
	if err != nil {
		return statement{}, err
	}
	b.WriteString(where)

	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = ident(o.Column) + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if q.Max > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Max))
	}

	return statement{sql: b.String(), args: args}, nil
}

func buildInsert(table string, row store.Row) statement {
	cols := sortedColumns(row)
	if len(cols) == 0 {
		return statement{sql: "INSERT INTO " + ident(table) + " DEFAULT VALUES RETURNING *"}
	}

	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = row[c]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	return statement{sql: sql, args: args}
}

func buildUpdate(table string, set store.Row, filters []store.Filter) (statement, error) {
	cols := sortedColumns(set)
	if len(cols) == 0 {
		return statement{}, fmt.Errorf("postgres: update %s: no columns to set", table)
	}

	args := make([]any, 0, len(cols)+len(filters))
	assignments := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, set[c])
		assignments[i] = ident(c) + " = $" + strconv.Itoa(len(args))
	}

	where, args, err := buildWhere(filters, args)
	if err != nil {
		return statement{}, err
	}

	sql := "UPDATE " + ident(table) + " SET " + strings.Join(assignments, ", ") + where + " RETURNING *"
	return statement{sql: sql, args: args}, nil
}

func buildDelete(table string, filters []store.Filter) (statement, error) {
	where, args, err := buildWhere(filters, nil)
	if err != nil {
		return statement{}, err
	}
	return statement{sql: "DELETE FROM " + ident(table) + where, args: args}, nil
}

func buildWhere(filters []store.Filter, args []any) (string, []any, error) {
	if len(filters) == 0 {
		return "", args, nil
	}

	conds := make([]string, len(filters))
	for i, f := range filters {
		col := ident(f.Column)
		switch f.Op {
		case store.OpIsNull:
			conds[i] = col + " IS NULL"
			continue
		case store.OpNotNull:
			conds[i] = col + " IS NOT NULL"
			continue
		case store.OpIn:
			values := f.Values()
			if len(values) == 0 {
				conds[i] = "FALSE"
				continue
			}
			texts := make([]string, len(values))
			for j, v := range values {
				texts[j] = fmt.Sprint(v)
			}
			args = append(args, texts)
			conds[i] = col + "::text = ANY($" + strconv.Itoa(len(args)) + "::text[])"
			continue
		}

		op, ok := comparisonOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("postgres: unsupported filter operator %q", f.Op)
		}
		args = append(args, f.Value)
		conds[i] = col + " " + op + " $" + strconv.Itoa(len(args))
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

var comparisonOps = map[store.Op]string{
	store.OpEq:  "=",
	store.OpNeq: "<>",
	store.OpGt:  ">",
	store.OpGte: ">=",
	store.OpLt:  "<",
	store.OpLte: "<=",
}

func sortedColumns(row store.Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

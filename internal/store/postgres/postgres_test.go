package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/config"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/postgres"
)

var testDB *db.Postgres

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TestMain connects to the database named by the DB_*_TEST variables. The
// tests in this file are skipped when DB_HOST_TEST is not set.
func TestMain(m *testing.M) {
	if os.Getenv("DB_HOST_TEST") == "" {
		os.Exit(m.Run())
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("DB_HOST_TEST"),
		Port:     envOr("DB_PORT_TEST", "5432"),
		User:     envOr("DB_USER_TEST", "postgres"),
		Password: envOr("DB_PASSWORD_TEST", "postgres"),
		DBName:   envOr("DB_NAME_TEST", "restaurant_pos_test"),
		SSLMode:  envOr("DB_SSLMODE_TEST", "disable"),
		MaxConns: 5,
		MinConns: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	var err error
	testDB, err = db.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Msg("Failed to connect to test database")
	}
	if err := db.Migrate(cfg.MigrationURL()); err != nil {
		testDB.Close()
		log.Fatal().Err(err).Msg("Failed to migrate test database")
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testDB == nil {
		t.Skip("DB_HOST_TEST is not set")
	}
	_, err := testDB.Pool.Exec(context.Background(),
		"TRUNCATE menu_items, orders, order_items, restaurant_tables, employees, shifts CASCADE")
	require.NoError(t, err)
	return postgres.New(testDB.Pool)
}

func TestStore_InsertSelect(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, "menu_items", store.Row{
		"name_en": "Tea", "name_ru": "Чай", "name_kk": "Шай", "category": "drink", "price": 2.35,
	})
	require.NoError(t, err)

	assert.Len(t, created.String("id"), 36, "uuid is returned as text")
	assert.Equal(t, 2.35, created.Float("price"))
	assert.True(t, created.Bool("is_available"))
	assert.False(t, created.Time("created_at").IsZero())
	assert.Nil(t, created["cost"])

	rows, err := s.Select(ctx, store.From("menu_items").Where(store.InStrings("id", created.String("id"), "00000000-0000-4000-8000-000000000000")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, created.String("id"), rows[0].String("id"))

	none, err := s.Select(ctx, store.From("menu_items").Where(store.In("id", nil)))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_UpdateDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "restaurant_tables", store.Row{"number": 4, "capacity": 2})
	require.NoError(t, err)

	rows, err := s.Update(ctx, "restaurant_tables", store.Row{"status": "reserved", "reserved_by": "Lee"}, store.Eq("number", 4))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Int("number"))
	assert.Equal(t, "Lee", rows[0].String("reserved_by"))

	n, err := s.Delete(ctx, "restaurant_tables", store.Eq("number", 4))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStore_ClassifiesViolations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "orders", store.Row{"table_number": 1, "status": "new"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, "orders", store.Row{"table_number": 1, "status": "preparing"})
	assert.ErrorIs(t, err, store.ErrConflict, "one active order per table")

	_, err = s.Insert(ctx, "orders", store.Row{"table_number": 1, "status": "unknown"})
	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestStore_InTx(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Insert(ctx, "restaurant_tables", store.Row{"number": 9}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := s.Select(ctx, store.From("restaurant_tables"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_ShiftTimes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	emp, err := s.Insert(ctx, "employees", store.Row{"name": "Ana", "role": "chef"})
	require.NoError(t, err)

	shift, err := s.Insert(ctx, "shifts", store.Row{
		"employee_id": emp.String("id"), "date": "2024-06-03", "start_time": "09:00", "end_time": "17:30",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-03", shift.Date("date"))
	assert.Equal(t, "09:00", shift.String("start_time"))
	assert.Equal(t, "17:30", shift.String("end_time"))
}

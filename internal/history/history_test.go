package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/memory"
)

func newService() (*Service, *memory.Store) {
	tick := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	return NewService(s, func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}), s
}

func saveInput(table int, total float64) SaveInput {
	return SaveInput{
		TableNumber: table,
		OrderID:     uuid.Must(uuid.NewV4()).String(),
		Items: []ItemSnapshot{
			{MenuItemID: uuid.Must(uuid.NewV4()).String(), Name: "Beshbarmak", Quantity: 2, Price: 7.5},
		},
		Total: &total,
	}
}

func TestService_SaveAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	res, err := svc.Save(ctx, saveInput(3, 15))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.HistoryID)

	entries, err := svc.GetByTable(ctx, GetByTableInput{TableNumber: 3})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.HistoryID, entries[0].ID)
	data, ok := entries[0].OrderData.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(15), data["total"])
	items, ok := data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Beshbarmak", item["name"])
	assert.Equal(t, float64(2), item["quantity"])
	assert.Equal(t, 7.5, item["price"])

	other, err := svc.GetByTable(ctx, GetByTableInput{TableNumber: 4})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestService_GetByTableCapsEntries(t *testing.T) {
	svc, s := newService()
	ctx := context.Background()

	for i := 0; i < MaxEntries+3; i++ {
		_, err := svc.Save(ctx, saveInput(1, float64(i)))
		require.NoError(t, err)
	}

	entries, err := svc.GetByTable(ctx, GetByTableInput{TableNumber: 1})
	require.NoError(t, err)

	assert.Len(t, s.Rows(TableName), MaxEntries+3)
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, float64(MaxEntries+2), entries[0].OrderData.(map[string]any)["total"], "newest first")
}

func TestSaveValidation(t *testing.T) {
	svc, s := newService()
	r := rpc.NewRegistry()
	svc.Register(r)

	input := fmt.Sprintf(`{"tableNumber":1,"orderId":%q,"items":[{"menuItemId":"nope","name":"","quantity":0}],"total":5}`, uuid.Must(uuid.NewV4()))
	_, err := r.Call(context.Background(), "customerHistory.save", json.RawMessage(input))

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	fields := make([]string, len(rpcErr.Fields))
	for i, f := range rpcErr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"items[0].menuItemId", "items[0].name", "items[0].quantity"}, fields)
	assert.Empty(t, s.Rows(TableName))
}

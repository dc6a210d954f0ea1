package supplier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/memory"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := NewService(s)

	phone := "+7 700 000 00 00"
	created, err := svc.Create(ctx, CreateInput{Name: "Bakery", Phone: &phone})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.Email)
	require.NotNil(t, created.Phone)
	assert.Equal(t, phone, *created.Phone)

	_, err = svc.Create(ctx, CreateInput{Name: "Abattoir"})
	require.NoError(t, err)

	all, err := svc.GetAll(ctx, rpc.Empty{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Abattoir", all[0].Name)

	ok, err := Exists(ctx, s, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(ctx, s, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	r := rpc.NewRegistry()
	s := memory.New()
	NewService(s).Register(r)

	_, err := r.Call(context.Background(), "suppliers.create", []byte(`{"name":"Dairy","email":"not-an-email"}`))

	require.Error(t, err)
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, []rpc.FieldError{{Field: "email", Reason: "must be a valid email address"}}, rpcErr.Fields)
	assert.Empty(t, s.Rows(TableName))
}

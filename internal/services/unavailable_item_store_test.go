package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
)

func TestUnavailableStoreFailsEveryCall(t *testing.T) {
	cause := errors.New("lookup _mongodb._tcp.cluster0.example.invalid: no such host")
	svc := NewItemService(NewUnavailableItemStore(cause))
	ctx := context.Background()

	_, err := svc.List(ctx, models.NewItemQuery("", "", ""))
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "no such host")

	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	name := "New"
	_, err = svc.Update(ctx, primitive.NewObjectID().Hex(), &models.UpdateItemRequest{Name: &name})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	assert.ErrorIs(t, svc.Ping(ctx), ErrStoreUnavailable)
}

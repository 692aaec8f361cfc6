package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
)

var (
	ErrInvalidItemID   = errors.New("invalid item id")
	ErrNothingToUpdate = errors.New("nothing to update")
)

// ItemStore is the document store holding items.
type ItemStore interface {
	// Find returns every item matching q in q.Sort order.
	Find(ctx context.Context, q models.ItemQuery) ([]models.Item, error)
	// FindByID returns nil and no error when no item has the id.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error)
	// Insert stores item and returns the assigned id.
	Insert(ctx context.Context, item *models.Item) (*models.InsertAck, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.ItemUpdate) (*models.UpdateAck, error)
	Ping(ctx context.Context) error
}

// StoreError wraps a failure returned by the document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

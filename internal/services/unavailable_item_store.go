package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
)

var ErrStoreUnavailable = errors.New("document store unavailable")

// UnavailableItemStore stands in for a store whose client could not be created.
// Every call fails with ErrStoreUnavailable wrapping the original cause.
type UnavailableItemStore struct {
	cause error
}

func NewUnavailableItemStore(cause error) *UnavailableItemStore {
	return &UnavailableItemStore{cause: cause}
}

func (s *UnavailableItemStore) err() error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, s.cause)
}

func (s *UnavailableItemStore) Find(ctx context.Context, q models.ItemQuery) ([]models.Item, error) {
	return nil, s.err()
}

func (s *UnavailableItemStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	return nil, s.err()
}

func (s *UnavailableItemStore) Insert(ctx context.Context, item *models.Item) (*models.InsertAck, error) {
	return nil, s.err()
}

func (s *UnavailableItemStore) Update(ctx context.Context, id primitive.ObjectID, update models.ItemUpdate) (*models.UpdateAck, error) {
	return nil, s.err()
}

func (s *UnavailableItemStore) Ping(ctx context.Context) error {
	return s.err()
}

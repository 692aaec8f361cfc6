package services

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
)

// ItemService turns list, get, create and update requests into validated store calls.
// It holds no mutable state besides the shared store handle.
type ItemService struct {
	store ItemStore
	now   func() time.Time
}

func NewItemService(store ItemStore) *ItemService {
	return &ItemService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the creation timestamp source.
func (s *ItemService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ItemService) List(ctx context.Context, q models.ItemQuery) ([]models.Item, error) {
	items, err := s.store.Find(ctx, q)
	if err != nil {
		StoreErrors.WithLabelValues("find").Inc()
		return nil, storeError("find items", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// GetByID returns nil without error when the id is well formed but unknown.
func (s *ItemService) GetByID(ctx context.Context, id string) (*models.Item, error) {
	oid, err := parseItemID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.store.FindByID(ctx, oid)
	if err != nil {
		StoreErrors.WithLabelValues("find_one").Inc()
		return nil, storeError("find item", err)
	}
	return item, nil
}

func (s *ItemService) Create(ctx context.Context, req *models.CreateItemRequest) (*models.InsertAck, error) {
	if errs := req.Validate(); len(errs) > 0 {
		ItemWrites.WithLabelValues("create", "invalid").Inc()
		return nil, &models.ValidationError{Message: models.MissingFieldsMessage, Fields: errs}
	}

	// The store keeps millisecond precision.
	item := req.NewItem(s.now().Truncate(time.Millisecond))

	ack, err := s.store.Insert(ctx, item)
	if err != nil {
		ItemWrites.WithLabelValues("create", "error").Inc()
		StoreErrors.WithLabelValues("insert").Inc()
		return nil, storeError("insert item", err)
	}

	ItemWrites.WithLabelValues("create", "ok").Inc()
	log.WithField("item_id", ack.InsertedID.Hex()).Debug("item created")
	return ack, nil
}

// Update applies a partial update. It returns ErrNothingToUpdate, without calling the
// store, when the request carries no truthy field.
func (s *ItemService) Update(ctx context.Context, id string, req *models.UpdateItemRequest) (*models.UpdateAck, error) {
	oid, err := parseItemID(id)
	if err != nil {
		return nil, err
	}

	update, err := req.Changes()
	if err != nil {
		ItemWrites.WithLabelValues("update", "invalid").Inc()
		return nil, err
	}
	if update.IsEmpty() {
		ItemWrites.WithLabelValues("update", "noop").Inc()
		return nil, ErrNothingToUpdate
	}

	ack, err := s.store.Update(ctx, oid, update)
	if err != nil {
		ItemWrites.WithLabelValues("update", "error").Inc()
		StoreErrors.WithLabelValues("update").Inc()
		return nil, storeError("update item", err)
	}

	ItemWrites.WithLabelValues("update", "ok").Inc()
	log.WithFields(log.Fields{
		"item_id": oid.Hex(),
		"fields":  update.Fields(),
		"matched": ack.MatchedCount,
	}).Debug("item updated")
	return ack, nil
}

func (s *ItemService) Ping(ctx context.Context) error {
	return storeError("ping", s.store.Ping(ctx))
}

func parseItemID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidItemID
	}
	return oid, nil
}

// AsValidationError unwraps a request validation failure.
func AsValidationError(err error) (*models.ValidationError, bool) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

package services

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookworm/backend/internal/models"
	"github.com/bookworm/backend/internal/storage"
)

// MemoryItemStore keeps items in process, with the same filter, sort and update
// semantics as MongoItemStore. When a snapshot file is set every write is persisted.
type MemoryItemStore struct {
	mu       sync.RWMutex
	items    map[primitive.ObjectID]*models.Item
	order    []primitive.ObjectID // insertion order
	snapshot *storage.ExtJSONFile
}

type itemSnapshot struct {
	Items []models.Item `bson:"items"`
}

// NewMemoryItemStore loads any items already in snapshot. snapshot may be nil.
func NewMemoryItemStore(snapshot *storage.ExtJSONFile) (*MemoryItemStore, error) {
	s := &MemoryItemStore{
		items:    make(map[primitive.ObjectID]*models.Item),
		snapshot: snapshot,
	}
	if snapshot == nil {
		return s, nil
	}

	var snap itemSnapshot
	if err := snapshot.Load(&snap); err != nil {
		return nil, err
	}
	for i := range snap.Items {
		item := snap.Items[i]
		s.items[item.ID] = &item
		s.order = append(s.order, item.ID)
	}
	log.Printf("Memory store loaded %d items from %s", len(snap.Items), snapshot.Path())
	return s, nil
}

func (s *MemoryItemStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryItemStore) Find(ctx context.Context, q models.ItemQuery) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Item, 0)
	for _, id := range s.order {
		item := s.items[id]
		if matchesQuery(item, q) {
			results = append(results, *item)
		}
	}

	sortItems(results, q.Sort)
	return results, nil
}

func (s *MemoryItemStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, nil
	}
	itemCopy := *item
	return &itemCopy, nil
}

func (s *MemoryItemStore) Insert(ctx context.Context, item *models.Item) (*models.InsertAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	stored := *item
	s.items[stored.ID] = &stored
	s.order = append(s.order, stored.ID)

	if err := s.persist(); err != nil {
		delete(s.items, stored.ID)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	return &models.InsertAck{Acknowledged: true, InsertedID: stored.ID}, nil
}

func (s *MemoryItemStore) Update(ctx context.Context, id primitive.ObjectID, update models.ItemUpdate) (*models.UpdateAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ack := &models.UpdateAck{Acknowledged: true}
	item, exists := s.items[id]
	if !exists {
		return ack, nil
	}
	ack.MatchedCount = 1

	previous := *item
	if !update.Apply(item) {
		return ack, nil
	}
	if err := s.persist(); err != nil {
		*item = previous
		return nil, err
	}
	ack.ModifiedCount = 1
	return ack, nil
}

// persist must be called with s.mu held for writing.
func (s *MemoryItemStore) persist() error {
	if s.snapshot == nil {
		return nil
	}
	snap := itemSnapshot{Items: make([]models.Item, 0, len(s.order))}
	for _, id := range s.order {
		snap.Items = append(snap.Items, *s.items[id])
	}
	return s.snapshot.Save(snap)
}

func matchesQuery(item *models.Item, q models.ItemQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	if q.Category != "" && item.Category != q.Category {
		return false
	}
	return true
}

// sortItems expects items in insertion order. Newest first puts the later insert
// first when two items share a timestamp.
func sortItems(items []models.Item, order models.SortOrder) {
	if order != models.SortPriceLow && order != models.SortPriceHigh {
		slices.Reverse(items)
	}
	sort.SliceStable(items, func(i, j int) bool {
		switch order {
		case models.SortPriceLow:
			return items[i].Price < items[j].Price
		case models.SortPriceHigh:
			return items[i].Price > items[j].Price
		default:
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
	})
}

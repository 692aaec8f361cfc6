package services

import (
	"context"
	"errors"
	"regexp"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookworm/backend/internal/models"
)

type MongoItemStore struct {
	client    *mongo.Client
	db        *mongo.Database
	itemsColl *mongo.Collection
}

// ConnectMongo creates the process-wide client. It does not wait for the
// deployment to answer; use Ping for that.
func ConnectMongo(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	return mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetServerAPIOptions(serverAPI))
}

func NewMongoItemStore(client *mongo.Client, dbName, collection string) *MongoItemStore {
	db := client.Database(dbName)
	return &MongoItemStore{
		client:    client,
		db:        db,
		itemsColl: db.Collection(collection),
	}
}

// EnsureIndexes creates the indexes backing the list sorts and category filter.
// Failures are logged and otherwise ignored.
func (s *MongoItemStore) EnsureIndexes(ctx context.Context) {
	_, err := s.itemsColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		log.WithError(err).Warn("MongoDB index creation failed")
	}
}

// Ping runs {ping: 1} against the admin database.
func (s *MongoItemStore) Ping(ctx context.Context) error {
	return s.client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *MongoItemStore) Find(ctx context.Context, q models.ItemQuery) ([]models.Item, error) {
	cur, err := s.itemsColl.Find(ctx, itemFilter(q), options.Find().SetSort(itemSort(q.Sort)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]models.Item, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *MongoItemStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var item models.Item
	if err := s.itemsColl.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *MongoItemStore) Insert(ctx context.Context, item *models.Item) (*models.InsertAck, error) {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}

	res, err := s.itemsColl.InsertOne(ctx, item)
	if err != nil {
		return nil, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		id = item.ID
	}
	return &models.InsertAck{Acknowledged: true, InsertedID: id}, nil
}

func (s *MongoItemStore) Update(ctx context.Context, id primitive.ObjectID, update models.ItemUpdate) (*models.UpdateAck, error) {
	res, err := s.itemsColl.UpdateOne(ctx, bson.M{"_id": id}, updateDocument(update))
	if err != nil {
		return nil, err
	}
	return &models.UpdateAck{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

// itemFilter starts from an empty filter and adds one clause per constraint.
// The search text is matched literally, not as a pattern.
func itemFilter(q models.ItemQuery) bson.D {
	filter := bson.D{}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}

	return filter
}

func itemSort(order models.SortOrder) bson.D {
	switch order {
	case models.SortPriceLow:
		return bson.D{{Key: "price", Value: 1}}
	case models.SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func updateDocument(u models.ItemUpdate) bson.D {
	set := bson.D{}
	if u.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *u.Name})
	}
	if u.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *u.Description})
	}
	if u.ImageURL != nil {
		set = append(set, bson.E{Key: "imageUrl", Value: *u.ImageURL})
	}
	if u.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *u.Category})
	}
	if u.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *u.Price})
	}
	return bson.D{{Key: "$set", Value: set}}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hopyard/hops/internal/hop"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Documents are
// keyed by ObjectID _id, which also gives List its insertion order.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	// list view sorts on createdAt, then _id
	idx := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create hops index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, h *hop.Hop) error {
	h.ID = primitive.NewObjectID()
	h.CreatedAt = now()
	h.UpdatedAt = h.CreatedAt
	if _, err := m.col.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("insert hop: %w", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id primitive.ObjectID) (*hop.Hop, error) {
	var h hop.Hop
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hop.ErrNotFound
		}
		return nil, fmt.Errorf("find hop %s: %w", id.Hex(), err)
	}
	return &h, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*hop.Hop, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list hops: %w", err)
	}
	defer cur.Close(ctx)
	out := []*hop.Hop{}
	for cur.Next(ctx) {
		var h hop.Hop
		if err := cur.Decode(&h); err != nil {
			return nil, fmt.Errorf("decode hop: %w", err)
		}
		out = append(out, &h)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list hops: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Update(ctx context.Context, id primitive.ObjectID, h *hop.Hop) (*hop.Hop, error) {
	var prev struct {
		UpdatedAt time.Time `bson:"updatedAt"`
	}
	findOpts := options.FindOne().SetProjection(bson.M{"updatedAt": 1})
	if err := m.col.FindOne(ctx, bson.M{"_id": id}, findOpts).Decode(&prev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hop.ErrNotFound
		}
		return nil, fmt.Errorf("find hop %s: %w", id.Hex(), err)
	}
	set := bson.M{
		"name":        h.Name,
		"origin":      h.Origin,
		"type":        h.Type,
		"description": h.Description,
		"alpha":       h.Alpha,
		"updatedAt":   touched(now(), prev.UpdatedAt),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated hop.Hop
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hop.ErrNotFound
		}
		return nil, fmt.Errorf("update hop %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := m.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete hop %s: %w", id.Hex(), err)
	}
	return nil
}

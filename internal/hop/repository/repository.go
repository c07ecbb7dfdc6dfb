package repository

import (
	"context"
	"time"

	"github.com/hopyard/hops/internal/hop"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the persistence contract for hop records. Implementations
// return hop.ErrNotFound for unknown ids; Delete of an unknown id is a no-op.
type Repository interface {
	List(ctx context.Context) ([]*hop.Hop, error)
	Get(ctx context.Context, id primitive.ObjectID) (*hop.Hop, error)
	Create(ctx context.Context, h *hop.Hop) error
	Update(ctx context.Context, id primitive.ObjectID, h *hop.Hop) (*hop.Hop, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// stored timestamps are millisecond precision in every backend
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// touched is the updatedAt for a write at t to a record last written at prev.
// It always moves forward, even for writes within the same millisecond.
func touched(t, prev time.Time) time.Time {
	if next := prev.Add(time.Millisecond); t.Before(next) {
		return next
	}
	return t
}

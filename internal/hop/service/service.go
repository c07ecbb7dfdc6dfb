package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hopyard/hops/internal/hop"
	"github.com/hopyard/hops/internal/hop/repository"
	"github.com/hopyard/hops/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service defines the hop store operations used by the handler layer.
// Create and Update validate their input before anything is written.
type Service interface {
	List(ctx context.Context) ([]*hop.Hop, error)
	Get(ctx context.Context, id string) (*hop.Hop, error)
	Create(ctx context.Context, in hop.Input) (*hop.Hop, error)
	Update(ctx context.Context, id string, in hop.Input) (*hop.Hop, error)
	Delete(ctx context.Context, id string) error
}

// New returns a Service over any repository.
func New(repo repository.Repository) Service {
	return &store{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(ctx context.Context, col *mongo.Collection) (Service, error) {
	repo, err := repository.NewMongoRepo(ctx, col)
	if err != nil {
		return nil, err
	}
	return New(repo), nil
}

type store struct {
	repo repository.Repository
}

func observe(op string, err error) {
	outcome := "ok"
	var ve *hop.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		outcome = "invalid"
		for _, f := range ve.Fields {
			metrics.ValidationFailures.WithLabelValues(f.Field).Inc()
		}
	case errors.Is(err, hop.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.StoreOperations.WithLabelValues(op, outcome).Inc()
}

func (s *store) List(ctx context.Context) ([]*hop.Hop, error) {
	list, err := s.repo.List(ctx)
	observe("list", err)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*hop.Hop{}
	}
	return list, nil
}

func (s *store) Get(ctx context.Context, id string) (h *hop.Hop, err error) {
	defer func() { observe("get", err) }()
	oid, err := hop.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, oid)
}

func (s *store) Create(ctx context.Context, in hop.Input) (h *hop.Hop, err error) {
	defer func() { observe("create", err) }()
	h, err = in.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create hop: %w", err)
	}
	return h, nil
}

func (s *store) Update(ctx context.Context, id string, in hop.Input) (h *hop.Hop, err error) {
	defer func() { observe("update", err) }()
	oid, err := hop.ParseID(id)
	if err != nil {
		return nil, err
	}
	h, err = in.Validate()
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, oid, h)
}

// Delete is idempotent: unknown and malformed ids are not errors.
func (s *store) Delete(ctx context.Context, id string) (err error) {
	defer func() { observe("delete", err) }()
	oid, err := hop.ParseID(id)
	if err != nil {
		return nil
	}
	return s.repo.Delete(ctx, oid)
}

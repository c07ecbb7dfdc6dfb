package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hopyard/hops/internal/database"
	"github.com/hopyard/hops/internal/hop"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSQLiteRepo(t *testing.T, c *clock) *SQLRepo {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQL(ctx, "sqlite", ":memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r, err := NewSQLRepo(ctx, db, SQLite)
	require.NoError(t, err)
	r.now = c.now
	return r
}

func newMemory(t *testing.T, c *clock) *MemoryRepo {
	r := NewMemoryRepo()
	r.now = c.now
	return r
}

var backends = map[string]func(t *testing.T, c *clock) Repository{
	"memory": func(t *testing.T, c *clock) Repository { return newMemory(t, c) },
	"sqlite": func(t *testing.T, c *clock) Repository { return newSQLiteRepo(t, c) },
}

func cascade() *hop.Hop {
	low, high := 4.5, 7.0
	return &hop.Hop{Name: "Cascade", Origin: "USA", Type: "aroma", Alpha: hop.Alpha{Low: &low, High: &high}}
}

func TestRepositoryCRUD(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
			r := newRepo(t, c)

			h := cascade()
			require.NoError(t, r.Create(ctx, h))
			require.False(t, h.ID.IsZero())
			require.Equal(t, c.t, h.CreatedAt)
			require.Equal(t, h.CreatedAt, h.UpdatedAt)

			got, err := r.Get(ctx, h.ID)
			require.NoError(t, err)
			require.Equal(t, "Cascade", got.Name)
			require.Equal(t, 4.5, *got.Alpha.Low)
			require.Equal(t, 7.0, *got.Alpha.High)
			require.True(t, h.CreatedAt.Equal(got.CreatedAt))

			c.advance(time.Minute)
			repl := cascade()
			repl.Name = "Cascade (US)"
			repl.Alpha = hop.Alpha{}
			updated, err := r.Update(ctx, h.ID, repl)
			require.NoError(t, err)
			require.Equal(t, h.ID, updated.ID)
			require.Equal(t, "Cascade (US)", updated.Name)
			require.Equal(t, "USA", updated.Origin)
			require.Nil(t, updated.Alpha.Low)
			require.True(t, updated.CreatedAt.Equal(h.CreatedAt))
			require.True(t, updated.UpdatedAt.After(h.UpdatedAt))

			again, err := r.Get(ctx, h.ID)
			require.NoError(t, err)
			require.Equal(t, "Cascade (US)", again.Name)

			require.NoError(t, r.Delete(ctx, h.ID))
			_, err = r.Get(ctx, h.ID)
			require.ErrorIs(t, err, hop.ErrNotFound)
		})
	}
}

func TestRepositoryListOrderAndEmpty(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
			r := newRepo(t, c)

			list, err := r.List(ctx)
			require.NoError(t, err)
			require.NotNil(t, list)
			require.Empty(t, list)

			for _, n := range []string{"Saaz", "Amarillo", "Magnum"} {
				h := cascade()
				h.Name = n
				require.NoError(t, r.Create(ctx, h))
			}
			list, err = r.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			require.Equal(t, "Saaz", list[0].Name)
			require.Equal(t, "Amarillo", list[1].Name)
			require.Equal(t, "Magnum", list[2].Name)
		})
	}
}

func TestRepositoryMissingIDs(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := newRepo(t, &clock{t: time.Now().UTC()})
			require.NoError(t, r.Create(ctx, cascade()))
			missing := primitive.NewObjectID()

			_, err := r.Get(ctx, missing)
			require.ErrorIs(t, err, hop.ErrNotFound)

			_, err = r.Update(ctx, missing, cascade())
			require.ErrorIs(t, err, hop.ErrNotFound)

			require.NoError(t, r.Delete(ctx, missing))
			list, err := r.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
		})
	}
}

func TestRepositoryUpdateWithinSameMillisecond(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
			r := newRepo(t, c)

			h := cascade()
			require.NoError(t, r.Create(ctx, h))
			first, err := r.Update(ctx, h.ID, cascade())
			require.NoError(t, err)
			require.True(t, first.UpdatedAt.Equal(h.UpdatedAt.Add(time.Millisecond)), "got %v", first.UpdatedAt)
			second, err := r.Update(ctx, h.ID, cascade())
			require.NoError(t, err)
			require.True(t, second.UpdatedAt.After(first.UpdatedAt))
			require.True(t, second.CreatedAt.Equal(h.CreatedAt))
		})
	}
}

func TestTouched(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, base.Add(time.Millisecond), touched(base, base))
	require.Equal(t, base.Add(time.Millisecond), touched(base.Add(-time.Hour), base))
	require.Equal(t, base.Add(time.Minute), touched(base.Add(time.Minute), base))
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	h := cascade()
	require.NoError(t, r.Create(ctx, h))

	got, err := r.Get(ctx, h.ID)
	require.NoError(t, err)
	got.Name = "mutated"
	*got.Alpha.Low = 0

	again, err := r.Get(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, "Cascade", again.Name)
	require.Equal(t, 4.5, *again.Alpha.Low)
}

func TestDialectRebind(t *testing.T) {
	require.Equal(t, "SELECT * FROM hops WHERE id = ?", SQLite.rebind("SELECT * FROM hops WHERE id = ?"))
	require.Equal(t, "UPDATE hops SET name = $1 WHERE id = $2", Postgres.rebind("UPDATE hops SET name = ? WHERE id = ?"))
}

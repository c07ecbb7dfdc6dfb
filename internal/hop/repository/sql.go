package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hopyard/hops/internal/hop"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dialect captures the few statements that differ between SQL backends.
type Dialect struct {
	Name        string
	createTable string
	greatest    string // two-argument maximum function
	numbered    bool   // $1, $2 placeholders instead of ?
}

var (
	SQLite = Dialect{
		Name: "sqlite",
		createTable: `CREATE TABLE IF NOT EXISTS hops (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			origin TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			alpha_low REAL,
			alpha_high REAL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		greatest: "MAX",
	}
	Postgres = Dialect{
		Name: "postgres",
		createTable: `CREATE TABLE IF NOT EXISTS hops (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			origin TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			alpha_low DOUBLE PRECISION,
			alpha_high DOUBLE PRECISION,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		greatest: "GREATEST",
		numbered: true,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLRepo implements Repository on a database/sql handle. Timestamps are
// stored as unix milliseconds and List orders by the autoincrement seq.
type SQLRepo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLRepo creates the hops table when missing.
func NewSQLRepo(ctx context.Context, db *sql.DB, d Dialect) (*SQLRepo, error) {
	if _, err := db.ExecContext(ctx, d.createTable); err != nil {
		return nil, fmt.Errorf("create hops table: %w", err)
	}
	return &SQLRepo{db: db, dialect: d, now: now}, nil
}

const hopColumns = `id, name, origin, type, description, alpha_low, alpha_high, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHop(row rowScanner) (*hop.Hop, error) {
	var (
		id               string
		low, high        sql.NullFloat64
		created, updated int64
		h                hop.Hop
	)
	if err := row.Scan(&id, &h.Name, &h.Origin, &h.Type, &h.Description, &low, &high, &created, &updated); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("stored hop id %q: %w", id, err)
	}
	h.ID = oid
	if low.Valid {
		h.Alpha.Low = &low.Float64
	}
	if high.Valid {
		h.Alpha.High = &high.Float64
	}
	h.CreatedAt = time.UnixMilli(created).UTC()
	h.UpdatedAt = time.UnixMilli(updated).UTC()
	return &h, nil
}

func nullBound(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *SQLRepo) Create(ctx context.Context, h *hop.Hop) error {
	h.ID = primitive.NewObjectID()
	h.CreatedAt = s.now()
	h.UpdatedAt = h.CreatedAt
	q := s.dialect.rebind(`INSERT INTO hops (` + hopColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		h.ID.Hex(), h.Name, h.Origin, h.Type, h.Description,
		nullBound(h.Alpha.Low), nullBound(h.Alpha.High),
		h.CreatedAt.UnixMilli(), h.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert hop: %w", err)
	}
	return nil
}

func (s *SQLRepo) Get(ctx context.Context, id primitive.ObjectID) (*hop.Hop, error) {
	q := s.dialect.rebind(`SELECT ` + hopColumns + ` FROM hops WHERE id = ?`)
	h, err := scanHop(s.db.QueryRowContext(ctx, q, id.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hop.ErrNotFound
		}
		return nil, fmt.Errorf("find hop %s: %w", id.Hex(), err)
	}
	return h, nil
}

func (s *SQLRepo) List(ctx context.Context) ([]*hop.Hop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+hopColumns+` FROM hops ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list hops: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []*hop.Hop{}
	for rows.Next() {
		h, err := scanHop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hop: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hops: %w", err)
	}
	return out, nil
}

func (s *SQLRepo) Update(ctx context.Context, id primitive.ObjectID, h *hop.Hop) (*hop.Hop, error) {
	// updated_at moves forward by at least one millisecond
	q := s.dialect.rebind(`UPDATE hops SET name = ?, origin = ?, type = ?, description = ?,
		alpha_low = ?, alpha_high = ?, updated_at = ` + s.dialect.greatest + `(updated_at + 1, ?) WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q,
		h.Name, h.Origin, h.Type, h.Description,
		nullBound(h.Alpha.Low), nullBound(h.Alpha.High),
		s.now().UnixMilli(), id.Hex())
	if err != nil {
		return nil, fmt.Errorf("update hop %s: %w", id.Hex(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update hop %s: %w", id.Hex(), err)
	}
	if n == 0 {
		return nil, hop.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	q := s.dialect.rebind(`DELETE FROM hops WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, id.Hex()); err != nil {
		return fmt.Errorf("delete hop %s: %w", id.Hex(), err)
	}
	return nil
}

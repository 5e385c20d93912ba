package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/jmoiron/sqlx"
)

var (
	floorOrderable  = []string{"created_at", "updated_at", "name"}
	floorFilterable = []string{"name"}
)

type floorRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Layout        string    `db:"layout"`
	HasBackground bool      `db:"has_background"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r floorRow) toFloor() (types.Floor, error) {
	f := types.Floor{
		ID:            r.ID,
		Name:          r.Name,
		HasBackground: r.HasBackground,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := decodeJSON(r.Layout, &f.Layout); err != nil {
		return f, err
	}
	f.Layout.Walls = nonNil(f.Layout.Walls)
	f.Layout.PlacedDevices = nonNil(f.Layout.PlacedDevices)
	return f, nil
}

const floorSelect = `
	SELECT f.id, f.name, f.layout, f.created_at, f.updated_at,
		EXISTS (SELECT 1 FROM floor_backgrounds b WHERE b.floor_id = f.id) AS has_background
	FROM floors f`

// FloorRepository implements repositories.FloorRepository
type FloorRepository struct {
	db *sqlx.DB
}

// NewFloorRepository creates a new FloorRepository
func NewFloorRepository(db *sqlx.DB) repositories.FloorRepository {
	return &FloorRepository{db: db}
}

func encodeLayout(l types.FloorLayout) (string, error) {
	l.Walls = nonNil(l.Walls)
	l.PlacedDevices = nonNil(l.PlacedDevices)
	return encodeJSON(l)
}

// Create inserts a floor
func (r *FloorRepository) Create(ctx context.Context, f *types.Floor) error {
	return insertFloor(ctx, r.db, f)
}

func insertFloor(ctx context.Context, ex sqlx.ExecerContext, f *types.Floor) error {
	layout, err := encodeLayout(f.Layout)
	if err != nil {
		return err
	}

	f.ID = newID(f.ID)
	ts := now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = ts
	}
	f.UpdatedAt = ts

	_, err = ex.ExecContext(ctx,
		`INSERT INTO floors (id, name, layout, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, layout, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create floor: %w", err)
	}
	return nil
}

// GetByID retrieves a floor by id
func (r *FloorRepository) GetByID(ctx context.Context, id string) (*types.Floor, error) {
	var row floorRow
	if err := r.db.GetContext(ctx, &row, floorSelect+` WHERE f.id = ?`, id); err != nil {
		return nil, notFound(err, "floor", id)
	}
	f, err := row.toFloor()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List retrieves floors, by default in creation order
func (r *FloorRepository) List(ctx context.Context, q repositories.Query) ([]types.Floor, error) {
	q, err := q.Normalize(floorOrderable, floorFilterable)
	if err != nil {
		return nil, err
	}
	q.OrderBy = "f." + q.OrderBy
	if q.Where != nil {
		q.Where = &repositories.Filter{Field: "f." + q.Where.Field, Equals: q.Where.Equals}
	}
	clause, args := listClause(q, nil, nil)

	var rows []floorRow
	if err := r.db.SelectContext(ctx, &rows, floorSelect+clause, args...); err != nil {
		return nil, fmt.Errorf("failed to query floors: %w", err)
	}

	floors := make([]types.Floor, 0, len(rows))
	for _, row := range rows {
		f, err := row.toFloor()
		if err != nil {
			return nil, fmt.Errorf("floor %s: %w", row.ID, err)
		}
		floors = append(floors, f)
	}
	return floors, nil
}

// Update overwrites the name and layout of a floor
func (r *FloorRepository) Update(ctx context.Context, f *types.Floor) error {
	layout, err := encodeLayout(f.Layout)
	if err != nil {
		return err
	}

	f.UpdatedAt = now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE floors SET name = ?, layout = ?, updated_at = ? WHERE id = ?`,
		f.Name, layout, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update floor: %w", err)
	}
	return checkAffected(result, "floor", f.ID)
}

// Delete removes a floor and its background image. Rooms are left to the caller.
func (r *FloorRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM floor_backgrounds WHERE floor_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete floor background: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM floors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete floor: %w", err)
	}
	if err := checkAffected(result, "floor", id); err != nil {
		return err
	}
	return tx.Commit()
}

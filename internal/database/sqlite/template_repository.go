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
	templateOrderable  = []string{"created_at", "updated_at", "name"}
	templateFilterable = []string{"name"}
)

type templateRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Devices   string    `db:"devices"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r templateRow) toTemplate() (types.RoomTemplate, error) {
	t := types.RoomTemplate{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	if err := decodeJSON(r.Devices, &t.Devices); err != nil {
		return t, err
	}
	t.Devices = nonNil(t.Devices)
	return t, nil
}

// RoomTemplateRepository implements repositories.RoomTemplateRepository.
// Template entries are not room instances and are stored as a JSON column.
type RoomTemplateRepository struct {
	db *sqlx.DB
}

// NewRoomTemplateRepository creates a new RoomTemplateRepository
func NewRoomTemplateRepository(db *sqlx.DB) repositories.RoomTemplateRepository {
	return &RoomTemplateRepository{db: db}
}

func (r *RoomTemplateRepository) Create(ctx context.Context, t *types.RoomTemplate) error {
	return insertTemplate(ctx, r.db, t)
}

func insertTemplate(ctx context.Context, ex sqlx.ExecerContext, t *types.RoomTemplate) error {
	devices, err := encodeJSON(nonNil(t.Devices))
	if err != nil {
		return err
	}

	t.ID = newID(t.ID)
	ts := now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = ts
	}
	t.UpdatedAt = ts

	_, err = ex.ExecContext(ctx,
		`INSERT INTO room_templates (id, name, devices, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, devices, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room template: %w", err)
	}
	return nil
}

func (r *RoomTemplateRepository) GetByID(ctx context.Context, id string) (*types.RoomTemplate, error) {
	var row templateRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, devices, created_at, updated_at FROM room_templates WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "room template", id)
	}
	t, err := row.toTemplate()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RoomTemplateRepository) List(ctx context.Context, q repositories.Query) ([]types.RoomTemplate, error) {
	q, err := q.Normalize(templateOrderable, templateFilterable)
	if err != nil {
		return nil, err
	}
	clause, args := listClause(q, nil, nil)

	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, devices, created_at, updated_at FROM room_templates`+clause, args...); err != nil {
		return nil, fmt.Errorf("failed to query room templates: %w", err)
	}

	out := make([]types.RoomTemplate, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("room template %s: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *RoomTemplateRepository) Update(ctx context.Context, t *types.RoomTemplate) error {
	devices, err := encodeJSON(nonNil(t.Devices))
	if err != nil {
		return err
	}

	t.UpdatedAt = now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE room_templates SET name = ?, devices = ?, updated_at = ? WHERE id = ?`,
		t.Name, devices, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room template: %w", err)
	}
	return checkAffected(result, "room template", t.ID)
}

func (r *RoomTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room template: %w", err)
	}
	return checkAffected(result, "room template", id)
}

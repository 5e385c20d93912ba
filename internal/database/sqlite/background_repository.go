package sqlite

import (
	"context"
	"fmt"

	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/jmoiron/sqlx"
)

// BackgroundRepository implements repositories.BackgroundRepository
type BackgroundRepository struct {
	db *sqlx.DB
}

// NewBackgroundRepository creates a new BackgroundRepository
func NewBackgroundRepository(db *sqlx.DB) repositories.BackgroundRepository {
	return &BackgroundRepository{db: db}
}

// Save stores or replaces the background of a floor
func (r *BackgroundRepository) Save(ctx context.Context, bg *repositories.Background) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO floor_backgrounds (floor_id, content_type, width, height, data, preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(floor_id) DO UPDATE SET
			content_type = excluded.content_type, width = excluded.width, height = excluded.height,
			data = excluded.data, preview = excluded.preview, updated_at = excluded.updated_at`,
		bg.FloorID, bg.ContentType, bg.Width, bg.Height, bg.Data, bg.Preview, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save floor background: %w", err)
	}
	return nil
}

// Get returns the background of a floor
func (r *BackgroundRepository) Get(ctx context.Context, floorID string) (*repositories.Background, error) {
	var bg repositories.Background
	err := r.db.GetContext(ctx, &bg, `
		SELECT floor_id, content_type, width, height, data, preview
		FROM floor_backgrounds WHERE floor_id = ?`, floorID)
	if err != nil {
		return nil, notFound(err, "floor background", floorID)
	}
	return &bg, nil
}

// Delete removes the background of a floor
func (r *BackgroundRepository) Delete(ctx context.Context, floorID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM floor_backgrounds WHERE floor_id = ?`, floorID)
	if err != nil {
		return fmt.Errorf("failed to delete floor background: %w", err)
	}
	return checkAffected(result, "floor background", floorID)
}

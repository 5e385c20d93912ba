package sqlite

import (
	"context"
	"fmt"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/jmoiron/sqlx"
)

// wipeOrder deletes dependents before the records they point at
var wipeOrder = []string{"room_devices", "rooms", "room_templates", "floor_backgrounds", "floors", "devices"}

// StateRepository implements repositories.StateRepository
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository creates a new StateRepository
func NewStateRepository(db *sqlx.DB) repositories.StateRepository {
	return &StateRepository{db: db}
}

// Replace swaps the stored records for the content of snap. Either every
// record is replaced or, on any error, nothing is.
func (r *StateRepository) Replace(ctx context.Context, snap *types.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range wipeOrder {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i := range snap.Devices {
		if err := insertDevice(ctx, tx, &snap.Devices[i]); err != nil {
			return err
		}
	}
	for i := range snap.Floors {
		if err := insertFloor(ctx, tx, &snap.Floors[i]); err != nil {
			return err
		}
	}
	for i := range snap.Rooms {
		if err := insertRoom(ctx, tx, &snap.Rooms[i]); err != nil {
			return err
		}
	}
	for i := range snap.Templates {
		if err := insertTemplate(ctx, tx, &snap.Templates[i]); err != nil {
			return err
		}
	}
	if err := saveHouse(ctx, tx, &snap.House); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

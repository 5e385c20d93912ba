package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/jmoiron/sqlx"
)

// HouseConfigRepository implements repositories.HouseConfigRepository over a single row table
type HouseConfigRepository struct {
	db *sqlx.DB
}

// NewHouseConfigRepository creates a new HouseConfigRepository
func NewHouseConfigRepository(db *sqlx.DB) repositories.HouseConfigRepository {
	return &HouseConfigRepository{db: db}
}

// Get returns the house configuration, or an empty one when it was never saved
func (r *HouseConfigRepository) Get(ctx context.Context) (*types.HouseConfig, error) {
	var row struct {
		GatewayIDs string    `db:"gateway_ids"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT gateway_ids, updated_at FROM house_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return &types.HouseConfig{GatewayIDs: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house config: %w", err)
	}

	cfg := &types.HouseConfig{UpdatedAt: row.UpdatedAt}
	if err := decodeJSON(row.GatewayIDs, &cfg.GatewayIDs); err != nil {
		return nil, err
	}
	cfg.GatewayIDs = nonNil(cfg.GatewayIDs)
	return cfg, nil
}

// Save upserts the house configuration
func (r *HouseConfigRepository) Save(ctx context.Context, cfg *types.HouseConfig) error {
	return saveHouse(ctx, r.db, cfg)
}

func saveHouse(ctx context.Context, ex sqlx.ExecerContext, cfg *types.HouseConfig) error {
	ids, err := encodeJSON(nonNil(cfg.GatewayIDs))
	if err != nil {
		return err
	}

	cfg.UpdatedAt = now()
	_, err = ex.ExecContext(ctx, `
		INSERT INTO house_config (id, gateway_ids, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET gateway_ids = excluded.gateway_ids, updated_at = excluded.updated_at`,
		ids, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save house config: %w", err)
	}
	return nil
}

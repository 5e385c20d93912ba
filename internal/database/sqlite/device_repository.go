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
	deviceOrderable  = []string{"created_at", "updated_at", "name", "brand", "price", "score", "quantity"}
	deviceFilterable = []string{"name", "brand", "connectivity", "price_evaluation", "is_gateway", "home_assistant_compatibility", "quantity"}
)

const deviceColumns = `id, category, name, brand, price, price_evaluation, home_assistant_compatibility,
	tags, specs, quantity, score, connectivity, is_gateway, gateway_protocols, link, notes, created_at, updated_at`

type deviceRow struct {
	ID                         string    `db:"id"`
	Category                   string    `db:"category"`
	Name                       string    `db:"name"`
	Brand                      string    `db:"brand"`
	Price                      float64   `db:"price"`
	PriceEvaluation            string    `db:"price_evaluation"`
	HomeAssistantCompatibility int       `db:"home_assistant_compatibility"`
	Tags                       string    `db:"tags"`
	Specs                      string    `db:"specs"`
	Quantity                   int       `db:"quantity"`
	Score                      float64   `db:"score"`
	Connectivity               string    `db:"connectivity"`
	IsGateway                  bool      `db:"is_gateway"`
	GatewayProtocols           string    `db:"gateway_protocols"`
	Link                       string    `db:"link"`
	Notes                      string    `db:"notes"`
	CreatedAt                  time.Time `db:"created_at"`
	UpdatedAt                  time.Time `db:"updated_at"`
}

func (r deviceRow) toDevice() (types.Device, error) {
	d := types.Device{
		ID:                         r.ID,
		Category:                   types.Category(r.Category),
		Name:                       r.Name,
		Brand:                      r.Brand,
		Price:                      r.Price,
		PriceEvaluation:            types.Evaluation(r.PriceEvaluation),
		HomeAssistantCompatibility: r.HomeAssistantCompatibility,
		Quantity:                   r.Quantity,
		Score:                      r.Score,
		Connectivity:               types.Connectivity(r.Connectivity),
		IsGateway:                  r.IsGateway,
		Link:                       r.Link,
		Notes:                      r.Notes,
		CreatedAt:                  r.CreatedAt,
		UpdatedAt:                  r.UpdatedAt,
	}
	if err := decodeJSON(r.Tags, &d.Tags); err != nil {
		return d, err
	}
	if err := decodeJSON(r.Specs, &d.Specs); err != nil {
		return d, err
	}
	if err := decodeJSON(r.GatewayProtocols, &d.GatewayProtocols); err != nil {
		return d, err
	}
	return d, nil
}

type deviceJSON struct {
	tags, specs, protocols string
}

func encodeDevice(d *types.Device) (deviceJSON, error) {
	var out deviceJSON
	var err error
	if out.tags, err = encodeJSON(nonNil(d.Tags)); err != nil {
		return out, err
	}
	if out.specs, err = encodeJSON(nonNil(d.Specs)); err != nil {
		return out, err
	}
	if out.protocols, err = encodeJSON(nonNil(d.GatewayProtocols)); err != nil {
		return out, err
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// DeviceRepository implements repositories.DeviceRepository
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new DeviceRepository
func NewDeviceRepository(db *sqlx.DB) repositories.DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create inserts a device, assigning its id and timestamps
func (r *DeviceRepository) Create(ctx context.Context, d *types.Device) error {
	return insertDevice(ctx, r.db, d)
}

func insertDevice(ctx context.Context, ex sqlx.ExecerContext, d *types.Device) error {
	enc, err := encodeDevice(d)
	if err != nil {
		return err
	}

	d.ID = newID(d.ID)
	ts := now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = ts
	}
	d.UpdatedAt = ts

	query := `INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = ex.ExecContext(ctx, query,
		d.ID, d.Category, d.Name, d.Brand, d.Price, d.PriceEvaluation, d.HomeAssistantCompatibility,
		enc.tags, enc.specs, d.Quantity, d.Score, d.Connectivity, d.IsGateway, enc.protocols,
		d.Link, d.Notes, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by id
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*types.Device, error) {
	var row deviceRow
	err := r.db.GetContext(ctx, &row, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "device", id)
	}
	d, err := row.toDevice()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List retrieves devices, optionally restricted to one category
func (r *DeviceRepository) List(ctx context.Context, category types.Category, q repositories.Query) ([]types.Device, error) {
	q, err := q.Normalize(deviceOrderable, deviceFilterable)
	if err != nil {
		return nil, err
	}

	var conditions []string
	var args []interface{}
	if category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, category)
	}
	clause, args := listClause(q, conditions, args)

	var rows []deviceRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+deviceColumns+` FROM devices`+clause, args...); err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}

	devices := make([]types.Device, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDevice()
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", row.ID, err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Update overwrites the mutable fields of a device. The category is immutable.
func (r *DeviceRepository) Update(ctx context.Context, d *types.Device) error {
	enc, err := encodeDevice(d)
	if err != nil {
		return err
	}

	d.UpdatedAt = now()
	query := `
		UPDATE devices
		SET name = ?, brand = ?, price = ?, price_evaluation = ?, home_assistant_compatibility = ?,
			tags = ?, specs = ?, quantity = ?, score = ?, connectivity = ?, is_gateway = ?,
			gateway_protocols = ?, link = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		d.Name, d.Brand, d.Price, d.PriceEvaluation, d.HomeAssistantCompatibility,
		enc.tags, enc.specs, d.Quantity, d.Score, d.Connectivity, d.IsGateway,
		enc.protocols, d.Link, d.Notes, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	return checkAffected(result, "device", d.ID)
}

// Delete removes a device
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return checkAffected(result, "device", id)
}

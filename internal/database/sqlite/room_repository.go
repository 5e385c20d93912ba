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
	roomOrderable  = []string{"created_at", "updated_at", "name"}
	roomFilterable = []string{"name", "floor_id"}
)

type roomRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	FloorID   string    `db:"floor_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type roomDeviceRow struct {
	RoomID     string `db:"room_id"`
	InstanceID string `db:"instance_id"`
	DeviceID   string `db:"device_id"`
	CustomName string `db:"custom_name"`
	IsOwned    bool   `db:"is_owned"`
}

// RoomRepository implements repositories.RoomRepository.
// Device instances live in room_devices, ordered by position.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *sqlx.DB) repositories.RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room and its device instances
func (r *RoomRepository) Create(ctx context.Context, room *types.Room) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRoom(ctx, tx, room); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRoom(ctx context.Context, ex sqlx.ExecerContext, room *types.Room) error {
	room.ID = newID(room.ID)
	ts := now()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = ts
	}
	room.UpdatedAt = ts

	_, err := ex.ExecContext(ctx,
		`INSERT INTO rooms (id, name, floor_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.FloorID, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return insertInstances(ctx, ex, room.ID, room.Devices)
}

// GetByID retrieves a room with its devices
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*types.Room, error) {
	var row roomRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, floor_id, created_at, updated_at FROM rooms WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "room", id)
	}

	var devices []roomDeviceRow
	err = r.db.SelectContext(ctx, &devices, `
		SELECT room_id, instance_id, device_id, custom_name, is_owned
		FROM room_devices WHERE room_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query room devices: %w", err)
	}

	room := toRoom(row, devices)
	return &room, nil
}

// List retrieves rooms with their devices
func (r *RoomRepository) List(ctx context.Context, q repositories.Query) ([]types.Room, error) {
	q, err := q.Normalize(roomOrderable, roomFilterable)
	if err != nil {
		return nil, err
	}
	clause, args := listClause(q, nil, nil)

	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, floor_id, created_at, updated_at FROM rooms`+clause, args...); err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	if len(rows) == 0 {
		return []types.Room{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	query, inArgs, err := sqlx.In(`
		SELECT room_id, instance_id, device_id, custom_name, is_owned
		FROM room_devices WHERE room_id IN (?) ORDER BY room_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build room devices query: %w", err)
	}

	var devices []roomDeviceRow
	if err := r.db.SelectContext(ctx, &devices, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("failed to query room devices: %w", err)
	}

	byRoom := make(map[string][]roomDeviceRow, len(rows))
	for _, d := range devices {
		byRoom[d.RoomID] = append(byRoom[d.RoomID], d)
	}

	rooms := make([]types.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, toRoom(row, byRoom[row.ID]))
	}
	return rooms, nil
}

// Update overwrites the name, floor and device list of a room
func (r *RoomRepository) Update(ctx context.Context, room *types.Room) error {
	room.UpdatedAt = now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE rooms SET name = ?, floor_id = ?, updated_at = ? WHERE id = ?`,
		room.Name, room.FloorID, room.UpdatedAt, room.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if err := checkAffected(result, "room", room.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_devices WHERE room_id = ?`, room.ID); err != nil {
		return fmt.Errorf("failed to clear room devices: %w", err)
	}
	if err := insertInstances(ctx, tx, room.ID, room.Devices); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a room; its device instances cascade
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return checkAffected(result, "room", id)
}

func insertInstances(ctx context.Context, ex sqlx.ExecerContext, roomID string, instances []types.RoomDeviceInstance) error {
	for i, inst := range instances {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO room_devices (instance_id, room_id, device_id, custom_name, is_owned, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			inst.InstanceID, roomID, inst.DeviceID, inst.CustomName, inst.IsOwned, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert device instance %s: %w", inst.InstanceID, err)
		}
	}
	return nil
}

func toRoom(row roomRow, devices []roomDeviceRow) types.Room {
	room := types.Room{
		ID:        row.ID,
		Name:      row.Name,
		FloorID:   row.FloorID,
		Devices:   make([]types.RoomDeviceInstance, 0, len(devices)),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, d := range devices {
		room.Devices = append(room.Devices, types.RoomDeviceInstance{
			InstanceID: d.InstanceID,
			DeviceID:   d.DeviceID,
			CustomName: d.CustomName,
			IsOwned:    d.IsOwned,
		})
	}
	return room
}

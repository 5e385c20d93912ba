package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrInvalidQuery is returned when a query names a field that is not allow-listed
var ErrInvalidQuery = errors.New("invalid query")

// Direction is the sort direction of a list query
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is an equality filter on a single field
type Filter struct {
	Field  string      `json:"field"`
	Equals interface{} `json:"equals"`
}

// Query describes ordering and filtering of a collection listing
type Query struct {
	OrderBy   string    `json:"order_by,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	Where     *Filter   `json:"where,omitempty"`
}

// Normalize fills defaults and checks fields against the allow lists
func (q Query) Normalize(orderable, filterable []string) (Query, error) {
	if q.OrderBy == "" {
		q.OrderBy = "created_at"
	}
	if !contains(orderable, q.OrderBy) {
		return q, fmt.Errorf("%w: cannot order by %q", ErrInvalidQuery, q.OrderBy)
	}
	switch Direction(strings.ToLower(string(q.Direction))) {
	case "", Asc:
		q.Direction = Asc
	case Desc:
		q.Direction = Desc
	default:
		return q, fmt.Errorf("%w: unknown direction %q", ErrInvalidQuery, q.Direction)
	}
	if q.Where != nil && !contains(filterable, q.Where.Field) {
		return q, fmt.Errorf("%w: cannot filter by %q", ErrInvalidQuery, q.Where.Field)
	}
	return q, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DeviceRepository stores base devices of every category
type DeviceRepository interface {
	Create(ctx context.Context, device *types.Device) error
	GetByID(ctx context.Context, id string) (*types.Device, error)
	// List returns devices of one category, or of every category when category is empty
	List(ctx context.Context, category types.Category, q Query) ([]types.Device, error)
	Update(ctx context.Context, device *types.Device) error
	Delete(ctx context.Context, id string) error
}

// FloorRepository stores floors and their layouts
type FloorRepository interface {
	Create(ctx context.Context, floor *types.Floor) error
	GetByID(ctx context.Context, id string) (*types.Floor, error)
	List(ctx context.Context, q Query) ([]types.Floor, error)
	Update(ctx context.Context, floor *types.Floor) error
	Delete(ctx context.Context, id string) error
}

// RoomRepository stores rooms with their ordered device instances
type RoomRepository interface {
	Create(ctx context.Context, room *types.Room) error
	GetByID(ctx context.Context, id string) (*types.Room, error)
	List(ctx context.Context, q Query) ([]types.Room, error)
	Update(ctx context.Context, room *types.Room) error
	Delete(ctx context.Context, id string) error
}

// RoomTemplateRepository stores room presets
type RoomTemplateRepository interface {
	Create(ctx context.Context, tpl *types.RoomTemplate) error
	GetByID(ctx context.Context, id string) (*types.RoomTemplate, error)
	List(ctx context.Context, q Query) ([]types.RoomTemplate, error)
	Update(ctx context.Context, tpl *types.RoomTemplate) error
	Delete(ctx context.Context, id string) error
}

// HouseConfigRepository stores the singleton house configuration
type HouseConfigRepository interface {
	Get(ctx context.Context) (*types.HouseConfig, error)
	Save(ctx context.Context, cfg *types.HouseConfig) error
}

// StateRepository replaces every collection at once
type StateRepository interface {
	// Replace clears all records, floor backgrounds included, and stores snap
	// in a single transaction
	Replace(ctx context.Context, snap *types.Snapshot) error
}

// Background is a floor plan background image
type Background struct {
	FloorID     string `db:"floor_id"`
	ContentType string `db:"content_type"`
	Width       int    `db:"width"`
	Height      int    `db:"height"`
	Data        []byte `db:"data"`
	Preview     []byte `db:"preview"`
}

// BackgroundRepository stores floor background images
type BackgroundRepository interface {
	Save(ctx context.Context, bg *Background) error
	Get(ctx context.Context, floorID string) (*Background, error)
	Delete(ctx context.Context, floorID string) error
}

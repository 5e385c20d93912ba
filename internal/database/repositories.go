package database

import (
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/database/sqlite"
	"github.com/jmoiron/sqlx"
)

// Repositories holds all repository instances
type Repositories struct {
	Device      repositories.DeviceRepository
	Floor       repositories.FloorRepository
	Room        repositories.RoomRepository
	Template    repositories.RoomTemplateRepository
	House       repositories.HouseConfigRepository
	Backgrounds repositories.BackgroundRepository
	State       repositories.StateRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Device:      sqlite.NewDeviceRepository(db),
		Floor:       sqlite.NewFloorRepository(db),
		Room:        sqlite.NewRoomRepository(db),
		Template:    sqlite.NewRoomTemplateRepository(db),
		House:       sqlite.NewHouseConfigRepository(db),
		Backgrounds: sqlite.NewBackgroundRepository(db),
		State:       sqlite.NewStateRepository(db),
	}
}

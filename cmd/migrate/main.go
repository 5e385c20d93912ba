package main

import (
	"log"
	"os"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/database"
)

func main() {
	if len(os.Args) < 4 {
		log.Fatal("Usage: go run cmd/migrate/main.go <migrations-path> <database-path> <up|down|version>")
	}

	migrationsPath := os.Args[1]
	databasePath := os.Args[2]
	command := os.Args[3]

	db, err := database.Initialize(config.DatabaseConfig{Path: databasePath, MaxConnections: 1})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		if err := database.Migrate(db.DB, migrationsPath); err != nil {
			log.Fatalf("An error occurred while migrating up: %v", err)
		}
		log.Println("Migrations applied successfully.")
	case "down":
		if err := database.MigrateDown(db.DB, migrationsPath); err != nil {
			log.Fatalf("An error occurred while migrating down: %v", err)
		}
		log.Println("Migrations rolled back successfully.")
	case "version":
		v, dirty, err := database.Version(db.DB, migrationsPath)
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		log.Printf("Schema version %d (dirty: %t)", v, dirty)
	default:
		log.Fatalf("Unknown command: %s. Use `up`, `down` or `version`.", command)
	}
}

package main

// Apply or inspect database migrations:
//   go run ./cmd/migrate [up|down|version]

import (
	"context"
	"log"
	"os"

	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch command {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "version":
		var version int64
		version, err = db.MigrationVersion(ctx, sqlDB)
		if err == nil {
			log.Printf("schema version: %d", version)
		}
	default:
		log.Printf("unknown command %q (want up, down or version)", command)
		os.Exit(2)
	}
	if err != nil {
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
}

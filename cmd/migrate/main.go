// Command migrate runs the schema migrations and exits. Used in deployments
// where the server runs with auto-migration disabled.
package main

import (
	"log"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/config"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations applied")
}

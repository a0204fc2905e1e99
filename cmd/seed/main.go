// Command seed populates the development database with fake data.
package main

import (
	"flag"
	"log"
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/config"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/database"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/seed"
)

func main() {
	var (
		schools = flag.String("schools", "nyu,columbia,boston", "comma-separated school slugs")
		users   = flag.Int("users", 8, "users per school")
		posts   = flag.Int("posts", 3, "posts per user")
		term    = flag.String("term", "", "term slug, e.g. 2026-fall (default: current term)")
		clean   = flag.Bool("clean", false, "wipe existing data first")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	opts := seed.DefaultOptions()
	opts.Schools = strings.Split(*schools, ",")
	opts.UsersPerTier = *users
	opts.PostsPerUser = *posts
	opts.ShouldClean = *clean
	if *term != "" {
		opts.Term = *term
	}

	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

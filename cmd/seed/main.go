// Command main runs the database seeder for ContentFlow.
package main

import (
	"context"
	"flag"
	"log"

	"contentflow/internal/config"
	"contentflow/internal/database"
	"contentflow/internal/seed"
)

func main() {
	count := flag.Int("count", 10, "Number of fake users to create")
	clear := flag.Bool("clear", false, "Remove previously seeded data instead of creating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s := seed.NewSeeder(db, cfg.MediaRoot)
	ctx := context.Background()

	if *clear {
		summary, err := s.Clear(ctx)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		log.Printf("Removed %d users, %d posts, %d images; pruned %d tags",
			summary.Users, summary.Posts, summary.Images, summary.Tags)
		return
	}

	summary, err := s.Run(ctx, *count)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Created %d users, %d posts, %d images", summary.Users, summary.Posts, summary.Images)
	log.Printf("All seeded users have the password: %s", seed.SeedPassword)
}

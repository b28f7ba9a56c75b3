// cmd/tools/threshold-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"referwell-matching/internal/common/config"
	"referwell-matching/internal/common/database"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"
	"referwell-matching/internal/repository"
)

func main() {
	list := flag.Bool("list", false, "Print current thresholds after seeding")
	flag.Parse()

	log := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Ping(ctx); err != nil {
		fmt.Printf("Error pinging PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	repo := repository.NewThresholdRepository(pg.DB, log)
	if err := repo.SeedDefaults(ctx); err != nil {
		fmt.Printf("Error seeding thresholds: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Default thresholds seeded (existing rows untouched)")

	if *list {
		for _, def := range models.DefaultThresholds() {
			current, err := repo.Get(ctx, def.UserType)
			if err != nil {
				fmt.Printf("Error reading %s: %v\n", def.UserType, err)
				continue
			}
			if current == nil {
				fmt.Printf("  %-14s <missing>\n", def.UserType)
				continue
			}
			fmt.Printf("  %-14s auto=%.2f high_touch=%.2f\n",
				current.UserType, current.AutoThreshold, current.HighTouchThreshold)
		}
	}
}

// Command seed-categories creates any missing default categories for every
// existing user. It is idempotent.
package main

import (
	"context"
	"os"
	"time"

	"tracker/internal/cli"
	"tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentCategory)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := repo.ListUsers(ctx)
	if err != nil {
		logger.Error("Failed to list users", log.FieldError, err)
		os.Exit(1)
	}

	total := 0
	for _, u := range users {
		created, err := services.SeedDefaultCategories(ctx, repo, u.ID)
		if err != nil {
			logger.Error("Failed to seed categories", log.FieldError, err, log.FieldUserID, u.ID)
			continue
		}
		if created > 0 {
			logger.Info("Seeded categories", log.FieldUserID, u.ID, "username", u.Username, "created", created)
		}
		total += created
	}

	logger.Info("Seeding complete", "users", len(users), "created", total)
}

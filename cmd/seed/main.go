package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"loyalty-campaign/internal/config"
	"loyalty-campaign/internal/domain"
	pg "loyalty-campaign/internal/infra/db/postgres"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/usecase"
)

// Creates a campaign that starts now, or reactivates it when the code
// already exists. Useful before the first barcode import on a fresh database.
func main() {
	code := flag.String("campaign-code", "DEFAULT", "campaign code")
	name := flag.String("campaign-name", "Default Campaign", "campaign display name")
	days := flag.Int("days", 0, "campaign length in days; 0 means open-ended")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	migrate := flag.Bool("migrate", false, "apply the schema before seeding")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if *migrate || cfg.Database.Migrate {
		if err := pg.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	campaignUC := usecase.NewCampaignUseCase(pg.NewCampaignRepo(pool), logger)

	active := true
	in := usecase.CampaignInput{
		Code:      *code,
		Name:      *name,
		IsActive:  &active,
		StartDate: time.Now().UTC(),
	}
	if *days > 0 {
		end := in.StartDate.AddDate(0, 0, *days)
		in.EndDate = &end
	}

	c, err := campaignUC.Create(ctx, in)
	if errors.Is(err, domain.ErrAlreadyExists) {
		c, err = campaignUC.Update(ctx, *code, usecase.CampaignInput{IsActive: &active})
		if err != nil {
			log.Fatalf("reactivate campaign %q: %v", *code, err)
		}
		fmt.Printf("campaign %s already present; marked active (start=%s)\n", c.Code, c.StartDate.Format(time.RFC3339))
		return
	}
	if err != nil {
		log.Fatalf("create campaign %q: %v", *code, err)
	}
	fmt.Printf("seeded: %s (id=%s, start=%s)\n", c.Code, c.ID, c.StartDate.Format(time.RFC3339))
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"loyalty-campaign/internal/config"
	"loyalty-campaign/internal/domain/ports/repository"
	pg "loyalty-campaign/internal/infra/db/postgres"
	"loyalty-campaign/internal/infra/logging"
	red "loyalty-campaign/internal/infra/redis"
	"loyalty-campaign/internal/usecase"
)

// Bulk-loads six-digit barcodes for one campaign from a text file, one code
// per line. Exit status is 1 when the batch was rolled back.
func main() {
	file := flag.String("file", "", "path to the barcode file (required)")
	campaignCode := flag.String("campaign-code", "", "campaign the barcodes belong to (required)")
	namePrefix := flag.String("barcode-name", "", "display name prefix; defaults to import.barcode_name_prefix")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	if *file == "" || *campaignCode == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if *namePrefix == "" {
		*namePrefix = cfg.Import.BarcodeNamePrefix
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open %s: %v", *file, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	var locker repository.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	}

	uc := usecase.NewImportUseCase(pg.NewCampaignRepo(pool), pg.NewCampaignBarcodeRepo(pool), pg.NewTxManager(pool), locker, logger)
	report, err := uc.Import(ctx, f, *campaignCode, *namePrefix)
	if report != nil {
		printReport(report, *asJSON)
	}
	if err != nil {
		log.Printf("import failed: %v", err)
		os.Exit(1)
	}
}

func printReport(r *usecase.ImportReport, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
		return
	}
	fmt.Printf("campaign:   %s\n", r.CampaignCode)
	fmt.Printf("processed:  %d\n", r.Processed)
	fmt.Printf("created:    %d\n", r.Created)
	fmt.Printf("duplicates: %d\n", r.Duplicates)
	fmt.Printf("invalid:    %d\n", r.Invalid)
	fmt.Printf("errors:     %d\n", r.Errors)
	for _, l := range r.InvalidLines {
		fmt.Printf("  line %d: %q\n", l.Line, l.Value)
	}
	if r.RolledBack {
		fmt.Println("batch rolled back; nothing was saved")
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"property-trawler/config"
	"property-trawler/services"
	"property-trawler/storage"
	"property-trawler/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Property Trawler starting ===")

	criteria, err := cfg.LoadCriteria()
	if err != nil {
		logger.Error("Failed to load search criteria: %v", err)
		os.Exit(1)
	}
	if err := criteria.Validate(); err != nil {
		logger.Error("Invalid search criteria: %v", err)
		os.Exit(1)
	}

	logger.Info("Config: locations %v | max pages %d | delay %dms | concurrency %d",
		criteria.Locations, criteria.MaxPages, criteria.RequestDelayMs, cfg.MaxConcurrency)

	jsonWriter, err := storage.NewJSONWriter(cfg.JSONOutputPath)
	if err != nil {
		logger.Error("Failed to create JSON writer: %v", err)
		os.Exit(1)
	}
	defer jsonWriter.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	adapters := services.DefaultAdapters(criteria.RequestDelayMs, cfg.MaxRetries, logger)
	orchestrator := services.NewOrchestrator(adapters, cfg.MaxConcurrency, logger)

	result, err := orchestrator.Run(context.Background(), criteria)
	if err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Run complete: %d raw listings, %d ranked properties",
		result.TotalScraped, len(result.Properties))

	if err := jsonWriter.Write(result.Properties); err != nil {
		logger.Error("JSON write failed: %v", err)
	} else {
		logger.Info("Ranked properties saved to %s", cfg.JSONOutputPath)
	}

	if err := csvWriter.Write(result.Properties); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Ranked properties saved to %s", cfg.CSVOutputPath)
	}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(result.Properties); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Ranked properties stored in PostgreSQL (table: properties)")
			}
		}
	}

	reporter := services.NewReporter(logger)
	summary := reporter.Summarise(result)
	reporter.Print(summary, result)

	fmt.Printf("  Done. JSON → %s | CSV → %s\n\n", cfg.JSONOutputPath, cfg.CSVOutputPath)
}

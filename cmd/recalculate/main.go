package main

import (
	"flag"
	"log"

	"github.com/carlesonielfa/isthatslop-sub000/internal/database"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	var batchSize = flag.Int("batch", services.DefaultBatchSize, "maximum sources per batch")
	var drain = flag.Bool("drain", false, "keep running batches until no stale sources remain")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🔄 Starting score recalculation...")

	// Load database configuration and connect
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	recalc := services.NewRecalculationService(database.DB, services.NewScoreService(database.DB))

	for {
		result, err := recalc.ProcessBatch(*batchSize)
		if err != nil {
			log.Fatalf("❌ Failed to process batch: %v", err)
		}

		log.Printf("📊 Processed %d sources (%d failed, %d remaining)",
			result.Processed, len(result.FailedSourceIDs), result.Remaining)

		if !*drain || result.Remaining == 0 || result.Processed == 0 {
			break
		}
	}

	log.Println("✅ Score recalculation completed successfully!")
}

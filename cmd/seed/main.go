package main

import (
	"flag"
	"log"

	"github.com/carlesonielfa/isthatslop-sub000/internal/database"
	"github.com/carlesonielfa/isthatslop-sub000/internal/models"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds a small demo hierarchy with claims and votes so the browse and
// scoring endpoints have something to show. Safe to re-run: duplicate slugs
// get suffixed and scores are recomputed from whatever is in the database.

func main() {
	var withClaims = flag.Bool("claims", true, "also seed claims and votes")
	flag.Parse()

	log.Printf("🌱 isthatslop Database Seeder")
	log.Printf("=============================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	db := database.DB
	registry := services.NewSourceRegistry(db)
	scores := services.NewScoreService(db)
	claimService := services.NewClaimService(db, scores)

	// Seed users
	reporter := seedUser(db, "claim-reporter", true, false)
	voter := seedUser(db, "claim-voter", true, false)
	seedUser(db, "moderator", true, true)

	// Seed a platform -> community/channel hierarchy
	youtube := seedSource(registry, reporter.ID, "YouTube", "platform", nil)
	reddit := seedSource(registry, reporter.ID, "Reddit", "platform", nil)

	var techChannel, aiArt *models.Source
	if youtube != nil {
		techChannel = seedSource(registry, reporter.ID, "Tech Explained Daily", "channel", &youtube.ID)
	}
	if reddit != nil {
		aiArt = seedSource(registry, reporter.ID, "AI Art", "community", &reddit.ID)
	}

	if *withClaims {
		seedClaims(claimService, reporter.ID, voter.ID, techChannel, aiArt)
	}

	// Drain the stale queue so seeded sources start with fresh tiers
	recalc := services.NewRecalculationService(db, scores)
	result, err := recalc.ProcessBatch(services.DefaultBatchSize)
	if err != nil {
		log.Printf("⚠️  Failed to recalculate seeded scores: %v", err)
	} else {
		log.Printf("📊 Recalculated %d sources, %d remaining", result.Processed, result.Remaining)
	}

	log.Println("✅ Database seeding completed")
}

func seedUser(db *gorm.DB, handle string, verified, moderator bool) *models.User {
	var user models.User
	err := db.Where("handle = ?", handle).First(&user).Error
	if err == nil {
		log.Printf("👤 User %s already exists", handle)
		return &user
	}

	user = models.User{
		ID:            uuid.New(),
		Handle:        handle,
		DisplayName:   handle,
		Email:         handle + "@example.com",
		EmailVerified: verified,
		IsModerator:   moderator,
		IsActive:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("❌ Failed to seed user %s: %v", handle, err)
	}
	log.Printf("✅ Created user: %s", handle)
	return &user
}

func seedSource(registry *services.SourceRegistry, createdBy uuid.UUID, name, sourceType string, parentID *uuid.UUID) *models.Source {
	source, err := registry.Create(services.CreateSourceInput{
		Name:      name,
		Type:      sourceType,
		ParentID:  parentID,
		CreatedBy: createdBy,
	})
	if err != nil {
		log.Printf("⚠️  Failed to seed source %s: %v", name, err)
		return nil
	}
	log.Printf("✅ Created source: %s (%s)", name, source.Path)
	return source
}

func seedClaims(claimService *services.ClaimService, reporterID, voterID uuid.UUID, sources ...*models.Source) {
	seedTexts := []string{
		"Every upload in the last month uses the same synthetic narrator voice with telltale cadence artifacts.",
		"Thumbnails show classic diffusion-model artifacts: malformed hands and inconsistent lighting.",
		"Post frequency jumped from weekly to hourly with near-identical sentence structure across posts.",
	}

	for _, source := range sources {
		if source == nil {
			continue
		}
		for i, text := range seedTexts {
			claim, err := claimService.SubmitClaim(reporterID, source.ID, text, (i%5)+1, ((i+2)%5)+1)
			if err != nil {
				log.Printf("⚠️  Failed to seed claim on %s: %v", source.Name, err)
				continue
			}
			if i%2 == 0 {
				if _, err := claimService.Vote(voterID, claim.ID, true); err != nil {
					log.Printf("⚠️  Failed to seed vote: %v", err)
				}
			}
		}
		log.Printf("✅ Seeded %d claims on %s", len(seedTexts), source.Name)
	}
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"credit-ledger.backend/internal/config"
	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/infrastructure/repositories"
)

var openSeedDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{PrepareStmt: false})
}

func main() {
	if err := runSeed(); err != nil {
		log.Fatal(err)
	}
}

func runSeed() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := openSeedDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&entities.Wallet{},
		&entities.PayLevelConfig{},
		&entities.Order{},
		&entities.RedEnvelope{},
		&entities.RedEnvelopeClaim{},
		&entities.Dispute{},
		&entities.MerchantApp{},
		&entities.Product{},
		&entities.CardKey{},
		&entities.PaymentTransaction{},
		&entities.SystemConfig{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	ctx := context.Background()

	if err := repositories.NewConfigRepository(db).SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed system configs: %w", err)
	}
	if err := repositories.NewPayLevelRepository(db).SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed pay levels: %w", err)
	}

	log.Println("schema migrated and defaults seeded")
	return nil
}

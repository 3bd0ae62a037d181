package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/paramvora-myacara/oz-homepage-sub003/models"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

// Init opens the postgres connection and migrates the billing tables. The
// handle is returned rather than stored globally so the store can be
// injected into the billing components.
func Init() (*gorm.DB, error) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: utils.GetGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	err = gormDB.AutoMigrate(
		&models.User{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.SubscriptionPayment{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	utils.LogSuccess("Database connection successful")
	return gormDB, nil
}

package db

import (
	"fmt"
	"log"
	"os"

	"lablend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Credential{},
		&models.Invite{},
		&models.Material{},
		&models.Request{},
	); err != nil {
		return err
	}

	// Composite indexes backing the ordered request scans. Listing
	// falls back to an in-memory sort when these are missing, but a
	// normal deployment should have them.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_user_created_desc
	  ON %s (user_id, created_at DESC);
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_created_desc
	  ON %s (status, created_at DESC);
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	return nil
}

package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env if present. Real deployments set env vars directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
}

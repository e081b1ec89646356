package models

import (
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	DatabaseURL string
	Port        string
	Debug       bool
}

func ReadEnvConfig() EnvConfig {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("BYTEEXCHANGE_PORT")
	if port == "" {
		port = "8000"
	}
	return EnvConfig{
		DatabaseURL: os.Getenv("BYTEEXCHANGE_DATABASE_URL"),
		Port:        port,
		Debug:       os.Getenv("BYTEEXCHANGE_DEBUG") == "true",
	}
}

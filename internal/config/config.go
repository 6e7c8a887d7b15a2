package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	BACKEND_URL   string
	LISTEN_ADDR   string
	STATE_DB_PATH string
	KAFKA_ADDRESS string
	GEOCODER_URL  string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		BACKEND_URL:   getenv("BACKEND_URL", "http://localhost:27500"),
		LISTEN_ADDR:   getenv("LISTEN_ADDR", ":8080"),
		STATE_DB_PATH: getenv("STATE_DB_PATH", "orderdesk_state.db"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		GEOCODER_URL:  getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		LOG_LEVEL:     getenv("LOG_LEVEL", "info"),
	}

	return config, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

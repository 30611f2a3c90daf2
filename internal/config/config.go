package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// AutoRegister makes park register an unknown plate on first sight.
	// With it disabled, park fails with vehicle-not-found.
	AutoRegister bool

	// MaxRangeDays caps the span of time-ranged reports.
	MaxRangeDays int

	OccupancyPeriod time.Duration
	PositionsPeriod time.Duration
	MovementPeriod  time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AutoRegister:    getEnvBool("YARD_AUTO_REGISTER", true),
		MaxRangeDays:    getEnvInt("REPORT_MAX_RANGE_DAYS", 360),
		OccupancyPeriod: getEnvSeconds("STREAM_OCCUPANCY_SECONDS", 5),
		PositionsPeriod: getEnvSeconds("STREAM_POSITIONS_SECONDS", 2),
		MovementPeriod:  getEnvSeconds("STREAM_MOVEMENT_SECONDS", 5),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

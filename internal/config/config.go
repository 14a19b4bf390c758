package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	TickInterval   time.Duration // loop wake-up bound, enforces question deadlines with no traffic
	QuestionTimeMs int           // default question time limit
}

func Load() *Config {
	port := getEnvAsInt("PORT", 4000)
	tickMs := getEnvAsInt("TICK_INTERVAL_MS", 500)
	questionTime := getEnvAsInt("QUESTION_TIME_MS", 10000)

	return &Config{
		Port:           port,
		TickInterval:   time.Duration(tickMs) * time.Millisecond,
		QuestionTimeMs: questionTime,
	}
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

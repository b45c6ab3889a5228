package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the caseflow service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Auth configuration
	JWTSecret string

	// Evidence configuration
	MaxEvidenceDistanceMeters int

	// RabbitMQ configuration
	AMQPUrl        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Email configuration (notifications disabled when the key is empty)
	SendGridAPIKey string
	EmailFromName  string
	EmailFrom      string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "caseflow"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		// Evidence photos further than this from the case address are rejected
		MaxEvidenceDistanceMeters: getIntEnv("MAX_EVIDENCE_DISTANCE_METERS", 500),

		AMQPUrl:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "caseflow"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report.submitted"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "CaseFlow"),
		EmailFrom:      getEnv("EMAIL_FROM", "noreply@caseflow.local"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

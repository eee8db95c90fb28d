package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingAPIKey is returned by Validate when no model API credential is
// configured. Treated as fatal at startup, before any analysis runs.
var ErrMissingAPIKey = errors.New("NVIDIA_API_KEY environment variable is required")

// Config holds all configuration for the eco report service
type Config struct {
	// Server configuration
	Port string

	// LLM provider: "nvidia" or "stub" (deterministic, no network; CI only)
	LLMProvider string

	// NVIDIA Integrate API configuration
	NvidiaAPIKey   string
	VisionModel    string
	ReasoningModel string
	ReportModel    string
	RequestTimeout time.Duration

	// Analysis configuration
	UseModelSeverity  bool
	MaxImageDimension int

	// Optional report submission via email. Submission stays disabled when
	// the SendGrid key is empty.
	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Provider defaults
		LLMProvider: getEnv("LLM_PROVIDER", "nvidia"),

		// NVIDIA defaults
		NvidiaAPIKey:   getEnv("NVIDIA_API_KEY", ""),
		VisionModel:    getEnv("VISION_MODEL", "nvidia/llama-3.1-nemotron-nano-vl-8b-v1"),
		ReasoningModel: getEnv("REASONING_MODEL", "nvidia/nvidia-nemotron-nano-9b-v2"),
		ReportModel:    getEnv("REPORT_MODEL", "nvidia/llama-3_3-nemotron-super-49b-v1_5"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 60*time.Second),

		// Analysis defaults
		UseModelSeverity:  getBoolEnv("USE_MODEL_SEVERITY", true),
		MaxImageDimension: getIntEnv("MAX_IMAGE_DIMENSION", 1024),

		// Email defaults
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "EcoReport"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "reports@ecoreport.example.com"),
	}
}

// Validate checks that the required credential is present. The stub provider
// needs no credential.
func (c *Config) Validate() error {
	if c.LLMProvider != "stub" && c.NvidiaAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// EmailEnabled reports whether outbound report submission is configured.
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
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

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

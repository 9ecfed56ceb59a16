// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"os"
)

// S3 holds object-storage credentials, required only for remote inputs.
type S3 struct {
	Region    string
	AccessKey string
	SecretKey string
}

// Config is the process-wide environment configuration.
type Config struct {
	S3       S3
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		S3: S3{
			Region:    os.Getenv("S3_REGION"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

// Validate checks that all credentials needed for remote inputs are set.
func (s S3) Validate() error {
	if s.Region == "" {
		return errors.New("config: environment variable S3_REGION not set")
	}
	if s.AccessKey == "" {
		return errors.New("config: environment variable S3_ACCESS_KEY not set")
	}
	if s.SecretKey == "" {
		return errors.New("config: environment variable S3_SECRET_KEY not set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

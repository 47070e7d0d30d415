package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv loads PI_* and OTEL_* settings from .env (or the file named by
// PI_ENV_FILE) when present. Existing process environment variables are not
// overridden.
func loadDotEnv() error {
	path := os.Getenv("PI_ENV_FILE")
	if path == "" {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}

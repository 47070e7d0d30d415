// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds the settings of the API server and the evaluation limits.
type Config struct {
	Addr            string        // PI_ADDR
	LogLevel        string        // LOG_LEVEL
	OTLPLogs        bool          // PI_OTLP_LOGS: also export logs over OTLP
	ShutdownTimeout time.Duration // PI_SHUTDOWN_TIMEOUT

	DefaultDigits int    // PI_DEFAULT_DIGITS
	MaxDigits     int    // PI_MAX_DIGITS, 0 means unlimited
	MaxTerms      uint64 // PI_MAX_TERMS, 0 means unlimited
	MaxWorkers    int    // PI_MAX_WORKERS, 0 means unlimited
}

// Default returns the settings used for unset variables.
func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		DefaultDigits:   1000,
		MaxDigits:       20000,
		MaxTerms:        10_000_000,
		MaxWorkers:      runtime.NumCPU(),
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup, starting from Default.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	r := reader{lookup: lookup}

	r.str("PI_ADDR", &c.Addr)
	r.str("LOG_LEVEL", &c.LogLevel)
	r.boolean("PI_OTLP_LOGS", &c.OTLPLogs)
	r.duration("PI_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	r.integer("PI_DEFAULT_DIGITS", &c.DefaultDigits)
	r.integer("PI_MAX_DIGITS", &c.MaxDigits)
	r.unsigned("PI_MAX_TERMS", &c.MaxTerms)
	r.integer("PI_MAX_WORKERS", &c.MaxWorkers)
	if r.err != nil {
		return Config{}, r.err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch {
	case c.DefaultDigits < 0:
		return fmt.Errorf("config: PI_DEFAULT_DIGITS must not be negative, got %d", c.DefaultDigits)
	case c.MaxDigits < 0:
		return fmt.Errorf("config: PI_MAX_DIGITS must not be negative, got %d", c.MaxDigits)
	case c.MaxWorkers < 0:
		return fmt.Errorf("config: PI_MAX_WORKERS must not be negative, got %d", c.MaxWorkers)
	case c.MaxDigits > 0 && c.DefaultDigits > c.MaxDigits:
		return fmt.Errorf("config: PI_DEFAULT_DIGITS %d exceeds PI_MAX_DIGITS %d", c.DefaultDigits, c.MaxDigits)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("config: PI_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// reader keeps the first parse error.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) get(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *reader) fail(key, v string, err error) {
	r.err = fmt.Errorf("config: %s=%q: %w", key, v, err)
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) boolean(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = b
}

func (r *reader) integer(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *reader) unsigned(key string, dst *uint64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = d
}

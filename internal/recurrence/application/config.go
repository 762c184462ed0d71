package application

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultHorizonDays    = 90
	defaultHorizonMonths  = 3
	defaultMaxOccurrences = 12
)

// Config bounds a projection sweep. The day and month horizons both hold
// simultaneously; the tighter one wins. The occurrence cap bounds worst-case
// work for a misconfigured recurrence, such as weekly with no end date.
type Config struct {
	HorizonDays    int `yaml:"horizon_days"`
	HorizonMonths  int `yaml:"horizon_months"`
	MaxOccurrences int `yaml:"max_occurrences"`
}

// DefaultConfig returns the stock sweep bounds.
func DefaultConfig() Config {
	return Config{
		HorizonDays:    defaultHorizonDays,
		HorizonMonths:  defaultHorizonMonths,
		MaxOccurrences: defaultMaxOccurrences,
	}
}

// LoadConfig loads sweep bounds from yaml or env.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("PROJECTOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := getenvIntDefault("PROJECTOR_HORIZON_DAYS", 0); v > 0 {
		cfg.HorizonDays = v
	}
	if v := getenvIntDefault("PROJECTOR_HORIZON_MONTHS", 0); v > 0 {
		cfg.HorizonMonths = v
	}
	if v := getenvIntDefault("PROJECTOR_MAX_OCCURRENCES", 0); v > 0 {
		cfg.MaxOccurrences = v
	}

	if cfg.HorizonDays <= 0 || cfg.HorizonMonths <= 0 || cfg.MaxOccurrences <= 0 {
		return cfg, errors.New("projector: horizon bounds must be positive")
	}
	return cfg, nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

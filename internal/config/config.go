// Package config loads runtime configuration from environment
// variables, with an optional YAML file for the scheduler knobs.
package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable; required ones are enforced by must() and
// missing values abort startup.
type Config struct {
	Env            string // application environment (dev/test/prod)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	Scheduler SchedulerConfig
}

// SchedulerConfig controls instance materialization. All fields have
// defaults so a bare environment still schedules sensibly.
type SchedulerConfig struct {
	HorizonDays     int    `yaml:"horizon_days"`     // how far ahead to materialize
	MaterializeCron string `yaml:"materialize_cron"` // cron spec for the nightly pass
	DefaultTimezone string `yaml:"default_timezone"` // fallback zone for new shows
}

// Load reads configuration from the environment. When SCHEDULER_CONFIG
// names a YAML file, its values override the scheduler defaults;
// scheduler env vars override the file in turn.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Scheduler:      loadScheduler(),
	}
	return cfg
}

func loadScheduler() SchedulerConfig {
	sc := SchedulerConfig{
		HorizonDays:     90,
		MaterializeCron: "30 3 * * *",
		DefaultTimezone: "UTC",
	}
	if path := os.Getenv("SCHEDULER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read scheduler config %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			log.Fatalf("parse scheduler config %s: %v", path, err)
		}
	}
	if v := os.Getenv("SCHEDULE_HORIZON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("invalid SCHEDULE_HORIZON_DAYS: %q", v)
		}
		sc.HorizonDays = n
	}
	if v := os.Getenv("MATERIALIZE_CRON"); v != "" {
		sc.MaterializeCron = v
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		sc.DefaultTimezone = v
	}
	return sc
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() plus integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

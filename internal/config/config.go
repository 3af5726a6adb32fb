package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for the ingestion pipeline
type Config struct {
	ListenAddr   string        `yaml:"listen_addr"`
	DBPath       string        `yaml:"db_path"`
	ScanRoot     string        `yaml:"scan_root"`
	ScanInterval time.Duration `yaml:"scan_interval"`

	Session  SessionConfig  `yaml:"session"`
	Geofence GeofenceConfig `yaml:"geofence"`
}

// SessionConfig controls session materialization
type SessionConfig struct {
	// StartHour anchors the nominal session window at a fixed time of day.
	// The anchor is not derived from sensor data; treat it as policy.
	StartHour      int   `yaml:"start_hour"`
	OrganizationID int64 `yaml:"organization_id"`
}

// GeofenceConfig controls the remote geofence provider and its local fallback
type GeofenceConfig struct {
	BaseURL        string         `yaml:"base_url"`
	Credential     string         `yaml:"credential"`
	CacheTTL       time.Duration  `yaml:"cache_ttl"`
	FallbackRadius float64        `yaml:"fallback_radius_meters"`
	FallbackZones  []FallbackZone `yaml:"fallback_zones"`
}

// FallbackZone is a zone center used by the local-distance classifier
// when the remote provider is unavailable
type FallbackZone struct {
	ID  string  `yaml:"id"`
	Tag string  `yaml:"tag"`
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Load reads an optional YAML file pointed to by CONFIG_FILE and applies
// environment variable overrides on top of the defaults
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   ":8080",
		DBPath:       "./data/fleet.db",
		ScanRoot:     "./data/incoming",
		ScanInterval: 60 * time.Second,
		Session: SessionConfig{
			StartHour:      8,
			OrganizationID: 1,
		},
		Geofence: GeofenceConfig{
			CacheTTL:       10 * time.Minute,
			FallbackRadius: 250,
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Session.StartHour < 0 || cfg.Session.StartHour > 23 {
		return nil, fmt.Errorf("config: session start_hour %d out of range", cfg.Session.StartHour)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SCAN_ROOT"); v != "" {
		cfg.ScanRoot = v
	}
	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ScanInterval = d
		}
	}
	if v := os.Getenv("SESSION_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.Session.StartHour = h
		}
	}
	if v := os.Getenv("ORGANIZATION_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Session.OrganizationID = id
		}
	}
	if v := os.Getenv("GEOFENCE_BASE_URL"); v != "" {
		cfg.Geofence.BaseURL = v
	}
	if v := os.Getenv("GEOFENCE_CREDENTIAL"); v != "" {
		cfg.Geofence.Credential = v
	}
	if v := os.Getenv("GEOFENCE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Geofence.CacheTTL = d
		}
	}
}

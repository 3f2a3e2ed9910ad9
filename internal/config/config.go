// Package config loads pedidos settings from YAML with PEDIDOS_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Parse    ParseConfig    `yaml:"parse"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type CatalogConfig struct {
	// Backend is one of sqlite, postgres, supabase.
	Backend     string `yaml:"backend"`
	DSN         string `yaml:"dsn"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	// Seed is an optional YAML catalog imported at startup.
	Seed string `yaml:"seed"`
}

type DraftsConfig struct {
	// Backend is memory or pebble.
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

type DispatchConfig struct {
	File           string `yaml:"file"`
	KafkaBootstrap string `yaml:"kafka_bootstrap"`
	Topic          string `yaml:"topic"`
}

type IngestConfig struct {
	Bootstrap string `yaml:"bootstrap"`
	GroupID   string `yaml:"group_id"`
	Topic     string `yaml:"topic"`
}

type ParseConfig struct {
	AssumeBagQuantity float64 `yaml:"assume_bag_quantity"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

const (
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
	CatalogSupabase = "supabase"

	DraftsMemory = "memory"
	DraftsPebble = "pebble"
)

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Catalog: CatalogConfig{
			Backend: CatalogSQLite,
			DSN:     "data/catalog.db",
		},
		Drafts: DraftsConfig{
			Backend:     DraftsPebble,
			Dir:         "data/drafts",
			SnapshotDir: "data/snapshots",
		},
		Dispatch: DispatchConfig{
			File:  "data/dispatch.jsonl",
			Topic: "pedidos.dispatch",
		},
		Ingest: IngestConfig{
			Bootstrap: "localhost:9092",
			GroupID:   "pedidos-ingest",
			Topic:     "pedidos.raw",
		},
		Parse:   ParseConfig{AssumeBagQuantity: 1},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path (a missing file yields defaults) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	c.HTTP.Addr = getEnv("PEDIDOS_HTTP_ADDR", c.HTTP.Addr)

	c.Catalog.Backend = getEnv("PEDIDOS_CATALOG_BACKEND", c.Catalog.Backend)
	c.Catalog.DSN = getEnv("PEDIDOS_CATALOG_DSN", c.Catalog.DSN)
	c.Catalog.Seed = getEnv("PEDIDOS_CATALOG_SEED", c.Catalog.Seed)
	// the web app's variable names are honoured too
	c.Catalog.SupabaseURL = getEnv("PEDIDOS_SUPABASE_URL", getEnv("VITE_SUPABASE_URL", c.Catalog.SupabaseURL))
	c.Catalog.SupabaseKey = getEnv("PEDIDOS_SUPABASE_KEY", getEnv("VITE_SUPABASE_ANON_KEY", c.Catalog.SupabaseKey))

	c.Drafts.Backend = getEnv("PEDIDOS_DRAFTS_BACKEND", c.Drafts.Backend)
	c.Drafts.Dir = getEnv("PEDIDOS_DRAFTS_DIR", c.Drafts.Dir)
	c.Drafts.SnapshotDir = getEnv("PEDIDOS_SNAPSHOT_DIR", c.Drafts.SnapshotDir)

	c.Dispatch.File = getEnv("PEDIDOS_DISPATCH_FILE", c.Dispatch.File)
	c.Dispatch.KafkaBootstrap = getEnv("PEDIDOS_DISPATCH_KAFKA", c.Dispatch.KafkaBootstrap)
	c.Dispatch.Topic = getEnv("PEDIDOS_DISPATCH_TOPIC", c.Dispatch.Topic)

	c.Ingest.Bootstrap = getEnv("PEDIDOS_INGEST_BOOTSTRAP", c.Ingest.Bootstrap)
	c.Ingest.GroupID = getEnv("PEDIDOS_INGEST_GROUP", c.Ingest.GroupID)
	c.Ingest.Topic = getEnv("PEDIDOS_INGEST_TOPIC", c.Ingest.Topic)

	if v := os.Getenv("PEDIDOS_ASSUME_BAG_QUANTITY"); v != "" {
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("PEDIDOS_ASSUME_BAG_QUANTITY: %w", err)
		}
		c.Parse.AssumeBagQuantity = f
	}

	c.Logging.Level = getEnv("PEDIDOS_LOG_LEVEL", c.Logging.Level)
	if v := os.Getenv("PEDIDOS_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PEDIDOS_LOG_JSON: %w", err)
		}
		c.Logging.JSON = b
	}
	return nil
}

// Validate checks enumerated fields and backend requirements.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case CatalogSQLite, CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for backend %s", c.Catalog.Backend)
		}
	case CatalogSupabase:
		if c.Catalog.SupabaseURL == "" || c.Catalog.SupabaseKey == "" {
			return fmt.Errorf("catalog.supabase_url and catalog.supabase_key are required")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	switch c.Drafts.Backend {
	case DraftsMemory:
	case DraftsPebble:
		if c.Drafts.Dir == "" {
			return fmt.Errorf("drafts.dir is required for pebble")
		}
	default:
		return fmt.Errorf("unknown drafts backend %q", c.Drafts.Backend)
	}
	if c.Parse.AssumeBagQuantity <= 0 {
		return fmt.Errorf("parse.assume_bag_quantity must be > 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/pagetree/internal/pagetree"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBPath string

	// Translation field map (YAML, optional; defaults are built in)
	FieldMapPath string

	// Engine ceilings
	MaxDocumentBytes int
	MaxNodeCount     int
	TraversalBudget  int
	MaxChunkBytes    int

	// Batch translation pipeline
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("PAGETREE_API_KEY"),

		DBPath: envOr("PAGETREE_DB", "pagetree.db"),

		FieldMapPath: os.Getenv("FIELD_MAP_PATH"),

		MaxDocumentBytes: envInt("MAX_DOCUMENT_BYTES", 8<<20),
		MaxNodeCount:     envInt("MAX_NODE_COUNT", 20000),
		TraversalBudget:  envInt("TRAVERSAL_BUDGET", pagetree.DefaultTraversalBudget),
		MaxChunkBytes:    envInt("MAX_CHUNK_BYTES", pagetree.DefaultMaxChunkBytes),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 8 << 20
	}
	if cfg.MaxNodeCount <= 0 {
		cfg.MaxNodeCount = 20000
	}
	if cfg.TraversalBudget <= 0 {
		cfg.TraversalBudget = pagetree.DefaultTraversalBudget
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = pagetree.DefaultMaxChunkBytes
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAGETREE_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("PAGETREE_DB must not be empty")
	}
	return nil
}

// Limits projects the configured ceilings into engine limits.
func (c Config) Limits() pagetree.Limits {
	return pagetree.Limits{
		MaxBytes:        c.MaxDocumentBytes,
		MaxNodes:        c.MaxNodeCount,
		TraversalBudget: c.TraversalBudget,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int               `json:"port"`
	DBPath           string            `json:"db_path"`
	MigrationsDir    string            `json:"migrations_dir"`
	JWTSecret        string            `json:"jwt_secret"`
	JWTTTLHours      int               `json:"jwt_ttl_hours"`
	CORSOrigins      []string          `json:"cors_origins"`
	RateLimitSeconds int               `json:"rate_limit_seconds"`
	LogConfig        logger.LogConfig  `json:"log_config"`
	FileStore        FileStoreConfig   `json:"file_store"`
	VectorStore      VectorStoreConfig `json:"vector_store"`
	AI               AIConfig          `json:"ai"`
	Ingest           IngestConfig      `json:"ingest"`
	Quota            QuotaConfig       `json:"quota"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type VectorStoreConfig struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	Dimension int    `json:"dimension"`
}

// ProviderConfig selects one registered AI provider with its model and
// provider-specific arguments (keys, endpoints).
type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	IngestEmbedder ProviderConfig   `json:"ingest_embedder"`
	QueryEmbedders []ProviderConfig `json:"query_embedders"`
	Completion     ProviderConfig   `json:"completion"`
}

type IngestConfig struct {
	ChunkDelaySeconds int    `json:"chunk_delay_seconds"`
	WorkerSpec        string `json:"worker_spec"`
	CleanupSpec       string `json:"cleanup_spec"`
	MaxUploadBytes    int64  `json:"max_upload_bytes"`
}

type QuotaConfig struct {
	DailyLimit int `json:"daily_limit"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "uploads"}
	}
	if cfg.VectorStore.URL == "" || cfg.VectorStore.Token == "" {
		return nil, fmt.Errorf("vector_store url/token are required")
	}
	if cfg.AI.IngestEmbedder.Provider == "" {
		return nil, fmt.Errorf("ai.ingest_embedder.provider is required")
	}
	if len(cfg.AI.QueryEmbedders) == 0 {
		return nil, fmt.Errorf("ai.query_embedders is required")
	}
	if cfg.AI.Completion.Provider == "" {
		return nil, fmt.Errorf("ai.completion.provider is required")
	}
	if cfg.Ingest.ChunkDelaySeconds <= 0 {
		cfg.Ingest.ChunkDelaySeconds = 20
	}
	if cfg.Ingest.WorkerSpec == "" {
		cfg.Ingest.WorkerSpec = "* * * * *"
	}
	if cfg.Ingest.CleanupSpec == "" {
		cfg.Ingest.CleanupSpec = "0 3 * * *"
	}
	if cfg.Ingest.MaxUploadBytes <= 0 {
		cfg.Ingest.MaxUploadBytes = 20 << 20
	}
	if cfg.Quota.DailyLimit <= 0 {
		cfg.Quota.DailyLimit = 5
	}
	return &cfg, nil
}

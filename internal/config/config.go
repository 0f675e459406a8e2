package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	Index       IndexConfig      `json:"index"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Schedule    ScheduleConfig   `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generators     []AIProviderConfig `json:"generators"`
	Embedders      []AIProviderConfig `json:"embedders"`
	TimeoutSeconds int                `json:"timeout_seconds"`
	MaxInputChars  int                `json:"max_input_chars"`
	CacheSize      int                `json:"cache_size"`
	CacheTTLHours  int                `json:"cache_ttl_hours"`
}

type IndexConfig struct {
	Dir          string `json:"dir"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	TopK         int    `json:"top_k"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	ReminderSpec string `json:"reminder_spec"`
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
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if len(cfg.AI.Generators) == 0 {
		return nil, fmt.Errorf("ai.generators is required")
	}
	if len(cfg.AI.Embedders) == 0 {
		return nil, fmt.Errorf("ai.embedders is required")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 100000
	}
	if cfg.Index.Dir == "" {
		return nil, fmt.Errorf("index.dir is required")
	}
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 750
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 120
	}
	if cfg.Index.ChunkOverlap >= cfg.Index.ChunkSize {
		return nil, fmt.Errorf("index.chunk_overlap must be smaller than index.chunk_size")
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 4
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Schedule.ReminderSpec == "" {
		cfg.Schedule.ReminderSpec = "* * * * *"
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config csf-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	// Store backend: "memory", "redis", or "postgres".
	StoreBackend string         `yaml:"store_backend"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Reference file sources. URL wins over Path; both empty means the
	// built-in sample data is used.
	Seed struct {
		URL  string `yaml:"url"`
		Path string `yaml:"path"`
	} `yaml:"seed"`
	ArtifactRefsURL string `yaml:"artifact_refs_url"`
	Legend          struct {
		URL  string `yaml:"url"`
		Path string `yaml:"path"`
	} `yaml:"legend"`
}

// Load reads configuration from an optional YAML file (CONFIG_FILE)
// with environment variables layered on top, so a plain `go run` works
// without any file present.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", defStr(cfg.HTTP.Addr, ":8080"))

	// Default to memory for local dev: the service is fully usable with
	// plain `go run` and no backing store.
	cfg.StoreBackend = getEnv("STORE_BACKEND", defStr(cfg.StoreBackend, "memory"))

	cfg.Database.Host = getEnv("DB_HOST", defStr(cfg.Database.Host, "localhost"))
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), defInt(cfg.Database.Port, 5432))
	cfg.Database.User = getEnv("DB_USER", defStr(cfg.Database.User, "postgres"))
	cfg.Database.Password = getEnv("DB_PASSWORD", defStr(cfg.Database.Password, "postgres"))
	cfg.Database.Database = getEnv("DB_NAME", defStr(cfg.Database.Database, "csfdata"))
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", defStr(cfg.Database.SSLMode, "disable"))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", defStr(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)

	cfg.Log.Level = getEnv("LOG_LEVEL", defStr(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnv("LOG_FORMAT", defStr(cfg.Log.Format, "json"))

	cfg.Seed.URL = getEnv("SEED_PROFILE_URL", cfg.Seed.URL)
	cfg.Seed.Path = getEnv("SEED_PROFILE_PATH", cfg.Seed.Path)
	cfg.ArtifactRefsURL = getEnv("ARTIFACT_REFS_URL", cfg.ArtifactRefsURL)
	cfg.Legend.URL = getEnv("LEGEND_URL", cfg.Legend.URL)
	cfg.Legend.Path = getEnv("LEGEND_PATH", cfg.Legend.Path)

	switch cfg.StoreBackend {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defStr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func defInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string  `yaml:"port"`
	DataDir         string  `yaml:"data_dir"`
	LogDir          string  `yaml:"log_dir"`
	LibraryDir      string  `yaml:"library_dir"`
	MaxFileSizeMB   int     `yaml:"max_file_size_mb"`
	ScanWorkers     int     `yaml:"scan_workers"`
	ScanIntervalMin int     `yaml:"scan_interval_min"`
	CacheTTLHours   float64 `yaml:"cache_ttl_hours"`
	JPEGMaxScanMB   int     `yaml:"jpeg_max_scan_mb"`
	JPEGMaxSegments int     `yaml:"jpeg_max_segments"`
	VerifyDecode    bool    `yaml:"verify_decode"`
	RateLimitPerMin int     `yaml:"rate_limit_per_min"`
}

func defaults() *Config {
	return &Config{
		Port:            "8080",
		DataDir:         "./data",
		LibraryDir:      "./library",
		MaxFileSizeMB:   20,
		ScanWorkers:     4,
		ScanIntervalMin: 30,
		CacheTTLHours:   168,
		JPEGMaxScanMB:   16,
		JPEGMaxSegments: 4096,
		RateLimitPerMin: 120,
	}
}

// Load reads CONFIG_FILE (if set) and then applies environment overrides.
// A broken config file is logged and ignored.
func Load() *Config {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg
		}
		log.Printf("config: %v, using environment only", err)
	}
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML config file over the defaults and then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LibraryDir = getEnv("LIBRARY_DIR", cfg.LibraryDir)
	cfg.MaxFileSizeMB = getEnvInt("MAX_FILE_SIZE_MB", cfg.MaxFileSizeMB)
	cfg.ScanWorkers = getEnvInt("SCAN_WORKERS", cfg.ScanWorkers)
	cfg.ScanIntervalMin = getEnvInt("SCAN_INTERVAL_MIN", cfg.ScanIntervalMin)
	cfg.CacheTTLHours = getEnvFloat("CACHE_TTL_HOURS", cfg.CacheTTLHours)
	cfg.JPEGMaxScanMB = getEnvInt("JPEG_MAX_SCAN_MB", cfg.JPEGMaxScanMB)
	cfg.JPEGMaxSegments = getEnvInt("JPEG_MAX_SEGMENTS", cfg.JPEGMaxSegments)
	cfg.VerifyDecode = getEnvBool("VERIFY_DECODE", cfg.VerifyDecode)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin)

	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataDir, "logs")
	}
	if cfg.ScanWorkers < 1 {
		cfg.ScanWorkers = 1
	}
}

// MaxUploadBytes is MaxFileSizeMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// Package config handles application configuration using Viper: defaults,
// an optional YAML file, and HEADSHOT_-prefixed environment variables,
// merged in that priority order.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. The enhancement parameter sets
// themselves are not here; those are published presets resolved per
// request; this file covers the service around them.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Transform TransformConfig `mapstructure:"transform"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MaxUploadBytes caps the request image size before any decode work.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables rotated file output next to stderr when non-empty.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DetectorConfig holds the pigo cascade parameters.
type DetectorConfig struct {
	CascadePath      string  `mapstructure:"cascade_path"`
	MinSize          int     `mapstructure:"min_size"`
	MaxSize          int     `mapstructure:"max_size"`
	ShiftFactor      float64 `mapstructure:"shift_factor"`
	ScaleFactor      float64 `mapstructure:"scale_factor"`
	ClusterIoU       float64 `mapstructure:"cluster_iou"`
	QualityThreshold float32 `mapstructure:"quality_threshold"`
	MaxDetectionEdge int     `mapstructure:"max_detection_edge"`
}

type TransformConfig struct {
	// Concurrency is the libvips worker pool size; 0 uses NumCPU.
	Concurrency int `mapstructure:"concurrency"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	CacheDir     string `mapstructure:"cache_dir"`
}

type PipelineConfig struct {
	DefaultPreset string `mapstructure:"default_preset"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_bytes", 25*1024*1024)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("detector.cascade_path", "./assets/facefinder")
	v.SetDefault("detector.min_size", 20)
	v.SetDefault("detector.max_size", 2000)
	v.SetDefault("detector.shift_factor", 0.1)
	v.SetDefault("detector.scale_factor", 1.1)
	v.SetDefault("detector.cluster_iou", 0.18)
	v.SetDefault("detector.quality_threshold", 5.0)
	v.SetDefault("detector.max_detection_edge", 1400)
	v.SetDefault("transform.concurrency", 0)
	v.SetDefault("storage.database_path", "./storage/headshot-service.db")
	v.SetDefault("storage.cache_dir", "./storage/cache")
	v.SetDefault("pipeline.default_preset", "natural")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing config file is fine, defaults plus env cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// HEADSHOT_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("HEADSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

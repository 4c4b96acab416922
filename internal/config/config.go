package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	SAM       SAMConfig       `yaml:"sam" mapstructure:"sam"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the result cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ResultTTL returns the cache entry lifetime.
func (c StoreConfig) ResultTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SAMConfig configures the segmentation sidecar.
type SAMConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	ModelID      string  `yaml:"model_id" mapstructure:"model_id"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	LoadTimeout  int     `yaml:"load_timeout_secs" mapstructure:"load_timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// DiscoveryConfig tunes the segmentation discovery pass. The defaults are
// part of the observable contract: changing them changes cache keys.
type DiscoveryConfig struct {
	GridSize      int     `yaml:"grid_size" mapstructure:"grid_size"`
	QualityFloor  float64 `yaml:"quality_floor" mapstructure:"quality_floor"`
	MinBoxExtent  float64 `yaml:"min_box_extent" mapstructure:"min_box_extent"`
	MaxBoxExtent  float64 `yaml:"max_box_extent" mapstructure:"max_box_extent"`
	MergeRadius   float64 `yaml:"merge_radius" mapstructure:"merge_radius"`
	MinComponents int     `yaml:"min_components" mapstructure:"min_components"`
	FixedDepth    float64 `yaml:"fixed_depth" mapstructure:"fixed_depth"`
	BatchSizeGPU  int     `yaml:"batch_size_gpu" mapstructure:"batch_size_gpu"`
	BatchSizeCPU  int     `yaml:"batch_size_cpu" mapstructure:"batch_size_cpu"`
}

// EnrichConfig configures the describe/enrichment step.
type EnrichConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	BatchSize     int `yaml:"batch_size" mapstructure:"batch_size"`
}

// GeocodeConfig configures the place geocoder used for supply chain research.
type GeocodeConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	GoogleKey    string  `yaml:"google_key" mapstructure:"google_key"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// UploadConfig configures image ingestion.
type UploadConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	MaxBytes int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	MaxEdge  int    `yaml:"max_edge" mapstructure:"max_edge"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARTSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "partscope.db")
	v.SetDefault("store.ttl_hours", 24*30)
	v.SetDefault("sam.base_url", "http://localhost:9041")
	v.SetDefault("sam.model_id", "facebook/sam-vit-base")
	v.SetDefault("sam.timeout_secs", 120)
	v.SetDefault("sam.load_timeout_secs", 300)
	v.SetDefault("sam.rate_limit_rps", 4)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("discovery.grid_size", 6)
	v.SetDefault("discovery.quality_floor", 0.70)
	v.SetDefault("discovery.min_box_extent", 0.05)
	v.SetDefault("discovery.max_box_extent", 0.9)
	v.SetDefault("discovery.merge_radius", 0.1)
	v.SetDefault("discovery.min_components", 5)
	v.SetDefault("discovery.fixed_depth", 0.02)
	v.SetDefault("discovery.batch_size_gpu", 12)
	v.SetDefault("discovery.batch_size_cpu", 4)
	v.SetDefault("enrich.max_concurrent", 10)
	v.SetDefault("enrich.batch_size", 20)
	v.SetDefault("geocode.user_agent", "partscope/1.0")
	v.SetDefault("geocode.rate_limit_rps", 1)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", int64(16*1024*1024))
	v.SetDefault("upload.max_edge", 2048)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

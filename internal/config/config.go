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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Dedup   DedupConfig   `yaml:"dedup" mapstructure:"dedup"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// HTTPConfig configures the shared HTTP fetcher.
type HTTPConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerHost float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// Timeout returns the request timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SearchConfig configures the fan-out engine.
type SearchConfig struct {
	SourceTimeoutSecs int `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	MaxConcurrent     int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxResults        int `yaml:"max_results" mapstructure:"max_results"`
	DefaultRadiusKM   int `yaml:"default_radius_km" mapstructure:"default_radius_km"`
	DefaultDays       int `yaml:"default_days" mapstructure:"default_days"`
}

// SourceTimeout returns the per-adapter timeout as a duration.
func (c SearchConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSecs) * time.Second
}

// DedupConfig configures the cross-source duplicate heuristic. The
// tolerances are policy, not protocol: they are deliberately exposed
// rather than hard-coded.
type DedupConfig struct {
	DistanceMeters  float64 `yaml:"distance_meters" mapstructure:"distance_meters"`
	TimeWindowMins  int     `yaml:"time_window_mins" mapstructure:"time_window_mins"`
	TextSimilarity  float64 `yaml:"text_similarity" mapstructure:"text_similarity"`
	TextCheckEnable bool    `yaml:"text_check_enable" mapstructure:"text_check_enable"`
}

// TimeWindow returns the timestamp tolerance as a duration.
func (c DedupConfig) TimeWindow() time.Duration {
	return time.Duration(c.TimeWindowMins) * time.Minute
}

// SourcesConfig holds per-platform credentials and switches.
type SourcesConfig struct {
	Twitter       TwitterConfig   `yaml:"twitter" mapstructure:"twitter"`
	YouTube       KeyedSource     `yaml:"youtube" mapstructure:"youtube"`
	Flickr        KeyedSource     `yaml:"flickr" mapstructure:"flickr"`
	VK            KeyedSource     `yaml:"vk" mapstructure:"vk"`
	Instagram     KeyedSource     `yaml:"instagram" mapstructure:"instagram"`
	Trendsmap     KeyedSource     `yaml:"trendsmap" mapstructure:"trendsmap"`
	Pastvu        KeylessSource   `yaml:"pastvu" mapstructure:"pastvu"`
	Wikipedia     WikipediaConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	PaintedPlanet KeylessSource   `yaml:"painted_planet" mapstructure:"painted_planet"`
}

// TwitterConfig holds Twitter API credentials.
type TwitterConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	BearerToken string `yaml:"bearer_token" mapstructure:"bearer_token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
}

// KeyedSource is a source that needs a single API key.
type KeyedSource struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// KeylessSource is a source with an open API.
type KeylessSource struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WikipediaConfig holds Wikipedia API settings.
type WikipediaConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Language string `yaml:"language" mapstructure:"language"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// OutputConfig configures export defaults.
type OutputConfig struct {
	Directory string `yaml:"directory" mapstructure:"directory"`
	Format    string `yaml:"format" mapstructure:"format"`
	// MappingFile optionally points at a YAML file overriding the
	// built-in per-source field-mapping tables.
	MappingFile string `yaml:"mapping_file" mapstructure:"mapping_file"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("PEGASUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pegasus.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("http.user_agent", "pegasus-bazooka/1.0")
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.rate_per_host", 5)
	v.SetDefault("search.source_timeout_secs", 45)
	v.SetDefault("search.max_concurrent", 5)
	v.SetDefault("search.max_results", 100)
	v.SetDefault("search.default_radius_km", 10)
	v.SetDefault("search.default_days", 7)
	v.SetDefault("dedup.distance_meters", 10)
	v.SetDefault("dedup.time_window_mins", 60)
	v.SetDefault("dedup.text_similarity", 0.90)
	v.SetDefault("dedup.text_check_enable", false)
	v.SetDefault("output.directory", "results")
	v.SetDefault("output.format", "json")
	v.SetDefault("sources.twitter.enabled", true)
	v.SetDefault("sources.twitter.base_url", "https://api.twitter.com/1.1")
	v.SetDefault("sources.youtube.enabled", true)
	v.SetDefault("sources.youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("sources.flickr.enabled", true)
	v.SetDefault("sources.flickr.base_url", "https://api.flickr.com/services/rest")
	v.SetDefault("sources.vk.enabled", true)
	v.SetDefault("sources.vk.base_url", "https://api.vk.com/method")
	v.SetDefault("sources.instagram.enabled", true)
	v.SetDefault("sources.instagram.base_url", "https://api.huntel.io/v1")
	v.SetDefault("sources.trendsmap.enabled", true)
	v.SetDefault("sources.trendsmap.base_url", "https://api.trendsmap.com/v1")
	v.SetDefault("sources.pastvu.enabled", true)
	v.SetDefault("sources.pastvu.base_url", "https://pastvu.com/api2")
	v.SetDefault("sources.wikipedia.enabled", true)
	v.SetDefault("sources.wikipedia.language", "en")
	v.SetDefault("sources.painted_planet.enabled", true)
	v.SetDefault("sources.painted_planet.base_url", "https://paintedplanet.org/api")

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

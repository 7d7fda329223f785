package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LedgerFile  string `yaml:"ledger_file" envconfig:"LEDGER_FILE" default:"data/history.db"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	PreviewDir  string `yaml:"preview_dir" envconfig:"PREVIEW_DIR" default:"data/preview"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalyticsConfig contains the processing parameters: the represented
// carrier codes, the period resolution strategy, and the default price
// applied when a manifest carries no price column.
type AnalyticsConfig struct {
	RepresentedCodes []string `yaml:"represented_codes" envconfig:"REPRESENTED_CODES"`
	CodesFile        string   `yaml:"codes_file" envconfig:"CODES_FILE"`
	PeriodStrategy   string   `yaml:"period_strategy" envconfig:"PERIOD_STRATEGY" default:"most_frequent"`
	DefaultPrice     float64  `yaml:"default_price" envconfig:"DEFAULT_PRICE" default:"40.0"`
}

// envPrefix is the prefix shared by every configuration variable.
const envPrefix = "FREIGHTPULSE"

// Load loads configuration from environment variables and config file.
// Environment variables (FREIGHTPULSE_ prefix) take precedence over the
// YAML file, which takes precedence over defaults. envconfig.Process
// fills its default tags for every unset variable, so the env layer is
// applied field by field, guarded by LookupEnv, rather than merged by
// zero-value checks.
func Load() (*Config, error) {
	cfg := *Default()

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		overlayFile(&cfg, fileCfg)
	}

	var envCfg Config
	if err := envconfig.Process(envPrefix, &envCfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	overlayEnv(&cfg, &envCfg)

	if err := cfg.LoadRepresentedCodes(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// overlayFile copies every field the YAML file set onto cfg. A zero
// value in the file is indistinguishable from an absent key, so the
// file cannot reset a field to its zero value (use env for that).
func overlayFile(cfg, file *Config) {
	if file.Server.Port != 0 {
		cfg.Server.Port = file.Server.Port
	}
	if file.Server.ReadTimeout != 0 {
		cfg.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if file.Server.WriteTimeout != 0 {
		cfg.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if file.Server.IdleTimeout != 0 {
		cfg.Server.IdleTimeout = file.Server.IdleTimeout
	}
	if file.Server.ShutdownTimeout != 0 {
		cfg.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if file.Server.RateLimit.RPS != 0 {
		cfg.Server.RateLimit.RPS = file.Server.RateLimit.RPS
	}
	if file.Server.RateLimit.Burst != 0 {
		cfg.Server.RateLimit.Burst = file.Server.RateLimit.Burst
	}
	if file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		cfg.Logging.Format = file.Logging.Format
	}
	if file.Logging.Output != "" {
		cfg.Logging.Output = file.Logging.Output
	}
	if file.Logging.FilePath != "" {
		cfg.Logging.FilePath = file.Logging.FilePath
	}
	if file.Paths.DataDir != "" {
		cfg.Paths.DataDir = file.Paths.DataDir
	}
	if file.Paths.LedgerFile != "" {
		cfg.Paths.LedgerFile = file.Paths.LedgerFile
	}
	if file.Paths.ReportsDir != "" {
		cfg.Paths.ReportsDir = file.Paths.ReportsDir
	}
	if file.Paths.PreviewDir != "" {
		cfg.Paths.PreviewDir = file.Paths.PreviewDir
	}
	if file.Paths.LogsDir != "" {
		cfg.Paths.LogsDir = file.Paths.LogsDir
	}
	if len(file.Analytics.RepresentedCodes) > 0 {
		cfg.Analytics.RepresentedCodes = file.Analytics.RepresentedCodes
	}
	if file.Analytics.CodesFile != "" {
		cfg.Analytics.CodesFile = file.Analytics.CodesFile
	}
	if file.Analytics.PeriodStrategy != "" {
		cfg.Analytics.PeriodStrategy = file.Analytics.PeriodStrategy
	}
	if file.Analytics.DefaultPrice != 0 {
		cfg.Analytics.DefaultPrice = file.Analytics.DefaultPrice
	}
}

// overlayEnv copies onto cfg only the fields whose environment variable
// is actually present, so envconfig's defaults never clobber file values.
func overlayEnv(cfg, env *Config) {
	if envSet("SERVER_PORT") {
		cfg.Server.Port = env.Server.Port
	}
	if envSet("SERVER_READ_TIMEOUT") {
		cfg.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if envSet("SERVER_WRITE_TIMEOUT") {
		cfg.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if envSet("SERVER_IDLE_TIMEOUT") {
		cfg.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if envSet("SERVER_SHUTDOWN_TIMEOUT") {
		cfg.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if envSet("SERVER_RATE_LIMIT_ENABLED") {
		cfg.Server.RateLimit.Enabled = env.Server.RateLimit.Enabled
	}
	if envSet("SERVER_RATE_LIMIT_RPS") {
		cfg.Server.RateLimit.RPS = env.Server.RateLimit.RPS
	}
	if envSet("SERVER_RATE_LIMIT_BURST") {
		cfg.Server.RateLimit.Burst = env.Server.RateLimit.Burst
	}
	if envSet("LOGGING_LEVEL") {
		cfg.Logging.Level = env.Logging.Level
	}
	if envSet("LOGGING_FORMAT") {
		cfg.Logging.Format = env.Logging.Format
	}
	if envSet("LOGGING_OUTPUT") {
		cfg.Logging.Output = env.Logging.Output
	}
	if envSet("LOGGING_FILE_PATH") {
		cfg.Logging.FilePath = env.Logging.FilePath
	}
	if envSet("PATHS_DATA_DIR") {
		cfg.Paths.DataDir = env.Paths.DataDir
	}
	if envSet("PATHS_LEDGER_FILE") {
		cfg.Paths.LedgerFile = env.Paths.LedgerFile
	}
	if envSet("PATHS_REPORTS_DIR") {
		cfg.Paths.ReportsDir = env.Paths.ReportsDir
	}
	if envSet("PATHS_PREVIEW_DIR") {
		cfg.Paths.PreviewDir = env.Paths.PreviewDir
	}
	if envSet("PATHS_LOGS_DIR") {
		cfg.Paths.LogsDir = env.Paths.LogsDir
	}
	if envSet("ANALYTICS_REPRESENTED_CODES") {
		cfg.Analytics.RepresentedCodes = env.Analytics.RepresentedCodes
	}
	if envSet("ANALYTICS_CODES_FILE") {
		cfg.Analytics.CodesFile = env.Analytics.CodesFile
	}
	if envSet("ANALYTICS_PERIOD_STRATEGY") {
		cfg.Analytics.PeriodStrategy = env.Analytics.PeriodStrategy
	}
	if envSet("ANALYTICS_DEFAULT_PRICE") {
		cfg.Analytics.DefaultPrice = env.Analytics.DefaultPrice
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(envPrefix + "_" + key)
	return ok
}

// LoadRepresentedCodes reads the codes file (one code per line, blank
// lines and # comments ignored) and appends its entries to any codes
// configured inline.
func (c *Config) LoadRepresentedCodes() error {
	if c.Analytics.CodesFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.Analytics.CodesFile)
	if err != nil {
		return fmt.Errorf("failed to read codes file %s: %w", c.Analytics.CodesFile, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.Analytics.RepresentedCodes = append(c.Analytics.RepresentedCodes, line)
	}

	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Paths.LedgerFile == "" {
		return fmt.Errorf("ledger file path must not be empty")
	}

	switch c.Analytics.PeriodStrategy {
	case "first_valid", "most_frequent":
	default:
		return fmt.Errorf("unknown period strategy: %q", c.Analytics.PeriodStrategy)
	}

	if c.Analytics.DefaultPrice < 0 {
		return fmt.Errorf("default price must not be negative")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// EnsureDirectories creates every configured directory that is missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReportsDir, c.Paths.PreviewDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// findConfigFile returns the path to the first config file found
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			LedgerFile: "data/history.db",
			ReportsDir: "data/reports",
			PreviewDir: "data/preview",
			LogsDir:    "logs",
		},
		Analytics: AnalyticsConfig{
			PeriodStrategy: "most_frequent",
			DefaultPrice:   40.0,
		},
	}
}

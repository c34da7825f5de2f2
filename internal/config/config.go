package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/field"
)

// Config holds the arborist configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Dataset       DatasetConfig       `yaml:"dataset"`
	Schema        SchemaConfig        `yaml:"schema"`
	Query         QueryConfig         `yaml:"query"`
	Translator    TranslatorConfig    `yaml:"translator"`
	Cache         CacheConfig         `yaml:"cache"`
	ObjectStorage ObjectStorageConfig `yaml:"object_storage"`
	CORS          CORSConfig          `yaml:"cors"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatasetConfig describes where the tree census comes from.
type DatasetConfig struct {
	Location      string `yaml:"location"` // local path or s3://bucket/key, optional .gz/.zst suffix
	Format        string `yaml:"format"`   // auto, csv, parquet
	KeepUnlocated bool   `yaml:"keep_unlocated"`
	LazyLoad      bool   `yaml:"lazy_load"` // skip the startup load, load on first query
}

// SchemaField declares one filterable field.
type SchemaField struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class"` // categorical, binary, numeric
}

// SchemaConfig overrides the built-in tree census schema when Fields is non-empty.
type SchemaConfig struct {
	Fields         []SchemaField `yaml:"fields"`
	DefaultNumeric string        `yaml:"default_numeric"`
}

// QueryConfig holds result shaping settings.
type QueryConfig struct {
	MaxFeatures int `yaml:"max_features"` // 0 = default, negative = unlimited
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// TranslatorConfig holds the language model settings.
type TranslatorConfig struct {
	Provider        string       `yaml:"provider"`
	APIKey          string       `yaml:"api_key"`
	BaseURL         string       `yaml:"base_url"`
	Model           string       `yaml:"model"`
	Temperature     *float32     `yaml:"temperature"`
	TopP            *float32     `yaml:"top_p"`
	MaxOutputTokens int          `yaml:"max_output_tokens"`
	TimeoutSec      int          `yaml:"timeout_sec"`
	Budget          BudgetConfig `yaml:"budget"`
}

// CacheConfig holds the key-value store used for cached translations and budget counters.
// An empty Addrs list disables both.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a key-value store is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// ObjectStorageConfig holds S3-compatible storage credentials for s3:// dataset locations.
type ObjectStorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAgeSec      int      `yaml:"max_age_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Dataset.Format == "" {
		c.Dataset.Format = "auto"
	}
	if c.Query.MaxFeatures == 0 {
		c.Query.MaxFeatures = domain.DefaultMaxFeatures
	}

	def := domain.DefaultTranslatorConfig()
	if c.Translator.Provider == "" {
		c.Translator.Provider = "openai"
	}
	if c.Translator.Model == "" {
		c.Translator.Model = def.Model
	}
	if c.Translator.Temperature == nil {
		c.Translator.Temperature = &def.Temperature
	}
	if c.Translator.TopP == nil {
		c.Translator.TopP = &def.TopP
	}
	if c.Translator.MaxOutputTokens <= 0 {
		c.Translator.MaxOutputTokens = def.MaxOutputTokens
	}
	if c.Translator.TimeoutSec <= 0 {
		c.Translator.TimeoutSec = 30
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Schema.DefaultNumeric == "" && len(c.Schema.Fields) == 0 {
		c.Schema.DefaultNumeric = field.DefaultNumericField
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Dataset.Location == "" {
		return fmt.Errorf("dataset.location is required")
	}
	switch c.Dataset.Format {
	case "auto", "csv", "parquet":
	default:
		return fmt.Errorf("dataset.format must be \"auto\", \"csv\" or \"parquet\", got %q", c.Dataset.Format)
	}
	if strings.HasPrefix(c.Dataset.Location, "s3://") && c.ObjectStorage.Endpoint == "" {
		return fmt.Errorf("object_storage.endpoint is required for %s", c.Dataset.Location)
	}
	switch c.Translator.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"translator.budget.action must be \"warn\" or \"reject\", got %q", c.Translator.Budget.Action,
		)
	}
	if t := c.Translator.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("translator.temperature must be between 0 and 2, got %v", *t)
	}
	if p := c.Translator.TopP; p != nil && (*p <= 0 || *p > 1) {
		return fmt.Errorf("translator.top_p must be in (0, 1], got %v", *p)
	}
	switch c.Cache.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver)
	}
	if _, err := c.Schema.Build(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// Build returns the configured field schema, or the tree census schema when none is declared.
func (s SchemaConfig) Build() (field.Schema, error) {
	if len(s.Fields) == 0 {
		if s.DefaultNumeric != "" && s.DefaultNumeric != field.DefaultNumericField {
			return field.Schema{}, fmt.Errorf("default_numeric %q requires declared fields", s.DefaultNumeric)
		}
		return field.DefaultSchema(), nil
	}

	fields := make([]field.Field, 0, len(s.Fields))
	for _, sf := range s.Fields {
		f, err := field.New(sf.Name, field.Class(sf.Class))
		if err != nil {
			return field.Schema{}, err
		}
		fields = append(fields, f)
	}
	schema, err := field.NewSchema(fields, s.DefaultNumeric)
	if err != nil {
		return field.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

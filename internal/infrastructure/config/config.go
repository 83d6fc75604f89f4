package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app" json:"app"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Logger   LoggerConfig   `mapstructure:"logger" json:"logger"`
	Security SecurityConfig `mapstructure:"security" json:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics" json:"metrics"`
	Store    StoreConfig    `mapstructure:"store" json:"store"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" json:"name" validate:"required"`
	Version     string `mapstructure:"version" json:"version"`
	Environment string `mapstructure:"environment" json:"environment" validate:"oneof=development staging production test"`
	Debug       bool   `mapstructure:"debug" json:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port" json:"port" validate:"min=1,max=65535"`
	Host            string        `mapstructure:"host" json:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" json:"request_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`
	StaticDir       string        `mapstructure:"static_dir" json:"static_dir"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format   string `mapstructure:"format" json:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" json:"output" validate:"oneof=stdout file"`
	Filename string `mapstructure:"filename" json:"filename" validate:"required_if=Output file"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins" json:"cors_allowed_origins"`
	RateLimitEnabled   bool          `mapstructure:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests" json:"rate_limit_requests" validate:"required_if=RateLimitEnabled true,gte=0"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" json:"rate_limit_window" validate:"gte=0"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path" validate:"startswith=/"`
}

// StoreConfig holds task store configuration
type StoreConfig struct {
	IDGenerator string `mapstructure:"id_generator" json:"id_generator" validate:"oneof=nanoid hex uuid"`
	IDLength    int    `mapstructure:"id_length" json:"id_length" validate:"gte=0,lte=255"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Task Tracker")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.static_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_enabled", false)
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Store defaults
	v.SetDefault("store.id_generator", "nanoid")
	v.SetDefault("store.id_length", 10)
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		// App
		"app.name":        {"APP_NAME"},
		"app.version":     {"APP_VERSION"},
		"app.environment": {"APP_ENVIRONMENT"},
		"app.debug":       {"APP_DEBUG"},

		// Server; PORT is what most hosting platforms inject
		"server.port":             {"SERVER_PORT", "PORT"},
		"server.host":             {"SERVER_HOST"},
		"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
		"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
		"server.idle_timeout":     {"SERVER_IDLE_TIMEOUT"},
		"server.request_timeout":  {"SERVER_REQUEST_TIMEOUT"},
		"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},
		"server.static_dir":       {"STATIC_DIR"},

		// Logger
		"logger.level":    {"LOG_LEVEL"},
		"logger.format":   {"LOG_FORMAT"},
		"logger.output":   {"LOG_OUTPUT"},
		"logger.filename": {"LOG_FILENAME"},

		// Security
		"security.cors_allowed_origins": {"CORS_ALLOWED_ORIGINS"},
		"security.rate_limit_enabled":   {"RATE_LIMIT_ENABLED"},
		"security.rate_limit_requests":  {"RATE_LIMIT_REQUESTS"},
		"security.rate_limit_window":    {"RATE_LIMIT_WINDOW"},

		// Metrics
		"metrics.enabled": {"ENABLE_METRICS"},
		"metrics.path":    {"METRICS_PATH"},

		// Store
		"store.id_generator": {"ID_GENERATOR"},
		"store.id_length":    {"ID_LENGTH"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Store.IDGenerator == "nanoid" && cfg.Store.IDLength != 0 && cfg.Store.IDLength < 2 {
		return fmt.Errorf("nanoid ids need at least 2 characters")
	}

	return nil
}

// Address returns the host:port pair the server listens on
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// AllowedOrigins splits the comma separated CORS origin list
func (cfg *SecurityConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, o := range strings.Split(cfg.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return origins
}

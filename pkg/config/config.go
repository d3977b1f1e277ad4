package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/amaumene/cinesift/pkg/completion"
)

const (
	ProviderGemini = completion.ProviderGemini
	ProviderOpenAI = completion.ProviderOpenAI
)

const (
	defaultPort                  = "3000"
	defaultHost                  = "0.0.0.0"
	defaultEnvFile               = ".env"
	defaultProvider              = ProviderGemini
	defaultMetadataBaseURL       = "https://api.themoviedb.org/3"
	defaultImageBaseURL          = "https://image.tmdb.org/t/p"
	defaultLanguage              = "en-US"
	defaultRequestTimeout        = 30 * time.Second
	defaultMetadataRatePerSecond = 40
	defaultMaxConcurrentLookups  = 8
	defaultLookupAttempts        = 1
	defaultLogLevel              = "info"
	defaultLogFormat             = "text"

	// a discovery response spans the completion call, a batch of lookups
	// and rate limiter waits
	writeTimeoutFactor   = 3
	writeTimeoutHeadroom = 10 * time.Second
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port   string `json:"port"`
	Host   string `json:"host"`
	APIKey string `json:"-"`

	// Metadata (TMDB) configuration
	MetadataAPIKey        string  `json:"-"`
	MetadataBaseURL       string  `json:"metadata_base_url"`
	ImageBaseURL          string  `json:"image_base_url"`
	Language              string  `json:"language"`
	MetadataRatePerSecond float64 `json:"metadata_rate_per_second"`

	// Completion (LLM) configuration
	CompletionAPIKey   string `json:"-"`
	CompletionProvider string `json:"completion_provider"`
	CompletionModel    string `json:"completion_model"`
	CompletionBaseURL  string `json:"completion_base_url"`

	// Application settings
	RequestTimeout       time.Duration `json:"request_timeout"`
	MaxConcurrentLookups int           `json:"max_concurrent_lookups"`
	LookupAttempts       int           `json:"lookup_attempts"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file"`
}

// LoadConfig loads configuration from environment variables, after reading
// an optional dotenv file named by ENV_FILE.
//
// Missing credentials are not an error here: the client that needs one
// reports itself as not configured instead.
func LoadConfig() (*Config, error) {
	if err := loadEnvFile(getEnvOrDefault("ENV_FILE", defaultEnvFile)); err != nil {
		return nil, err
	}

	config := &Config{
		Port:              getEnvOrDefault("PORT", defaultPort),
		Host:              getEnvOrDefault("HOST", defaultHost),
		APIKey:            os.Getenv("CINESIFT_API_KEY"),
		MetadataAPIKey:    strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		MetadataBaseURL:   getEnvOrDefault("TMDB_BASE_URL", defaultMetadataBaseURL),
		ImageBaseURL:      getEnvOrDefault("TMDB_IMAGE_BASE_URL", defaultImageBaseURL),
		Language:          getEnvOrDefault("TMDB_LANGUAGE", defaultLanguage),
		CompletionModel:   os.Getenv("COMPLETION_MODEL"),
		CompletionBaseURL: os.Getenv("COMPLETION_BASE_URL"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", defaultLogFormat),
		LogFile:           os.Getenv("LOG_FILE"),
	}

	config.CompletionProvider = strings.ToLower(getEnvOrDefault("COMPLETION_PROVIDER", defaultProvider))
	config.CompletionAPIKey = strings.TrimSpace(firstEnv("COMPLETION_API_KEY", providerKeyEnv(config.CompletionProvider)))

	var err error
	if config.RequestTimeout, err = getEnvDurationOrDefault("REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	if config.MetadataRatePerSecond, err = getEnvFloatOrDefault("TMDB_RATE_PER_SECOND", defaultMetadataRatePerSecond); err != nil {
		return nil, err
	}
	if config.MaxConcurrentLookups, err = getEnvIntOrDefault("MAX_CONCURRENT_LOOKUPS", defaultMaxConcurrentLookups); err != nil {
		return nil, err
	}
	if config.LookupAttempts, err = getEnvIntOrDefault("LOOKUP_ATTEMPTS", defaultLookupAttempts); err != nil {
		return nil, err
	}

	config.applyProviderDefaults()
	return config, nil
}

func (c *Config) applyProviderDefaults() {
	switch c.CompletionProvider {
	case ProviderGemini:
		if c.CompletionModel == "" {
			c.CompletionModel = completion.DefaultGeminiModel
		}
		if c.CompletionBaseURL == "" {
			c.CompletionBaseURL = completion.DefaultGeminiBaseURL
		}
	case ProviderOpenAI:
		if c.CompletionModel == "" {
			c.CompletionModel = completion.DefaultOpenAIModel
		}
		if c.CompletionBaseURL == "" {
			c.CompletionBaseURL = completion.DefaultOpenAIBaseURL
		}
	}
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Host + ":" + c.Port
}

// ServerWriteTimeout bounds writing one HTTP response
func (c *Config) ServerWriteTimeout() time.Duration {
	return writeTimeoutFactor*c.RequestTimeout + writeTimeoutHeadroom
}

// HasMetadata reports whether the metadata API key is set
func (c *Config) HasMetadata() bool {
	return c.MetadataAPIKey != ""
}

// HasCompletion reports whether the completion API key is set
func (c *Config) HasCompletion() bool {
	return c.CompletionAPIKey != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.CompletionProvider != ProviderGemini && c.CompletionProvider != ProviderOpenAI {
		return fmt.Errorf("unknown completion provider %q (want %s or %s)", c.CompletionProvider, ProviderGemini, ProviderOpenAI)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MetadataRatePerSecond <= 0 {
		return fmt.Errorf("metadata rate must be positive")
	}
	if c.MaxConcurrentLookups < 1 {
		return fmt.Errorf("max concurrent lookups must be at least 1")
	}
	if c.LookupAttempts < 1 {
		return fmt.Errorf("lookup attempts must be at least 1")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Helper functions
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func providerKeyEnv(provider string) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a valid integer: %w", key, err)
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a valid number: %w", key, err)
	}
	return floatValue, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a valid duration: %w", key, err)
	}
	return d, nil
}

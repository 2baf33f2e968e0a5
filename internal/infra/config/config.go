package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	LLM          LLMConfig          `yaml:"llm"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Geocoding    GeocodingConfig    `yaml:"geocoding"`
	Weather      WeatherConfig      `yaml:"weather"`
	Diagnosis    DiagnosisConfig    `yaml:"diagnosis"`
	Notification NotificationConfig `yaml:"notification"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
// The upload budget applies to image diagnosis on top of the general one.
type RateLimitConfig struct {
	Enabled                 bool `yaml:"enabled"`
	RequestsPerMinute       int  `yaml:"requestsPerMinute"`
	Burst                   int  `yaml:"burst"`
	UploadRequestsPerMinute int  `yaml:"uploadRequestsPerMinute"`
	UploadBurst             int  `yaml:"uploadBurst"`
}

// LLMConfig contains the OpenAI compatible generation settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
	Referer     string  `yaml:"referer"`
	AppTitle    string  `yaml:"appTitle"`
}

// ClassifierConfig points at the plant disease model service.
type ClassifierConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// GeocodingConfig holds reverse geocoding credentials.
type GeocodingConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// WeatherConfig points at the current weather provider.
type WeatherConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// DiagnosisConfig bounds each outbound call made while serving a request.
type DiagnosisConfig struct {
	ClassificationTimeout time.Duration `yaml:"classificationTimeout"`
	EnrichmentTimeout     time.Duration `yaml:"enrichmentTimeout"`
	GenerationTimeout     time.Duration `yaml:"generationTimeout"`
}

// NotificationConfig controls the WhatsApp relay.
type NotificationConfig struct {
	Enabled            bool          `yaml:"enabled"`
	MaxLength          int           `yaml:"maxLength"`
	SendTimeout        time.Duration `yaml:"sendTimeout"`
	DefaultCountryCode string        `yaml:"defaultCountryCode"`
	Queue              string        `yaml:"queue"`
	Twilio             TwilioConfig  `yaml:"twilio"`
	Valkey             ValkeyConfig  `yaml:"valkey"`
}

// TwilioConfig contains the messaging account credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"accountSid"`
	AuthToken  string `yaml:"authToken"`
	From       string `yaml:"from"`
}

// ValkeyConfig contains connection information for the notification queue.
type ValkeyConfig struct {
	Addr     string `yaml:"addr"`
	QueueKey string `yaml:"queueKey"`
}

// Notification queue backends.
const (
	QueueImmediate = "immediate"
	QueueValkey    = "valkey"
)

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv populates unset environment variables from a dotenv file. A
// missing default .env is not an error; a missing explicit ENV_FILE is.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxUploadBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_UPLOAD_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.UploadRequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_UPLOAD_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.UploadBurst = parsed
		}
	}
	if v := firstEnv("LLM_API_KEY", "OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = parsed
		}
	}
	if v := os.Getenv("CLASSIFIER_BASE_URL"); v != "" {
		cfg.Classifier.BaseURL = v
	}
	if v := os.Getenv("GEOCODING_API_KEY"); v != "" {
		cfg.Geocoding.APIKey = v
	}
	if v := os.Getenv("GEOCODING_BASE_URL"); v != "" {
		cfg.Geocoding.BaseURL = v
	}
	if v := os.Getenv("WEATHER_BASE_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("DIAGNOSIS_CLASSIFICATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Diagnosis.ClassificationTimeout = parsed
		}
	}
	if v := os.Getenv("DIAGNOSIS_ENRICHMENT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Diagnosis.EnrichmentTimeout = parsed
		}
	}
	if v := os.Getenv("DIAGNOSIS_GENERATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Diagnosis.GenerationTimeout = parsed
		}
	}
	if v := os.Getenv("NOTIFY_ENABLED"); v != "" {
		cfg.Notification.Enabled = parseBool(v)
	}
	if v := os.Getenv("NOTIFY_MAX_LENGTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Notification.MaxLength = parsed
		}
	}
	if v := os.Getenv("NOTIFY_SEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Notification.SendTimeout = parsed
		}
	}
	if v := os.Getenv("NOTIFY_DEFAULT_COUNTRY_CODE"); v != "" {
		cfg.Notification.DefaultCountryCode = v
	}
	if v := os.Getenv("NOTIFY_QUEUE"); v != "" {
		cfg.Notification.Queue = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("NOTIFY_VALKEY_ADDR"); v != "" {
		cfg.Notification.Valkey.Addr = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Notification.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Notification.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_WHATSAPP_NUMBER"); v != "" {
		cfg.Notification.Twilio.From = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":5000",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   120 * time.Second,
			MaxUploadBytes: 10 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute:       30,
				Burst:                   10,
				UploadRequestsPerMinute: 6,
				UploadBurst:             3,
			},
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini-2024-07-18",
			Temperature: 0.3,
			MaxTokens:   900,
			AppTitle:    "AgroSathi",
		},
		Classifier: ClassifierConfig{
			BaseURL: "http://127.0.0.1:8080",
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.open-meteo.com/v1/forecast",
		},
		Diagnosis: DiagnosisConfig{
			ClassificationTimeout: 30 * time.Second,
			EnrichmentTimeout:     4 * time.Second,
			GenerationTimeout:     60 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled:            true,
			MaxLength:          1600,
			SendTimeout:        15 * time.Second,
			DefaultCountryCode: "91",
			Queue:              QueueImmediate,
			Valkey: ValkeyConfig{
				QueueKey: "agrosathi:notifications",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.maxUploadBytes must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		if c.HTTP.RateLimit.UploadRequestsPerMinute <= 0 || c.HTTP.RateLimit.UploadBurst <= 0 {
			return errors.New("http.rateLimit upload budget must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.maxTokens must be positive")
	}
	if strings.TrimSpace(c.Classifier.BaseURL) == "" {
		return errors.New("classifier.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Weather.BaseURL) == "" {
		return errors.New("weather.baseUrl cannot be empty")
	}
	if c.Diagnosis.ClassificationTimeout <= 0 || c.Diagnosis.EnrichmentTimeout <= 0 || c.Diagnosis.GenerationTimeout <= 0 {
		return errors.New("diagnosis timeouts must be positive")
	}
	if c.Notification.Enabled {
		if c.Notification.MaxLength <= 3 {
			return errors.New("notification.maxLength must be greater than 3")
		}
		if c.Notification.SendTimeout <= 0 {
			return errors.New("notification.sendTimeout must be positive")
		}
		switch c.Notification.Queue {
		case QueueImmediate:
		case QueueValkey:
			if strings.TrimSpace(c.Notification.Valkey.Addr) == "" {
				return errors.New("notification.valkey.addr cannot be empty when the valkey queue is selected")
			}
		default:
			return fmt.Errorf("notification.queue %q is not supported", c.Notification.Queue)
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitovidale/video-publisher-service/domain"
)

const devJWTSecret = "supersecretjwtkeythatshouldbeverylongandrandominproduction"

type Config struct {
	Port          string
	PublicBaseURL string
	UploadDir     string
	MaxUploadSize int64
	JWTSecret     []byte
	// WebhookSecret, when set, must be echoed in WebhookHeader by the provider.
	WebhookSecret string
	WebhookHeader string

	RecordStoreDriver string
	RecordAPIBaseURL  string
	RecordAPIKey      string

	DB       DBConfig
	RabbitMQ RabbitMQConfig

	AssemblyAIKey     string
	AssemblyAIBaseURL string
	GroqAPIKey        string
	GroqModel         string
	GroqBaseURL       string

	PublishEndpoints        map[domain.Platform]string
	SimulatedFailureRate    float64
	SimulatedPublishLatency time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Queue    string
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: could not load .env: %v", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "5001"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		WebhookHeader: getEnv("WEBHOOK_SECRET_HEADER", "X-Webhook-Secret"),

		RecordStoreDriver: strings.ToLower(getEnv("RECORD_STORE_DRIVER", "http")),
		RecordAPIBaseURL:  os.Getenv("API_BASE_URL"),
		RecordAPIKey:      os.Getenv("GIBSON_API_KEY"),

		DB: DBConfig{
			Host:     getEnv("DB_HOST", "db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASS", "password"),
			Name:     getEnv("DB_NAME", "video_publisher_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "rabbitmq"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASS", "guest"),
			Queue:    getEnv("RABBITMQ_QUEUE", "transcription_request_queue"),
		},

		AssemblyAIKey:     os.Getenv("ASSEMBLYAI_API_KEY"),
		AssemblyAIBaseURL: os.Getenv("ASSEMBLYAI_BASE_URL"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         os.Getenv("GROQ_MODEL"),
		GroqBaseURL:       os.Getenv("GROQ_BASE_URL"),

		PublishEndpoints: make(map[domain.Platform]string),
	}
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.MaxUploadSize, err = getInt64("MAX_UPLOAD_BYTES", 100<<20); err != nil {
		return nil, err
	}
	if cfg.SimulatedFailureRate, err = getFloat("PUBLISH_SIMULATED_FAILURE_RATE", 0.2); err != nil {
		return nil, err
	}
	if cfg.SimulatedFailureRate < 0 || cfg.SimulatedFailureRate > 1 {
		return nil, fmt.Errorf("PUBLISH_SIMULATED_FAILURE_RATE must be between 0 and 1, got %v", cfg.SimulatedFailureRate)
	}
	if cfg.SimulatedPublishLatency, err = getDuration("PUBLISH_SIMULATED_LATENCY", 1500*time.Millisecond); err != nil {
		return nil, err
	}

	for _, platform := range domain.Platforms {
		if endpoint := os.Getenv("PUBLISH_" + string(platform) + "_URL"); endpoint != "" {
			cfg.PublishEndpoints[platform] = endpoint
		}
	}

	cfg.JWTSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(cfg.JWTSecret) == 0 {
		log.Println("WARNING: JWT_SECRET environment variable not set. Using a default secret for development. THIS IS INSECURE FOR PRODUCTION!")
		cfg.JWTSecret = []byte(devJWTSecret)
	}

	switch cfg.RecordStoreDriver {
	case "http":
		if cfg.RecordAPIBaseURL == "" {
			return nil, fmt.Errorf("API_BASE_URL is required for the http record store")
		}
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown RECORD_STORE_DRIVER %q", cfg.RecordStoreDriver)
	}

	if cfg.AssemblyAIKey == "" {
		log.Println("WARNING: ASSEMBLYAI_API_KEY not set; transcription submissions will be rejected")
	}
	if cfg.GroqAPIKey == "" {
		log.Println("WARNING: GROQ_API_KEY not set; description generation will fail")
	}
	return cfg, nil
}

// WebhookURL is the transcription callback the provider is given.
func (c *Config) WebhookURL() string {
	return c.PublicBaseURL + "/api/webhooks/transcription"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

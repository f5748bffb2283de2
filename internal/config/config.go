package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Model    ModelConfig    `mapstructure:"model"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
}

// QdrantConfig configures the talent pool. An empty URL disables it.
type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api-key"`
	Collection string `mapstructure:"collection"`
	VectorSize uint64 `mapstructure:"vector-size"`
}

type ModelConfig struct {
	Provider          string        `mapstructure:"provider"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max-retries"`
	RetryDelay        time.Duration `mapstructure:"retry-delay"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Burst             int           `mapstructure:"burst"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
	Gemini            GeminiConfig  `mapstructure:"gemini"`
	OpenAI            OpenAIConfig  `mapstructure:"openai"`
	Ollama            OpenAIConfig  `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

// OpenAIConfig serves any OpenAI-compatible endpoint, Ollama included.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api-key"`
	BaseURL        string `mapstructure:"base-url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

type StorageConfig struct {
	Driver      string   `mapstructure:"driver"`
	UploadPath  string   `mapstructure:"upload-path"`
	MaxFileSize int64    `mapstructure:"max-file-size"`
	S3          S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access-key-id"`
	SecretAccessKey string `mapstructure:"secret-access-key"`
	Prefix          string `mapstructure:"prefix"`
}

type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	QueueSize    int           `mapstructure:"queue-size"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
}

// BrokerConfig configures status events. An empty URL disables publishing.
type BrokerConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type FetcherConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

var defaults = map[string]any{
	"server.port": "3000",
	"server.env":  "development",

	"database.host":     "localhost",
	"database.port":     "5432",
	"database.user":     "postgres",
	"database.password": "postgres",
	"database.name":     "resume_matcher",

	"qdrant.url":         "",
	"qdrant.collection":  "resume_talent_pool",
	"qdrant.vector-size": 768,

	"model.provider":            ProviderOllama,
	"model.timeout":             "120s",
	"model.max-retries":         3,
	"model.retry-delay":         "2s",
	"model.requests-per-second": 1.0,
	"model.burst":               1,
	"model.max-log-length":      200,

	"model.gemini.model":           "gemini-2.5-flash",
	"model.gemini.embedding-model": "text-embedding-004",

	"model.openai.base-url":        "https://api.openai.com/v1/",
	"model.openai.model":           "gpt-4.1-mini",
	"model.openai.embedding-model": "text-embedding-3-small",

	"model.ollama.api-key":         "ollama",
	"model.ollama.base-url":        "http://localhost:11434/v1/",
	"model.ollama.model":           "llama3.2",
	"model.ollama.embedding-model": "nomic-embed-text",

	"storage.driver":        StorageLocal,
	"storage.upload-path":   "./uploads",
	"storage.max-file-size": 10485760,
	"storage.s3.region":     "auto",
	"storage.s3.prefix":     "resumes/",

	"worker.concurrency":   3,
	"worker.queue-size":    100,
	"worker.poll-interval": "10s",

	"broker.exchange": "evaluation_updates",

	"fetcher.timeout":    "15s",
	"fetcher.user-agent": "resume-matcher/1.0",
}

// Environment variable names, kept compatible with existing .env files.
var envBindings = map[string]string{
	"server.port":                  "PORT",
	"server.env":                   "ENV",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.name":                "DB_NAME",
	"qdrant.url":                   "QDRANT_URL",
	"qdrant.api-key":               "QDRANT_API_KEY",
	"qdrant.collection":            "QDRANT_COLLECTION",
	"qdrant.vector-size":           "QDRANT_VECTOR_SIZE",
	"model.provider":               "MODEL_PROVIDER",
	"model.timeout":                "MODEL_TIMEOUT",
	"model.max-retries":            "RETRY_MAX_ATTEMPTS",
	"model.retry-delay":            "RETRY_INITIAL_DELAY",
	"model.requests-per-second":    "MODEL_REQUESTS_PER_SECOND",
	"model.burst":                  "MODEL_BURST",
	"model.max-log-length":         "MODEL_MAX_LOG_LENGTH",
	"model.gemini.api-key":         "GEMINI_API_KEY",
	"model.gemini.model":           "GEMINI_MODEL",
	"model.gemini.embedding-model": "GEMINI_EMBEDDING_MODEL",
	"model.openai.api-key":         "OPENAI_API_KEY",
	"model.openai.base-url":        "OPENAI_BASE_URL",
	"model.openai.model":           "OPENAI_MODEL",
	"model.openai.embedding-model": "OPENAI_EMBEDDING_MODEL",
	"model.ollama.base-url":        "OLLAMA_BASE_URL",
	"model.ollama.model":           "OLLAMA_MODEL",
	"model.ollama.embedding-model": "OLLAMA_EMBEDDING_MODEL",
	"storage.driver":               "STORAGE_DRIVER",
	"storage.upload-path":          "UPLOAD_PATH",
	"storage.max-file-size":        "MAX_FILE_SIZE",
	"storage.s3.endpoint":          "S3_ENDPOINT",
	"storage.s3.region":            "S3_REGION",
	"storage.s3.bucket":            "S3_BUCKET",
	"storage.s3.access-key-id":     "S3_ACCESS_KEY_ID",
	"storage.s3.secret-access-key": "S3_SECRET_ACCESS_KEY",
	"storage.s3.prefix":            "S3_PREFIX",
	"worker.concurrency":           "WORKER_CONCURRENCY",
	"worker.queue-size":            "WORKER_QUEUE_SIZE",
	"worker.poll-interval":         "WORKER_POLL_INTERVAL",
	"broker.url":                   "AMQP_URL",
	"broker.exchange":              "AMQP_EXCHANGE",
	"fetcher.timeout":              "JOB_FETCH_TIMEOUT",
	"fetcher.user-agent":           "JOB_FETCH_USER_AGENT",
	"log.json":                     "LOG_JSON",
	"log.debug":                    "LOG_DEBUG",
}

// Load reads .env, an optional config file and the environment into a fresh viper instance.
func Load(path string) (*Config, error) {
	return LoadFrom(viper.New(), path)
}

// LoadFrom is Load on a caller-owned viper instance, so command flags bound to it take part.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case ProviderGemini:
		if c.Model.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.Model.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, errors.New("worker concurrency must be positive"))
	}

	if c.Model.MaxRetries <= 0 {
		errs = append(errs, errors.New("model max retries must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) TalentPoolEnabled() bool {
	return strings.TrimSpace(c.Qdrant.URL) != ""
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

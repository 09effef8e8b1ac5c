package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	configPathEnv        = "CCMS_CONFIG"
	envPrefix            = "CCMS_"
	databaseDSNEnv       = "CCMS_DATABASE_DSN"
	openAIKeyEnv         = "OPENAI_API_KEY"
	geminiKeyEnv         = "GEMINI_API_KEY"
	tavilyKeyEnv         = "TAVILY_API_KEY"
	qdrantURLEnv         = "QDRANT_URL"
	qdrantKeyEnv         = "QDRANT_API_KEY"
	wordpressURLEnv      = "WORDPRESS_BASE_URL"
	wordpressUserEnv     = "WORDPRESS_USERNAME"
	wordpressPasswordEnv = "WORDPRESS_APP_PASSWORD"
	archiveBucketEnv     = "CCMS_ARCHIVE_BUCKET"
)

// RequiredEnv lists the variables the health command checks for presence.
var RequiredEnv = []string{
	databaseDSNEnv,
	wordpressURLEnv,
	wordpressUserEnv,
	wordpressPasswordEnv,
	openAIKeyEnv,
}

// OptionalEnv lists variables that enable extra features when present.
var OptionalEnv = []string{tavilyKeyEnv, geminiKeyEnv, qdrantURLEnv, archiveBucketEnv}

// Config holds process-level settings. Per-tenant options live in the chain store.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Database    DatabaseConfig    `koanf:"database"`
	LLM         LLMConfig         `koanf:"llm"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Search      SearchConfig      `koanf:"search"`
	Images      ImagesConfig      `koanf:"images"`
	Archive     ArchiveConfig     `koanf:"archive"`
	WordPress   WordPressConfig   `koanf:"wordpress"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig selects the SQL driver ("sqlite" or "postgres") and DSN.
type DatabaseConfig struct {
	Driver      string `koanf:"driver"`
	DSN         string `koanf:"dsn"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// LLMConfig picks the completion provider and embedding model.
type LLMConfig struct {
	Provider       string        `koanf:"provider"`
	Model          string        `koanf:"model"`
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	GeminiAPIKey   string        `koanf:"gemini_api_key"`
	GeminiModel    string        `koanf:"gemini_model"`
	EmbeddingModel string        `koanf:"embedding_model"`
	Temperature    float64       `koanf:"temperature"`
	MaxTokens      int           `koanf:"max_tokens"`
	Timeout        time.Duration `koanf:"timeout"`
}

// VectorStoreConfig selects "chromem" (embedded) or "qdrant" (remote).
type VectorStoreConfig struct {
	Backend      string  `koanf:"backend"`
	Path         string  `koanf:"path"`
	Compress     bool    `koanf:"compress"`
	Collection   string  `koanf:"collection"`
	QdrantURL    string  `koanf:"qdrant_url"`
	QdrantAPIKey string  `koanf:"qdrant_api_key"`
	MMRLambda    float64 `koanf:"mmr_lambda"`
	FetchK       int     `koanf:"fetch_k"`
}

type SearchConfig struct {
	Endpoint          string        `koanf:"endpoint"`
	APIKey            string        `koanf:"api_key"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

// ImagesConfig drives image search scraping and downloads.
// SearchURL must contain "{query}".
type ImagesConfig struct {
	SearchURL         string        `koanf:"search_url"`
	UserAgent         string        `koanf:"user_agent"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Dir               string        `koanf:"dir"`
	Timeout           time.Duration `koanf:"timeout"`
}

// ArchiveConfig enables the S3 image mirror when Bucket is set.
type ArchiveConfig struct {
	Bucket   string `koanf:"bucket"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
	Prefix   string `koanf:"prefix"`
}

type WordPressConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Username    string        `koanf:"username"`
	AppPassword string        `koanf:"app_password"`
	Timeout     time.Duration `koanf:"timeout"`
}

// Load reads .env, the YAML file (explicit path or CCMS_CONFIG) and the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// envKey maps CCMS_WORDPRESS__BASE_URL to wordpress.base_url.
func envKey(name string) string {
	name = strings.TrimPrefix(name, envPrefix)
	return strings.ReplaceAll(strings.ToLower(name), "__", ".")
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" && c.LLM.GeminiAPIKey == "" {
		c.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv(tavilyKeyEnv); v != "" && c.Search.APIKey == "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv(qdrantURLEnv); v != "" && c.VectorStore.QdrantURL == "" {
		c.VectorStore.QdrantURL = v
	}
	if v := os.Getenv(qdrantKeyEnv); v != "" && c.VectorStore.QdrantAPIKey == "" {
		c.VectorStore.QdrantAPIKey = v
	}
	if v := os.Getenv(wordpressURLEnv); v != "" && c.WordPress.BaseURL == "" {
		c.WordPress.BaseURL = v
	}
	if v := os.Getenv(wordpressUserEnv); v != "" && c.WordPress.Username == "" {
		c.WordPress.Username = v
	}
	if v := os.Getenv(wordpressPasswordEnv); v != "" && c.WordPress.AppPassword == "" {
		c.WordPress.AppPassword = v
	}
	if v := os.Getenv(archiveBucketEnv); v != "" {
		c.Archive.Bucket = v
	}
}

// Validate reports settings that make the application unusable.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be openai or gemini, got %q", c.LLM.Provider))
	}
	switch c.VectorStore.Backend {
	case "chromem":
	case "qdrant":
		if c.VectorStore.QdrantURL == "" {
			errs = append(errs, errors.New("vectorstore.qdrant_url is required for the qdrant backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("vectorstore.backend must be chromem or qdrant, got %q", c.VectorStore.Backend))
	}
	if c.Images.SearchURL != "" && !strings.Contains(c.Images.SearchURL, "{query}") {
		errs = append(errs, errors.New("images.search_url must contain {query}"))
	}
	return errors.Join(errs...)
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:ccms.db?_pragma=journal_mode(WAL)", AutoMigrate: true},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o",
			GeminiModel:    "gemini-2.5-flash",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.1,
			MaxTokens:      4096,
			Timeout:        60 * time.Second,
		},
		VectorStore: VectorStoreConfig{
			Backend:    "chromem",
			Path:       "data/vectors",
			Compress:   true,
			Collection: "documents",
			MMRLambda:  0.5,
			FetchK:     20,
		},
		Search: SearchConfig{
			Endpoint:          "https://api.tavily.com/search",
			RequestsPerSecond: 1,
			Timeout:           30 * time.Second,
		},
		Images: ImagesConfig{
			SearchURL:         "https://www.bing.com/images/search?q={query}",
			UserAgent:         "Mozilla/5.0 (compatible; ccms/1.0)",
			RequestsPerSecond: 1,
			Timeout:           30 * time.Second,
		},
		Archive:   ArchiveConfig{Region: "us-east-1", Prefix: "ccms/media"},
		WordPress: WordPressConfig{Timeout: 30 * time.Second},
	}
}

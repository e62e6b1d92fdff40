package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for cultura.
type Config struct {
	Knowledge     KnowledgeConfig     `yaml:"knowledge"`
	Index         IndexConfig         `yaml:"index"`
	Retrieve      RetrieveConfig      `yaml:"retrieve"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Generation    GenerationConfig    `yaml:"generation"`
	Translation   TranslationConfig   `yaml:"translation"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Store         StoreConfig         `yaml:"store"`
	Cultures      []CultureConfig     `yaml:"cultures"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// KnowledgeConfig locates the etiquette passages to index.
type KnowledgeConfig struct {
	Dir      string   `yaml:"dir"` // empty means the built-in corpus
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds chunking configuration, measured in characters.
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables memoization
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"` // "hash", "openai", "ollama"
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Dimension   int           `yaml:"dimension"` // 0 selects the provider default
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// GenerationConfig holds text-generation configuration.
type GenerationConfig struct {
	Provider         string        `yaml:"provider"` // "openai", "ollama"
	Model            string        `yaml:"model"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	BaseURL          string        `yaml:"base_url"`
	AdaptMaxTokens   int           `yaml:"adapt_max_tokens"`
	SuggestMaxTokens int           `yaml:"suggest_max_tokens"`
	SuggestCount     int           `yaml:"suggest_count"`
	Timeout          time.Duration `yaml:"timeout"`
}

// TranslationConfig selects the literal translator.
type TranslationConfig struct {
	Provider  string        `yaml:"provider"` // "llm", "identity"
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TranscriptionConfig selects the speech-to-text collaborator.
type TranscriptionConfig struct {
	Provider  string        `yaml:"provider"` // "openai"
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StoreConfig selects where the knowledge index is persisted.
type StoreConfig struct {
	Backend     string        `yaml:"backend"` // "bolt", "postgres", "memory"
	Path        string        `yaml:"path"`
	DatabaseURL string        `yaml:"database_url"`
	LockTimeout time.Duration `yaml:"lock_timeout"` // bolt file lock wait
}

// CultureConfig adds or replaces a culture profile.
type CultureConfig struct {
	ID         string `yaml:"id"`
	Language   string `yaml:"language"`
	Politeness string `yaml:"politeness"`
	Directness string `yaml:"directness"`
	Notes      string `yaml:"notes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// EnvOverrides are deployment settings read from CULTURA_* variables.
// Empty values leave the file configuration untouched.
type EnvOverrides struct {
	StoreBackend       string `envconfig:"STORE_BACKEND"`
	StorePath          string `envconfig:"STORE_PATH"`
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	KnowledgeDir       string `envconfig:"KNOWLEDGE_DIR"`
	EmbeddingProvider  string `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL"`
	GenerationProvider string `envconfig:"GENERATION_PROVIDER"`
	GenerationModel    string `envconfig:"GENERATION_MODEL"`
	LogLevel           string `envconfig:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Includes: []string{"**/*.yaml", "**/*.yml", "**/*.pdf"},
			Excludes: []string{"**/.git/**", "**/.cultura/**"},
		},
		Index: IndexConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 0,
			CacheTTL:  5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:    "hash",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   0,
			BatchSize:   64,
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:         "openai",
			Model:            "gpt-3.5-turbo",
			APIKeyEnv:        "OPENAI_API_KEY",
			AdaptMaxTokens:   150,
			SuggestMaxTokens: 300,
			SuggestCount:     3,
			Timeout:          30 * time.Second,
		},
		Translation: TranslationConfig{
			Provider:  "llm",
			MaxTokens: 300,
			Timeout:   20 * time.Second,
		},
		Transcription: TranscriptionConfig{
			Provider:  "openai",
			Model:     "whisper-1",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   60 * time.Second,
		},
		Store: StoreConfig{
			Backend:     "bolt",
			LockTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for cultura.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "cultura.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".cultura", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	_ = godotenv.Load()

	var env EnvOverrides
	if err := envconfig.Process("CULTURA", &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Store.Backend, env.StoreBackend)
	set(&c.Store.Path, env.StorePath)
	set(&c.Store.DatabaseURL, env.DatabaseURL)
	set(&c.Knowledge.Dir, env.KnowledgeDir)
	set(&c.Embedding.Provider, env.EmbeddingProvider)
	set(&c.Embedding.Model, env.EmbeddingModel)
	set(&c.Generation.Provider, env.GenerationProvider)
	set(&c.Generation.Model, env.GenerationModel)
	set(&c.Logging.Level, env.LogLevel)
	return nil
}

// Validate checks invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the knowledge index database. An explicit
// store.path wins over the per-directory default.
func (c *Config) IndexDBPath(dir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(dir, ".cultura", "knowledge.db")
}

// EnsureDataDir ensures the directory holding path exists.
func EnsureDataDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the hosted embedding model client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// CompletionConfig configures the chat-completion model client.
type CompletionConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// ChunkerConfig configures how document pages are split into chunks.
type ChunkerConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// PgvectorConfig contains connection details for the Postgres+pgvector store.
// URL may be left empty, in which case it is read from the URLEnv variable.
type PgvectorConfig struct {
	URL    string `yaml:"url"`
	URLEnv string `yaml:"url_env"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Pgvector *PgvectorConfig `yaml:"pgvector,omitempty"`
}

// RetrievalConfig configures similarity search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ChatConfig selects the interactive front-end: "repl" or "tui".
type ChatConfig struct {
	Interface string `yaml:"interface"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	PDFPath     string            `yaml:"pdf_path"`
	Collection  string            `yaml:"collection"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Completion  CompletionConfig  `yaml:"completion"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Chat        ChatConfig        `yaml:"chat"`
}

// Load reads a config from the given path and applies defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfqa/config.yaml.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfqa", "config.yaml"), nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Completion.APIKeyEnv == "" {
		cfg.Completion.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = 60
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = 1024
	}
	if cfg.Chunker.MaxSize == 0 {
		cfg.Chunker.MaxSize = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 150
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.VectorStore.Type == "pgvector" {
		if cfg.VectorStore.Pgvector == nil {
			cfg.VectorStore.Pgvector = &PgvectorConfig{}
		}
		if cfg.VectorStore.Pgvector.URLEnv == "" {
			cfg.VectorStore.Pgvector.URLEnv = "DATABASE_URL"
		}
		if cfg.VectorStore.Pgvector.URL == "" {
			cfg.VectorStore.Pgvector.URL = os.Getenv(cfg.VectorStore.Pgvector.URLEnv)
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Chat.Interface == "" {
		cfg.Chat.Interface = "repl"
	}
}

// Validate enforces the startup contract: every recognized option must be
// resolved before any component starts. A violation is fatal to the process.
func (cfg *AppConfig) Validate() error {
	var missing []string
	if cfg.PDFPath == "" {
		missing = append(missing, "pdf_path")
	}
	if cfg.Collection == "" {
		missing = append(missing, "collection")
	}
	if cfg.Embedder.Model == "" {
		missing = append(missing, "embedder.model")
	}
	if cfg.Completion.Model == "" {
		missing = append(missing, "completion.model")
	}
	switch cfg.VectorStore.Type {
	case "pgvector":
		if cfg.VectorStore.Pgvector == nil || cfg.VectorStore.Pgvector.URL == "" {
			missing = append(missing, "vector_store.pgvector.url")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %v", missing)
	}
	if cfg.Chunker.Overlap <= 0 || cfg.Chunker.Overlap >= cfg.Chunker.MaxSize {
		return errors.New("chunker overlap must satisfy 0 < overlap < max_size")
	}
	if cfg.Retrieval.TopK <= 0 {
		return errors.New("retrieval top_k must be positive")
	}
	if cfg.Chat.Interface != "repl" && cfg.Chat.Interface != "tui" {
		return fmt.Errorf("unknown chat interface: %s", cfg.Chat.Interface)
	}
	return nil
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8000
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultTopK         = 5
	defaultMaxHistory   = 3
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	UploadDir  string `yaml:"upload_dir"`
	IndexPath  string `yaml:"index_path"`
	HistoryDir string `yaml:"history_dir"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	MaxHistory   int `yaml:"max_history"`
}

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	ChatLLM  LLMConfig     `yaml:"chat_llm"`
	RAG      RAGConfig     `yaml:"rag"`
}

// LoadConfig reads a YAML config file, fills defaults and picks up the API
// key from the environment when the file leaves it empty.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./vector_store/index.chromem"
	}
	if cfg.Storage.HistoryDir == "" {
		cfg.Storage.HistoryDir = "./chat_history"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "text-embedding-3-small"
	}
	if cfg.ChatLLM.BaseURL == "" {
		cfg.ChatLLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatLLM.Model == "" {
		cfg.ChatLLM.Model = "gpt-4o-mini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = key
		}
		if cfg.ChatLLM.Key == "" {
			cfg.ChatLLM.Key = key
		}
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.MaxHistory == 0 {
		cfg.RAG.MaxHistory = defaultMaxHistory
	}
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Storage   StorageConfig   `toml:"storage"`
	Ollama    OllamaConfig    `toml:"ollama"`
	RAG       RAGConfig       `toml:"rag"`
	WebLookup WebLookupConfig `toml:"web_lookup"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path"`            // Database file path
	CacheSizeMB   int    `toml:"cache_size_mb"`   // Page cache size in MB
	WALMode       bool   `toml:"wal_mode"`        // Enable WAL journal mode
	BusyTimeoutMS int    `toml:"busy_timeout_ms"` // Busy handler timeout
}

// OllamaConfig contains the downstream model service configuration
type OllamaConfig struct {
	URL            string        `toml:"url"`             // Base URL of the Ollama service
	Model          string        `toml:"model"`           // Default model name
	ConnectTimeout time.Duration `toml:"connect_timeout"` // Dial timeout budget
	RequestTimeout time.Duration `toml:"request_timeout"` // Full request/read timeout budget
	KeepAlive      string        `toml:"keep_alive"`      // Model keep-alive duration passed downstream
	NumPredict     int           `toml:"num_predict"`     // Max tokens to generate
	Temperature    float64       `toml:"temperature"`     // Sampling temperature
}

// RAGConfig contains document corpus and retrieval configuration
type RAGConfig struct {
	ChunkSize          int `toml:"chunk_size"`            // Chunk window size in characters
	ChunkOverlap       int `toml:"chunk_overlap"`         // Overlap between consecutive chunks
	TopK               int `toml:"top_k"`                 // Max chunks returned per retrieval
	AutoIngestMinChars int `toml:"auto_ingest_min_chars"` // Message length that triggers auto-ingest
	HistoryMessages    int `toml:"history_messages"`      // Conversation turns kept when building context
}

// WebLookupConfig contains Google Custom Search configuration
type WebLookupConfig struct {
	APIKey         string        `toml:"api_key"`          // Google API key
	SearchEngineID string        `toml:"search_engine_id"` // Custom search engine id (cx)
	TopK           int           `toml:"top_k"`            // Results requested per lookup (clamped to 1-10)
	ConnectTimeout time.Duration `toml:"connect_timeout"`  // Dial timeout budget
	RequestTimeout time.Duration `toml:"request_timeout"`  // Full request timeout budget
	RateLimit      time.Duration `toml:"rate_limit"`       // Minimum interval between provider calls
}

// NewDefaultConfig creates a configuration with default values.
// Defaults mirror a single-host deployment; user-facing settings are
// overridden via parley.toml, environment variables, or CLI flags.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Host: "0.0.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/rag.db",
				CacheSizeMB:   10,
				WALMode:       true,
				BusyTimeoutMS: 5000,
			},
		},
		Ollama: OllamaConfig{
			URL:            "http://ollama:11434",
			Model:          "llama3.2:1b",
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 120 * time.Second,
			KeepAlive:      "30m",
			NumPredict:     192,
			Temperature:    0.6,
		},
		RAG: RAGConfig{
			ChunkSize:          700,
			ChunkOverlap:       120,
			TopK:               3,
			AutoIngestMinChars: 600,
			HistoryMessages:    6,
		},
		WebLookup: WebLookupConfig{
			APIKey:         "", // User must provide API key in config file
			SearchEngineID: "",
			TopK:           5,
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 12 * time.Second,
			RateLimit:      time.Second,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// CLI flags are applied afterwards via ApplyFlagOverrides (highest priority).
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("PARLEY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PARLEY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if level := os.Getenv("PARLEY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("RAG_DB_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}

	if url := os.Getenv("OLLAMA_URL"); url != "" {
		config.Ollama.URL = url
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.Ollama.Model = model
	}
	if timeout := os.Getenv("OLLAMA_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			config.Ollama.RequestTimeout = time.Duration(t) * time.Second
		}
	}
	if keepAlive := os.Getenv("OLLAMA_KEEP_ALIVE"); keepAlive != "" {
		config.Ollama.KeepAlive = keepAlive
	}
	if numPredict := os.Getenv("OLLAMA_NUM_PREDICT"); numPredict != "" {
		if n, err := strconv.Atoi(numPredict); err == nil && n > 0 {
			config.Ollama.NumPredict = n
		}
	}
	if temp := os.Getenv("OLLAMA_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 64); err == nil {
			config.Ollama.Temperature = t
		}
	}

	if size := os.Getenv("RAG_CHUNK_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			config.RAG.ChunkSize = n
		}
	}
	if overlap := os.Getenv("RAG_CHUNK_OVERLAP"); overlap != "" {
		if n, err := strconv.Atoi(overlap); err == nil && n >= 0 {
			config.RAG.ChunkOverlap = n
		}
	}
	if topK := os.Getenv("RAG_TOP_K"); topK != "" {
		if n, err := strconv.Atoi(topK); err == nil && n > 0 {
			config.RAG.TopK = n
		}
	}
	if minChars := os.Getenv("RAG_AUTO_INGEST_MIN_CHARS"); minChars != "" {
		if n, err := strconv.Atoi(minChars); err == nil && n > 0 {
			config.RAG.AutoIngestMinChars = n
		}
	}
	if history := os.Getenv("CHAT_HISTORY_MESSAGES"); history != "" {
		if n, err := strconv.Atoi(history); err == nil && n >= 0 {
			config.RAG.HistoryMessages = n
		}
	}

	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		config.WebLookup.APIKey = key
	}
	if cx := os.Getenv("GOOGLE_CSE_ID"); cx != "" {
		config.WebLookup.SearchEngineID = cx
	}
	if topK := os.Getenv("WEB_LOOKUP_TOP_K"); topK != "" {
		if n, err := strconv.Atoi(topK); err == nil && n > 0 {
			config.WebLookup.TopK = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

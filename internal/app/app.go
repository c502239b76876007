package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/handlers"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/services/chat"
	"github.com/ternarybob/parley/internal/services/llm"
	"github.com/ternarybob/parley/internal/services/rag"
	"github.com/ternarybob/parley/internal/services/websearch"
	"github.com/ternarybob/parley/internal/storage/sqlite"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	db           *sqlite.SQLiteDB
	ChunkStorage interfaces.ChunkStorage

	// Services
	RAGService  interfaces.RAGService
	WebService  interfaces.WebSearchService
	LLMService  interfaces.LLMService
	ChatService interfaces.ChatService

	// HTTP handlers
	ChatHandler *handlers.ChatHandler
	RAGHandler  *handlers.RAGHandler
	APIHandler  *handlers.APIHandler
}

// New creates and wires all application components
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	chunkStorage := sqlite.NewChunkStorage(db, logger)
	ragService := rag.NewService(chunkStorage, logger, &config.RAG)
	webService := websearch.NewGoogleService(&config.WebLookup, logger)
	llmService := llm.NewOllamaService(&config.Ollama, logger)
	chatService := chat.NewService(ragService, webService, llmService, logger, config)

	a := &App{
		Config:       config,
		Logger:       logger,
		db:           db,
		ChunkStorage: chunkStorage,
		RAGService:   ragService,
		WebService:   webService,
		LLMService:   llmService,
		ChatService:  chatService,
		ChatHandler:  handlers.NewChatHandler(chatService, logger),
		RAGHandler:   handlers.NewRAGHandler(ragService, logger),
		APIHandler:   handlers.NewAPIHandler(llmService, webService, config, logger),
	}

	logger.Info().
		Str("db_path", config.Storage.SQLite.Path).
		Str("ollama_url", config.Ollama.URL).
		Bool("web_lookup_configured", webService.Configured()).
		Msg("Application components initialized")

	return a, nil
}

// Close releases application resources
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

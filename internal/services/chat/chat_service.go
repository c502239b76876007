package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/llm"
	"github.com/ternarybob/parley/internal/services/websearch"
)

// ErrWebNotConfigured indicates web mode was requested without provider
// credentials. Fatal in both request modes, surfaced as a client error.
var ErrWebNotConfigured = errors.New("web mode is enabled but Google lookup is not configured; set GOOGLE_API_KEY and GOOGLE_CSE_ID")

// Service coordinates web lookup, auto-ingest, prompt assembly, and
// downstream dispatch for one chat request.
type Service struct {
	ragService interfaces.RAGService
	webService interfaces.WebSearchService
	llmService interfaces.LLMService
	logger     arbor.ILogger
	config     *common.Config
}

// NewService creates a new chat service
func NewService(
	ragService interfaces.RAGService,
	webService interfaces.WebSearchService,
	llmService interfaces.LLMService,
	logger arbor.ILogger,
	config *common.Config,
) *Service {
	return &Service{
		ragService: ragService,
		webService: webService,
		llmService: llmService,
		logger:     logger,
		config:     config,
	}
}

// preamble is the shared front half of both request modes: web lookup,
// then the auto-ingest check. Exactly one of its outcomes holds:
// a fatal error, an ingest acknowledgment, or web results to build with.
type preamble struct {
	webResults []models.WebResult
	ingestAck  string
	ingested   bool
}

func (s *Service) runPreamble(ctx context.Context, req *interfaces.ChatRequest) (*preamble, error) {
	result := &preamble{}

	if req.WebEnabled {
		results, err := s.webService.Search(ctx, req.Message, s.config.WebLookup.TopK)
		if errors.Is(err, websearch.ErrNotConfigured) {
			return nil, ErrWebNotConfigured
		}
		if err != nil {
			// Lookup failures degrade to an answer without web context;
			// only missing configuration is fatal.
			s.logger.Warn().Err(err).Msg("Web lookup failed, continuing without web context")
		} else {
			result.webResults = results
		}
	}

	if req.RAGEnabled && s.ragService.ShouldAutoIngest(req.Message) {
		filename, chunksAdded, err := s.ragService.IngestPasted(ctx, req.Message)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest pasted document: %w", err)
		}

		result.ingested = true
		result.ingestAck = fmt.Sprintf(
			"Document saved from chat as %s with %d chunks. Now ask your question and I will use it in RAG mode.",
			filename, chunksAdded)

		s.logger.Info().
			Str("filename", filename).
			Int("chunks", chunksAdded).
			Msg("Chat message auto-ingested as document")
	}

	return result, nil
}

// buildMessages assembles the downstream message list: one system message,
// the bounded valid history window, then the new user message.
func (s *Service) buildMessages(ctx context.Context, req *interfaces.ChatRequest, webResults []models.WebResult) ([]interfaces.Message, error) {
	prompt := systemPrompt

	if req.WebEnabled && len(webResults) > 0 {
		prompt += buildWebBlock(webResults)
	}

	if req.RAGEnabled {
		matches, err := s.ragService.Retrieve(ctx, req.Message, s.config.RAG.TopK)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve document context: %w", err)
		}
		prompt += buildRAGBlock(matches)
	}

	messages := make([]interfaces.Message, 0, len(req.History)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: prompt})
	messages = append(messages, boundHistory(req.History, s.config.RAG.HistoryMessages)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: req.Message})

	return messages, nil
}

// Chat handles a single-shot request
func (s *Service) Chat(ctx context.Context, req *interfaces.ChatRequest) (*interfaces.ChatResponse, error) {
	model := s.resolveModel(req.Model)

	pre, err := s.runPreamble(ctx, req)
	if err != nil {
		return nil, err
	}

	if pre.ingested {
		stats, err := s.ragService.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus stats: %w", err)
		}
		return &interfaces.ChatResponse{
			Message:     pre.ingestAck,
			Model:       model,
			RAGEnabled:  true,
			RAGIngested: true,
			WebEnabled:  req.WebEnabled,
			TotalChunks: stats.ChunkCount,
		}, nil
	}

	messages, err := s.buildMessages(ctx, req, pre.webResults)
	if err != nil {
		return nil, err
	}

	answer, err := s.llmService.Chat(ctx, model, messages)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("model", model).
		Bool("rag_enabled", req.RAGEnabled).
		Bool("web_enabled", req.WebEnabled).
		Int("answer_length", len(answer)).
		Msg("Chat request completed")

	return &interfaces.ChatResponse{
		Message:    answer,
		Model:      model,
		RAGEnabled: req.RAGEnabled,
		WebEnabled: req.WebEnabled,
	}, nil
}

// ChatStream handles a streaming request. Failures before the first event
// are returned to the caller; once the relay is running, failures are
// emitted as error events and the method returns nil.
func (s *Service) ChatStream(ctx context.Context, req *interfaces.ChatRequest, emit func(interfaces.StreamEvent) error) error {
	model := s.resolveModel(req.Model)

	pre, err := s.runPreamble(ctx, req)
	if err != nil {
		return err
	}

	if pre.ingested {
		if err := emit(interfaces.TokenEvent(pre.ingestAck)); err != nil {
			return nil
		}
		emit(interfaces.DoneEvent(model, true, true, req.WebEnabled))
		return nil
	}

	messages, err := s.buildMessages(ctx, req, pre.webResults)
	if err != nil {
		return err
	}

	streamErr := s.llmService.ChatStream(ctx, model, messages, func(token string) error {
		return emit(interfaces.TokenEvent(token))
	})

	if streamErr != nil {
		s.emitStreamFailure(emit, streamErr)
		return nil
	}

	emit(interfaces.DoneEvent(model, req.RAGEnabled, false, req.WebEnabled))
	return nil
}

// emitStreamFailure maps a downstream failure to exactly one error event
func (s *Service) emitStreamFailure(emit func(interfaces.StreamEvent) error, err error) {
	var upstream *llm.UpstreamError

	switch {
	case errors.Is(err, llm.ErrTimeout):
		s.logger.Error().Msg("Ollama stream request timed out")
		emit(interfaces.ErrorEvent("Request timed out", ""))
	case errors.As(err, &upstream):
		s.logger.Error().
			Int("status", upstream.StatusCode).
			Str("body", upstream.Body).
			Msg("Ollama stream returned an error status")
		emit(interfaces.ErrorEvent("Ollama API error", upstream.Body))
	default:
		s.logger.Error().Err(err).Msg("Ollama stream failed")
		emit(interfaces.ErrorEvent("Streaming failed", err.Error()))
	}
}

// resolveModel returns the trimmed requested model, or the configured
// default when the request carries none.
func (s *Service) resolveModel(requested string) string {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed
	}
	return s.config.Ollama.Model
}

package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/llm"
	"github.com/ternarybob/parley/internal/services/websearch"
)

// MockRAGService is a configurable in-memory RAG double
type MockRAGService struct {
	matches      []*models.ChunkMatch
	autoIngest   bool
	ingestedFile string
	ingestCalls  int
	stats        models.CorpusStats
}

func (m *MockRAGService) AddDocument(ctx context.Context, filename, content string) (int, error) {
	return 1, nil
}

func (m *MockRAGService) Retrieve(ctx context.Context, query string, topK int) ([]*models.ChunkMatch, error) {
	return m.matches, nil
}

func (m *MockRAGService) ShouldAutoIngest(message string) bool {
	return m.autoIngest
}

func (m *MockRAGService) IngestPasted(ctx context.Context, message string) (string, int, error) {
	m.ingestCalls++
	m.ingestedFile = "chat-paste-1.txt"
	return m.ingestedFile, 2, nil
}

func (m *MockRAGService) Stats(ctx context.Context) (*models.CorpusStats, error) {
	return &m.stats, nil
}

func (m *MockRAGService) Filenames(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *MockRAGService) Clear(ctx context.Context) error {
	return nil
}

// MockWebService returns canned results or a canned error
type MockWebService struct {
	results    []models.WebResult
	err        error
	configured bool
	calls      int
}

func (m *MockWebService) Search(ctx context.Context, query string, topK int) ([]models.WebResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *MockWebService) Configured() bool {
	return m.configured
}

// MockLLMService records the messages it was dispatched with
type MockLLMService struct {
	reply        string
	chatErr      error
	streamTokens []string
	streamErr    error
	gotModel     string
	gotMessages  []interfaces.Message
}

func (m *MockLLMService) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	m.gotModel = model
	m.gotMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *MockLLMService) ChatStream(ctx context.Context, model string, messages []interfaces.Message, emit func(token string) error) error {
	m.gotModel = model
	m.gotMessages = messages
	for _, token := range m.streamTokens {
		if err := emit(token); err != nil {
			return err
		}
	}
	return m.streamErr
}

func (m *MockLLMService) ListModels(ctx context.Context) ([]string, error) {
	return []string{"llama3.2:1b"}, nil
}

func (m *MockLLMService) IsReady(ctx context.Context) bool {
	return true
}

func testChatConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Ollama.Model = "llama3.2:1b"
	config.RAG.TopK = 3
	config.RAG.HistoryMessages = 6
	config.WebLookup.TopK = 5
	return config
}

func newTestChatService(ragSvc *MockRAGService, webSvc *MockWebService, llmSvc *MockLLMService) *Service {
	return NewService(ragSvc, webSvc, llmSvc, arbor.NewLogger(), testChatConfig())
}

func TestChat_PlainRequest(t *testing.T) {
	llmSvc := &MockLLMService{reply: "Go is a programming language."}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{Message: "what is go"})
	require.NoError(t, err)

	assert.Equal(t, "Go is a programming language.", resp.Message)
	assert.Equal(t, "llama3.2:1b", resp.Model)
	assert.False(t, resp.RAGEnabled)
	assert.False(t, resp.RAGIngested)

	// Dispatch carries system prompt then user message, no context blocks
	require.Len(t, llmSvc.gotMessages, 2)
	assert.Equal(t, "system", llmSvc.gotMessages[0].Role)
	assert.NotContains(t, llmSvc.gotMessages[0].Content, "RAG MODE")
	assert.NotContains(t, llmSvc.gotMessages[0].Content, "WEB LOOKUP MODE")
	assert.Equal(t, "user", llmSvc.gotMessages[1].Role)
	assert.Equal(t, "what is go", llmSvc.gotMessages[1].Content)
}

func TestChat_ModelOverride(t *testing.T) {
	llmSvc := &MockLLMService{reply: "ok"}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message: "hi",
		Model:   "  qwen2.5:3b  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:3b", resp.Model)
	assert.Equal(t, "qwen2.5:3b", llmSvc.gotModel)
}

func TestChat_RAGContextInPrompt(t *testing.T) {
	ragSvc := &MockRAGService{
		matches: []*models.ChunkMatch{
			{Filename: "runbook.md", ChunkIndex: 1, Content: "restart with systemctl", Score: 2},
		},
	}
	llmSvc := &MockLLMService{reply: "restart with systemctl"}
	service := newTestChatService(ragSvc, &MockWebService{}, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    "how do I restart the service",
		RAGEnabled: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.RAGEnabled)

	system := llmSvc.gotMessages[0].Content
	assert.Contains(t, system, "RAG MODE")
	assert.Contains(t, system, "[runbook.md#1]")
	assert.Contains(t, system, "restart with systemctl")
}

func TestChat_RAGNoMatchesNotice(t *testing.T) {
	llmSvc := &MockLLMService{reply: "I don't have context on that."}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	_, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    "unknown topic",
		RAGEnabled: true,
	})
	require.NoError(t, err)
	assert.Contains(t, llmSvc.gotMessages[0].Content, "No matching document context found")
}

func TestChat_WebContextInPrompt(t *testing.T) {
	webSvc := &MockWebService{
		configured: true,
		results: []models.WebResult{
			{Title: "Result", Snippet: "Fresh fact", Link: "https://example.com"},
		},
	}
	llmSvc := &MockLLMService{reply: "per example.com..."}
	service := newTestChatService(&MockRAGService{}, webSvc, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    "latest news",
		WebEnabled: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.WebEnabled)
	assert.Equal(t, 1, webSvc.calls)
	assert.Contains(t, llmSvc.gotMessages[0].Content, "WEB LOOKUP MODE")
	assert.Contains(t, llmSvc.gotMessages[0].Content, "[web-1] Result")
}

func TestChat_WebNotConfigured(t *testing.T) {
	webSvc := &MockWebService{err: websearch.ErrNotConfigured}
	service := newTestChatService(&MockRAGService{}, webSvc, &MockLLMService{})

	_, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    "latest news",
		WebEnabled: true,
	})
	assert.ErrorIs(t, err, ErrWebNotConfigured)
}

func TestChat_WebLookupFailureDegrades(t *testing.T) {
	webSvc := &MockWebService{configured: true, err: websearch.ErrLookupFailed}
	llmSvc := &MockLLMService{reply: "answered without web context"}
	service := newTestChatService(&MockRAGService{}, webSvc, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    "latest news",
		WebEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "answered without web context", resp.Message)
	assert.NotContains(t, llmSvc.gotMessages[0].Content, "WEB LOOKUP MODE")
}

func TestChat_WebDisabledSkipsLookup(t *testing.T) {
	webSvc := &MockWebService{configured: true}
	service := newTestChatService(&MockRAGService{}, webSvc, &MockLLMService{reply: "ok"})

	_, err := service.Chat(context.Background(), &interfaces.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, webSvc.calls)
}

func TestChat_AutoIngestAck(t *testing.T) {
	ragSvc := &MockRAGService{autoIngest: true, stats: models.CorpusStats{DocumentCount: 1, ChunkCount: 2}}
	llmSvc := &MockLLMService{}
	service := newTestChatService(ragSvc, &MockWebService{}, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message:    strings.Repeat("pasted document text ", 40),
		RAGEnabled: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, ragSvc.ingestCalls)
	assert.True(t, resp.RAGIngested)
	assert.Equal(t, 2, resp.TotalChunks)
	assert.Contains(t, resp.Message, "Document saved from chat as chat-paste-1.txt with 2 chunks")

	// The model is never dispatched on an ingest acknowledgment
	assert.Nil(t, llmSvc.gotMessages)
}

func TestChat_AutoIngestRequiresRAGMode(t *testing.T) {
	ragSvc := &MockRAGService{autoIngest: true}
	llmSvc := &MockLLMService{reply: "answered normally"}
	service := newTestChatService(ragSvc, &MockWebService{}, llmSvc)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message: strings.Repeat("pasted document text ", 40),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ragSvc.ingestCalls)
	assert.False(t, resp.RAGIngested)
	assert.Equal(t, "answered normally", resp.Message)
}

func TestChat_HistoryBounded(t *testing.T) {
	llmSvc := &MockLLMService{reply: "ok"}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	history := make([]interfaces.Message, 0, 10)
	for i := 0; i < 5; i++ {
		history = append(history,
			interfaces.Message{Role: "user", Content: "question"},
			interfaces.Message{Role: "assistant", Content: "answer"},
		)
	}

	_, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Message: "final question",
		History: history,
	})
	require.NoError(t, err)

	// system + 6 history turns + user
	require.Len(t, llmSvc.gotMessages, 8)
	assert.Equal(t, "system", llmSvc.gotMessages[0].Role)
	assert.Equal(t, "final question", llmSvc.gotMessages[7].Content)
}

func TestChatStream_RelaysTokensThenDone(t *testing.T) {
	llmSvc := &MockLLMService{streamTokens: []string{"Hel", "lo", "!"}}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	var events []interfaces.StreamEvent
	err := service.ChatStream(context.Background(), &interfaces.ChatRequest{Message: "hi"}, func(event interfaces.StreamEvent) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, interfaces.StreamEventToken, events[0].Type)
	assert.Equal(t, "Hel", events[0].Content)
	assert.Equal(t, "lo", events[1].Content)
	assert.Equal(t, "!", events[2].Content)

	done := events[3]
	assert.Equal(t, interfaces.StreamEventDone, done.Type)
	assert.Equal(t, "llama3.2:1b", done.Model)
	require.NotNil(t, done.RAGIngested)
	assert.False(t, *done.RAGIngested)
}

func TestChatStream_IngestAck(t *testing.T) {
	ragSvc := &MockRAGService{autoIngest: true}
	service := newTestChatService(ragSvc, &MockWebService{}, &MockLLMService{})

	var events []interfaces.StreamEvent
	err := service.ChatStream(context.Background(), &interfaces.ChatRequest{
		Message:    strings.Repeat("pasted document text ", 40),
		RAGEnabled: true,
	}, func(event interfaces.StreamEvent) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)

	// One acknowledgment token then done, nothing dispatched downstream
	require.Len(t, events, 2)
	assert.Equal(t, interfaces.StreamEventToken, events[0].Type)
	assert.Contains(t, events[0].Content, "Document saved from chat")
	assert.Equal(t, interfaces.StreamEventDone, events[1].Type)
	require.NotNil(t, events[1].RAGIngested)
	assert.True(t, *events[1].RAGIngested)
}

func TestChatStream_TimeoutEmitsErrorEvent(t *testing.T) {
	llmSvc := &MockLLMService{streamErr: llm.ErrTimeout}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	var events []interfaces.StreamEvent
	err := service.ChatStream(context.Background(), &interfaces.ChatRequest{Message: "hi"}, func(event interfaces.StreamEvent) error {
		events = append(events, event)
		return nil
	})

	// Post-dispatch failures surface on the stream, not as a return value
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.StreamEventError, events[0].Type)
	assert.Equal(t, "Request timed out", events[0].Error)
	assert.Empty(t, events[0].Details)
}

func TestChatStream_UpstreamErrorEvent(t *testing.T) {
	llmSvc := &MockLLMService{
		streamTokens: []string{"partial"},
		streamErr:    &llm.UpstreamError{StatusCode: 503, Body: "overloaded"},
	}
	service := newTestChatService(&MockRAGService{}, &MockWebService{}, llmSvc)

	var events []interfaces.StreamEvent
	err := service.ChatStream(context.Background(), &interfaces.ChatRequest{Message: "hi"}, func(event interfaces.StreamEvent) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "partial", events[0].Content)
	assert.Equal(t, interfaces.StreamEventError, events[1].Type)
	assert.Equal(t, "Ollama API error", events[1].Error)
	assert.Equal(t, "overloaded", events[1].Details)
}

func TestChatStream_WebNotConfiguredReturnsError(t *testing.T) {
	webSvc := &MockWebService{err: websearch.ErrNotConfigured}
	service := newTestChatService(&MockRAGService{}, webSvc, &MockLLMService{})

	emitted := 0
	err := service.ChatStream(context.Background(), &interfaces.ChatRequest{
		Message:    "hi",
		WebEnabled: true,
	}, func(interfaces.StreamEvent) error {
		emitted++
		return nil
	})

	// Pre-dispatch failure: returned to the caller, no events emitted
	assert.ErrorIs(t, err, ErrWebNotConfigured)
	assert.Equal(t, 0, emitted)
}

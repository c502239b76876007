package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
)

var (
	// ErrTimeout indicates the downstream request exceeded its timeout
	// budget. Surfaced distinctly so callers can invite a manual retry;
	// the service itself never retries.
	ErrTimeout = errors.New("ollama request timed out")

	// ErrEmptyResponse indicates a successful response carrying no
	// assistant text.
	ErrEmptyResponse = errors.New("ollama returned an empty response")
)

// UpstreamError carries a non-success downstream status and body for
// server-side logging. Client-facing messages stay generic.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ollama api error: status %d", e.StatusCode)
}

// OllamaService implements LLMService against an Ollama server
type OllamaService struct {
	config *common.OllamaConfig
	logger arbor.ILogger
	client *http.Client
}

// NewOllamaService creates a new Ollama client with independent connect
// and read timeout budgets.
func NewOllamaService(config *common.OllamaConfig, logger arbor.ILogger) *OllamaService {
	client := &http.Client{
		Timeout: config.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: config.ConnectTimeout,
			}).DialContext,
		},
	}

	return &OllamaService{
		config: config,
		logger: logger,
		client: client,
	}
}

// chatPayload is the downstream chat request body
type chatPayload struct {
	Model     string               `json:"model"`
	Messages  []interfaces.Message `json:"messages"`
	Stream    bool                 `json:"stream"`
	KeepAlive string               `json:"keep_alive"`
	Options   chatOptions          `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// chatRecord is one downstream response record, used for both the
// non-streaming body and each streamed NDJSON line.
type chatRecord struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (s *OllamaService) postChat(ctx context.Context, model string, messages []interfaces.Message, stream bool) (*http.Response, error) {
	payload := chatPayload{
		Model:     model,
		Messages:  messages,
		Stream:    stream,
		KeepAlive: s.config.KeepAlive,
		Options: chatOptions{
			Temperature: s.config.Temperature,
			NumPredict:  s.config.NumPredict,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	return resp, nil
}

// Chat sends one non-streaming request and returns the trimmed assistant
// text. A non-success downstream status or empty output is a failure.
func (s *OllamaService) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	resp, err := s.postChat(ctx, model, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var record chatRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	content := strings.TrimSpace(record.Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}

// ChatStream sends one streaming request and forwards each content
// fragment to emit as it arrives. Malformed individual records are
// skipped. The response body is released on every exit path.
func (s *OllamaService) ChatStream(ctx context.Context, model string, messages []interfaces.Message, emit func(token string) error) error {
	resp, err := s.postChat(ctx, model, messages, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record chatRecord
		if err := json.Unmarshal(line, &record); err != nil {
			s.logger.Debug().Err(err).Msg("Skipping malformed stream record")
			continue
		}

		if record.Message.Content != "" {
			if err := emit(record.Message.Content); err != nil {
				return fmt.Errorf("stream consumer failed: %w", err)
			}
		}

		if record.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("stream read failed: %w", err)
	}

	// Provider closed the stream without a done record; treat the
	// fragments already forwarded as the complete response.
	return nil
}

// ListModels returns the model names the Ollama server reports
func (s *OllamaService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tags request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tags request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %w", err)
	}

	names := make([]string, 0, len(payload.Models))
	for _, model := range payload.Models {
		if model.Name != "" {
			names = append(names, model.Name)
		}
	}

	return names, nil
}

// IsReady reports whether the Ollama server answers its tags endpoint
func (s *OllamaService) IsReady(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.config.URL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// isTimeout reports whether err is a deadline or I/O timeout failure
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// providerAdapter captures what differs between the OpenAI-compatible
// backends: the system prompt sent ahead of the user message, request
// authentication, and an optional epilogue appended after the upstream
// stream ends (Perplexity's citation list).
type providerAdapter struct {
	systemPrompt string
	setHeaders   func(*http.Request, domain.ModelEndpoint) error
	epilogue     func(citations []string) []string
}

// sseProvider is the shared streaming provider for every hosted backend.
// One instance per model endpoint; the wire behavior is injected via its
// adapter.
type sseProvider struct {
	name       string
	endpoint   domain.ModelEndpoint
	httpClient *http.Client
	adapter    providerAdapter
}

func newSSEProvider(name string, endpoint domain.ModelEndpoint, client *http.Client, adapter providerAdapter) ports.Provider {
	return &sseProvider{
		name:       name,
		endpoint:   endpoint,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *sseProvider) Name() string {
	return p.name
}

// Stream opens the chat-completion stream. A non-2xx status before any
// fragment is a total failure; once fragments flow, a drop surfaces as a
// ProviderError from Recv with the already-emitted text left in place.
func (p *sseProvider) Stream(ctx context.Context, prompt string) (ports.FragmentStream, error) {
	messages := make([]chatMessage, 0, 2)
	if p.adapter.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.adapter.systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload := chatStreamRequest{
		Model:     p.endpoint.WireModel,
		Messages:  messages,
		MaxTokens: p.endpoint.MaxTokens,
		Stream:    true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.Endpoint, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "text/event-stream")
	req.Header.Set("cache-control", "no-cache")
	if p.adapter.setHeaders != nil {
		if err := p.adapter.setHeaders(req, p.endpoint); err != nil {
			cancel()
			return nil, err
		}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, &domain.ProviderError{Provider: p.name, Cause: err}
	}
	if resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, &domain.ProviderError{
			Provider: p.name,
			Status:   resp.StatusCode,
			Cause:    errors.New(strings.TrimSpace(string(diag))),
		}
	}

	stream := newPipeStream(cancel)
	go p.relay(ctx, resp.Body, stream)
	return stream, nil
}

// relay pumps SSE events into the pipe until [DONE], EOF, or failure.
func (p *sseProvider) relay(ctx context.Context, body io.ReadCloser, stream *pipeStream) {
	defer body.Close()

	reader := newSSEReader(body)
	var citations []string

	for {
		data, err := reader.readEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				stream.finish(ctx.Err())
				return
			}
			stream.finish(&domain.ProviderError{Provider: p.name, Cause: err})
			return
		}

		if bytes.Equal(data, doneSignal) {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed events, matching upstream tolerance.
			continue
		}
		if len(chunk.Citations) > 0 {
			citations = chunk.Citations
		}
		if content := chunk.content(); content != "" {
			if !stream.emit(content) {
				return
			}
		}
		if chunk.done() {
			break
		}
	}

	if p.adapter.epilogue != nil {
		for _, fragment := range p.adapter.epilogue(citations) {
			if !stream.emit(fragment) {
				return
			}
		}
	}
	stream.finish(nil)
}

func bearerAuth(req *http.Request, endpoint domain.ModelEndpoint) error {
	key := getEnv(endpoint.AuthEnvVar, "")
	if key == "" {
		return fmt.Errorf("missing API key: set %s", endpoint.AuthEnvVar)
	}
	req.Header.Set("authorization", "Bearer "+key)
	return nil
}

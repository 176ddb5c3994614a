package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// OllamaClient talks to a local Ollama instance. It serves double duty: the
// generate stream for the local-hosted provider, and the catalog probe/pull
// operations the bootstrapper runs.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no timeout; generation and pulls are bounded by
	// their contexts instead.
	streamClient *http.Client
}

// NewOllamaClient builds a client for baseURL (default localhost:11434).
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		baseURL:      strings.TrimRight(valueOrDefault(baseURL, "http://127.0.0.1:11434"), "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		streamClient: &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate opens a newline-delimited JSON stream from /api/generate.
func (c *OllamaClient) Generate(ctx context.Context, model string, prompt string) (ports.FragmentStream, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: model, Prompt: prompt, Stream: true})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, &domain.ProviderError{Provider: "ollama", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, &domain.ProviderError{
			Provider: "ollama",
			Status:   resp.StatusCode,
			Cause:    errors.New(strings.TrimSpace(string(diag))),
		}
	}

	stream := newPipeStream(cancel)
	go c.relayGenerate(ctx, resp.Body, stream)
	return stream, nil
}

func (c *OllamaClient) relayGenerate(ctx context.Context, body io.ReadCloser, stream *pipeStream) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaGenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			stream.finish(&domain.ProviderError{Provider: "ollama", Cause: errors.New(chunk.Error)})
			return
		}
		if chunk.Response != "" {
			if !stream.emit(chunk.Response) {
				return
			}
		}
		if chunk.Done {
			stream.finish(nil)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			stream.finish(ctx.Err())
			return
		}
		stream.finish(&domain.ProviderError{Provider: "ollama", Cause: err})
		return
	}
	stream.finish(nil)
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Has implements ports.LocalCatalog: is the named model present in the
// local catalog. Ollama tags carry a ":tag" suffix, so a bare name matches
// any tag of that model.
func (c *OllamaClient) Has(ctx context.Context, model string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, errors.New("ollama tags: " + resp.Status)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, err
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.SplitN(m.Name, ":", 2)[0] == model {
			return true, nil
		}
	}
	return false, nil
}

type ollamaPullRequest struct {
	Name string `json:"name"`
}

type ollamaPullStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Pull implements ports.LocalCatalog: fetch the named model artifact. The
// endpoint streams progress lines; we drain them and report the terminal
// status.
func (c *OllamaClient) Pull(ctx context.Context, model string) error {
	body, err := json.Marshal(ollamaPullRequest{Name: model})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New("ollama pull: " + strings.TrimSpace(string(diag)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var status ollamaPullStatus
		if err := json.Unmarshal(scanner.Bytes(), &status); err != nil {
			continue
		}
		if status.Error != "" {
			return errors.New(status.Error)
		}
	}
	return scanner.Err()
}

var _ ports.LocalCatalog = (*OllamaClient)(nil)

// ollamaProvider is the local-hosted adapter. Before opening a stream it
// waits on the bootstrapper; a model that cannot be made ready surfaces as
// ModelUnavailable rather than a generic provider failure.
type ollamaProvider struct {
	endpoint  domain.ModelEndpoint
	client    *OllamaClient
	bootstrap *Bootstrapper
}

func newOllamaProvider(endpoint domain.ModelEndpoint, client *OllamaClient, bootstrap *Bootstrapper) ports.Provider {
	return &ollamaProvider{endpoint: endpoint, client: client, bootstrap: bootstrap}
}

func (o *ollamaProvider) Name() string {
	return "ollama"
}

func (o *ollamaProvider) Stream(ctx context.Context, prompt string) (ports.FragmentStream, error) {
	model := valueOrDefault(o.endpoint.WireModel, "deepseek-r1")
	if err := o.bootstrap.EnsureReady(ctx, model); err != nil {
		return nil, err
	}
	return o.client.Generate(ctx, model, prompt)
}

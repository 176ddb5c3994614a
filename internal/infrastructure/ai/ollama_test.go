package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/doeshing/deepchat/internal/domain"
)

func TestOllamaGenerateStreamsNDJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"response":"Hel","done":false}`)
		fmt.Fprintln(w, `{"response":"lo!","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)
	stream, err := client.Generate(context.Background(), "deepseek-r1", "say hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := collectStream(t, stream); got != "Hello!" {
		t.Fatalf("streamed %q, want %q", got, "Hello!")
	}
}

func TestOllamaGenerateSurfacesInlineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
		fmt.Fprintln(w, `{"error":"model ran out of memory"}`)
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)
	stream, err := client.Generate(context.Background(), "deepseek-r1", "hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	defer stream.Close()

	if fragment, err := stream.Recv(); err != nil || fragment != "partial" {
		t.Fatalf("Recv() = %q, %v", fragment, err)
	}
	_, err = stream.Recv()
	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Recv() error = %v, want ProviderError", err)
	}
	if !strings.Contains(provErr.Cause.Error(), "out of memory") {
		t.Fatalf("cause = %v", provErr.Cause)
	}
}

func TestOllamaHasMatchesBareNameAgainstTaggedCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"models":[{"name":"deepseek-r1:7b"},{"name":"llama3:latest"}]}`)
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)

	for name, want := range map[string]bool{
		"deepseek-r1":    true,
		"deepseek-r1:7b": true,
		"llama3":         true,
		"mistral":        false,
	} {
		got, err := client.Has(context.Background(), name)
		if err != nil {
			t.Fatalf("Has(%q) error = %v", name, err)
		}
		if got != want {
			t.Fatalf("Has(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestOllamaPullReportsTerminalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"error":"manifest not found"}`)
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)
	err := client.Pull(context.Background(), "no-such-model")
	if err == nil || !strings.Contains(err.Error(), "manifest not found") {
		t.Fatalf("Pull() error = %v, want the terminal status error", err)
	}
}

func TestOllamaProviderReportsUnavailableWhenBootstrapFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprintln(w, `{"models":[]}`)
		case "/api/pull":
			fmt.Fprintln(w, `{"error":"registry unreachable"}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)
	bootstrap := NewBootstrapper(client, nil, 2, 1)
	endpoint := domain.ModelEndpoint{
		ID:        domain.ModelOllamaDeepseekR1,
		Kind:      domain.ProviderKindOllama,
		Endpoint:  server.URL,
		WireModel: "deepseek-r1",
	}
	provider := newOllamaProvider(endpoint, client, bootstrap)

	_, err := provider.Stream(context.Background(), "hi")
	if !domain.IsModelUnavailable(err) {
		t.Fatalf("Stream() error = %v, want ModelUnavailableError", err)
	}
}

// Package domain defines core business entities and value objects for deepchat.
//
// This file contains the model descriptor catalog and completion request
// types. The domain layer is independent of infrastructure concerns and
// represents pure business logic and data structures.
package domain

// ModelDescriptor is the immutable identity+label pair for a selectable model.
type ModelDescriptor struct {
	ID          string
	DisplayName string
}

// ProviderKind identifies which adapter serves a model.
type ProviderKind string

const (
	// ProviderKindDeepseek is the hosted DeepSeek chat-completions endpoint
	// (serves both the chat and the reasoner model).
	ProviderKindDeepseek ProviderKind = "deepseek"
	// ProviderKindGroq is the low-latency third-party host of the reasoning model.
	ProviderKindGroq ProviderKind = "groq"
	// ProviderKindPerplexity is the search-augmented provider.
	ProviderKindPerplexity ProviderKind = "perplexity"
	// ProviderKindOllama is the locally hosted provider.
	ProviderKindOllama ProviderKind = "ollama"
	// ProviderKindGumtree is the privately hosted DeepSeek R1 instance.
	ProviderKindGumtree ProviderKind = "gumtree"
)

// Model IDs for the fixed descriptor set.
const (
	ModelDeepseekChat      = "deepseek-chat"
	ModelDeepseekReasoner  = "deepseek-reasoner"
	ModelGroqDeepseekR1    = "groq-deepseek-r1"
	ModelPerplexitySonar   = "perplexity-sonar"
	ModelOllamaDeepseekR1  = "ollama-deepseek-r1"
	ModelGumtreeDeepseekR1 = "gumtree-deepseek-r1"
)

// KnownDescriptors returns the fixed set of six selectable models, in
// display order.
func KnownDescriptors() []ModelDescriptor {
	return []ModelDescriptor{
		{ID: ModelDeepseekChat, DisplayName: "DeepSeek Chat"},
		{ID: ModelDeepseekReasoner, DisplayName: "DeepSeek Reasoner"},
		{ID: ModelGroqDeepseekR1, DisplayName: "Groq DeepSeek R1"},
		{ID: ModelPerplexitySonar, DisplayName: "Perplexity Sonar"},
		{ID: ModelOllamaDeepseekR1, DisplayName: "Ollama DeepSeek R1 (local)"},
		{ID: ModelGumtreeDeepseekR1, DisplayName: "Gumtree DeepSeek R1"},
	}
}

// IsKnownModel reports whether id names one of the fixed descriptors.
func IsKnownModel(id string) bool {
	for _, d := range KnownDescriptors() {
		if d.ID == id {
			return true
		}
	}
	return false
}

// CompletionRequest carries a single prompt to a specific model. The request
// is self-describing: it names its own model, so changing the active
// selection never affects an in-flight call.
type CompletionRequest struct {
	Prompt  string
	ModelID string
}

package ai

// Wire types shared by the OpenAI-compatible chat-completion providers
// (DeepSeek, Groq, Perplexity, Gumtree).

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

// chatStreamChunk is one SSE delta. Perplexity additionally carries the
// citation URL list on its chunks.
type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Citations []string `json:"citations,omitempty"`
}

func (c chatStreamChunk) content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

func (c chatStreamChunk) done() bool {
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != ""
}

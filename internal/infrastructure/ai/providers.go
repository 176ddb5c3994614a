package ai

import "fmt"

// markdownSystemPrompt asks every backend for markdown so the terminal
// renderer has something to work with.
const markdownSystemPrompt = "You are a helpful assistant. Format your responses using markdown."

// searchSystemPrompt additionally steers the search-augmented backend
// toward numbered inline references matching its citation list.
const searchSystemPrompt = markdownSystemPrompt +
	" Use numbered references in square brackets [1], [2], etc. in your text."

func deepseekAdapter() providerAdapter {
	return providerAdapter{
		systemPrompt: markdownSystemPrompt,
		setHeaders:   bearerAuth,
	}
}

func groqAdapter() providerAdapter {
	return providerAdapter{
		systemPrompt: markdownSystemPrompt,
		setHeaders:   bearerAuth,
	}
}

func gumtreeAdapter() providerAdapter {
	// Private instance; reachable without credentials.
	return providerAdapter{
		systemPrompt: markdownSystemPrompt,
	}
}

func perplexityAdapter() providerAdapter {
	return providerAdapter{
		systemPrompt: searchSystemPrompt,
		setHeaders:   bearerAuth,
		epilogue:     citationEpilogue,
	}
}

// citationEpilogue renders the retrieved source list as trailing markdown
// fragments once the answer itself has finished streaming.
func citationEpilogue(citations []string) []string {
	if len(citations) == 0 {
		return nil
	}
	fragments := make([]string, 0, len(citations)+1)
	fragments = append(fragments, "\n\n## Citations\n\n")
	for i, url := range citations {
		fragments = append(fragments, fmt.Sprintf("[%d] [%s](%s)\n\n", i+1, url, url))
	}
	return fragments
}

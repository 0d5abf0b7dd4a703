package llm

import "context"

// Message is one turn of conversation context sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeltaHandler receives each raw text chunk in arrival order. The transport
// guarantees ordering within one call; it performs no reordering or batching.
type DeltaHandler func(delta string)

// Client is a streaming LLM transport. StreamResponse blocks until the
// generation finishes, invoking onDelta for every chunk, and returns a nil
// error on normal completion. Cancellation via ctx surfaces as ctx.Err().
type Client interface {
	StreamResponse(ctx context.Context, messages []Message, onDelta DeltaHandler) error
	GetModelInfo() ModelInfo
}

// ModelInfo describes the model behind a client.
type ModelInfo struct {
	Name                string
	Provider            string
	MaxCompletionTokens int
}

// Config holds provider configuration.
type Config struct {
	Provider            string
	Model               string
	APIKey              string
	MaxCompletionTokens int
	Temperature         float64
	SystemPrompt        string
	ResponseSchema      string
}

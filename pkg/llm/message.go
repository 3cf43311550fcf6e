package llm

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"` // One of RoleSystem, RoleUser, RoleAssistant.
	Content string `json:"content"`
}

// Role constants for the Message.Role field.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is the common chat completion request passed to a Provider.
// The relay engine fills every field before dispatch; providers may assume
// Messages is non-empty and MaxTokens is positive.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Response contains a full (buffered) completion and its metadata.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Usage tracks token consumption for a single completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chunk is one increment of a streamed completion. Chunks for one request
// are strictly ordered; concatenating the Delta values of all chunks
// delivered before Final reconstructs the full completion text.
type Chunk struct {
	Delta string // Content increment, may be empty on the final chunk.
	Final bool   // True exactly once, on the last chunk of a clean stream.
}

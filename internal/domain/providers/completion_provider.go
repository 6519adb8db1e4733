package providers

import (
	"context"
	"errors"
)

// ErrCompletionUnavailable is returned when the text-generation service
// cannot produce a usable completion: network failure, non-2xx status,
// open circuit breaker, or an empty response body. Callers must degrade to
// their documented fallback; the error never reaches end users.
var ErrCompletionUnavailable = errors.New("completion service unavailable")

// Message roles for completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseShape tells the provider how the completion must be formed.
type ResponseShape int

const (
	// ShapeText requests a free-text completion.
	ShapeText ResponseShape = iota
	// ShapeJSON requests a completion constrained to a single JSON object.
	// Callers still parse defensively; a malformed body is treated as a
	// completion failure, not an exception.
	ShapeJSON
)

// CompletionRequest describes one structured ask of the model. Temperature
// is call-specific: classification and query generation run at zero,
// greeting and summary generation at a moderate value.
type CompletionRequest struct {
	Messages    []Message
	Shape       ResponseShape
	Temperature float64
	MaxTokens   int
}

// CompletionGateway is the single abstraction over the external
// text-generation service. One attempt per call, bounded timeout enforced
// by the implementation; no automatic retries.
type CompletionGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

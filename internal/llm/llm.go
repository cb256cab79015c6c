package llm

import (
	"context"
	"errors"

	"mealcart/internal/shared"
)

// ErrNoContent is returned by providers whose response carried no text.
var ErrNoContent = errors.New("no content generated")

// ContentResponse is one completion together with the provider's token
// accounting. Usage is empty for cached responses.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator turns a prompt into a completion. Implementations must be
// safe for concurrent use.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer releases provider resources (the Gemini client holds a gRPC conn).
type Closer interface {
	Close() error
}

// Package llm wraps the generative-language collaborator used for
// natural-language rule conversion. The engine never depends on its output
// for correctness: whatever comes back is re-validated before use.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrInvalidJSON = errors.New("invalid json from LLM")

// Client asks a model for a JSON completion.
type Client interface {
	Name() string
	// GenerateJSON concatenates prompt and input and asks for
	// application/json output.
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

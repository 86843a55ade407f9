package llm

import (
	"context"

	"github.com/iksnae/voicechat/internal"
)

// Sampling parameters shared by every provider
const (
	Temperature     = 0.7
	TopK            = 40
	TopP            = 0.95
	MaxOutputTokens = 2048
)

// Generator produces an assistant reply for message given prior history.
// Implementations keep no state between calls.
type Generator interface {
	GenerateResponse(ctx context.Context, message string, history []internal.ChatMessage) (string, error)
}

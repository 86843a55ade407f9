package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse is returned when the provider answers without candidates
	ErrNoResponse = errors.New("no response generated")
	// ErrInvalidResponse is returned when a candidate carries no text part
	ErrInvalidResponse = errors.New("invalid response structure")
)

// APIError is a non-success HTTP answer from a language model provider
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// IsAPIError reports whether err is or wraps an *APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

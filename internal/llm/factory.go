package llm

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "DEALERCHAT_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// Endpoint bundles the completion and embedding sides of one client.
type Endpoint interface {
	CompletionClient
	Embedder
}

// NewEndpoint creates a client based on the DEALERCHAT_MODE environment
// variable. DEALERCHAT_MODE=MOCK returns the mock client; anything else
// returns a real client.
func NewEndpoint(baseURL, apiKey, chatModel, embedModel string, timeout time.Duration) Endpoint {
	if os.Getenv(EnvMode) == ModeMock {
		log.Info().Msg("DEALERCHAT_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, chatModel, embedModel, timeout)
}

package ai

import "context"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generator turns one fully formed prompt into one completion.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

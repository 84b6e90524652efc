// Package genai defines the text generation port (interface).
package genai

import "context"

// TextGenerator is the port interface for an external generative text service.
// Implementations take a single prompt and return generated text, or fail
// with a transport, quota, or service error.
type TextGenerator interface {
	// Model returns the identifier of the model this generator targets.
	Model() string

	// Generate produces text from the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

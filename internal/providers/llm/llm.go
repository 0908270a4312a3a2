package llm

import "context"

type Provider interface {
	// Generate returns the full completion for one prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// StreamGenerate returns a stream of text chunks (incremental).
	StreamGenerate(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}

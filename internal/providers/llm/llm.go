package llm

import "context"

// Request is a single-shot generation call.
type Request struct {
	System string
	Prompt string
	// JSON asks the model to answer with a JSON document only.
	JSON bool
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, req Request) (chunks <-chan string, errs <-chan error)
	Close() error
}

package services

import (
	"context"
	"sync"

	"github.com/yoockh/yoointerview/internal/providers/llm"
)

type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	out := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return out, nil
}

func (f *fakeLLM) StreamAnswer(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	chunks := make(chan string, 1)
	errs := make(chan error, 1)
	out, err := f.Generate(ctx, req)
	if err != nil {
		errs <- err
	} else {
		chunks <- out
	}
	close(chunks)
	close(errs)
	return chunks, errs
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

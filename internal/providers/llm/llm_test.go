package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	chunks := make(chan string, 3)
	errs := make(chan error, 1)
	chunks <- "Tell me "
	chunks <- "about "
	chunks <- "yourself."
	close(chunks)
	close(errs)

	got, err := Collect(chunks, errs)
	assert.NoError(t, err)
	assert.Equal(t, "Tell me about yourself.", got)
}

func TestCollectReturnsStreamError(t *testing.T) {
	chunks := make(chan string, 1)
	errs := make(chan error, 1)
	chunks <- "partial"
	close(chunks)
	errs <- errors.New("quota exceeded")
	close(errs)

	got, err := Collect(chunks, errs)
	assert.EqualError(t, err, "quota exceeded")
	assert.Equal(t, "partial", got)
}

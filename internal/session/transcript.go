package session

import (
	"sync"

	"github.com/yoockh/yoointerview/internal/models"
)

// Transcript is the append-only record of a live conversation. Insertion
// order is chronological order.
type Transcript struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func (t *Transcript) Append(m models.Message) {
	t.mu.Lock()
	t.msgs = append(t.msgs, m)
	t.mu.Unlock()
}

// Snapshot returns a copy safe to hand to other goroutines.
func (t *Transcript) Snapshot() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Message{}, t.msgs...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

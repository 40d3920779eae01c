package memory

import (
	"context"
	"sync"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

type FeedbackRepo struct {
	mu   sync.RWMutex
	docs map[string]models.Feedback
}

func NewFeedbackRepo() *FeedbackRepo {
	return &FeedbackRepo{docs: map[string]models.Feedback{}}
}

func (r *FeedbackRepo) Put(_ context.Context, f *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[f.ID] = *f
	return nil
}

func (r *FeedbackRepo) FindByID(_ context.Context, id string) (*models.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.docs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &f, nil
}

func (r *FeedbackRepo) FindByInterview(_ context.Context, interviewID, userID string) (*models.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.Feedback
	for _, f := range r.docs {
		if f.InterviewID != interviewID || f.UserID != userID {
			continue
		}
		if best == nil || f.CreatedAt.After(best.CreatedAt) {
			f := f
			best = &f
		}
	}
	if best == nil {
		return nil, utils.ErrNotFound
	}
	return best, nil
}

// Len reports how many feedback documents are stored.
func (r *FeedbackRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

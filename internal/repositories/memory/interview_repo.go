// Package memory holds map-backed repositories used when no MONGO_URI is
// configured (local runs of the terminal client) and in service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

type InterviewRepo struct {
	mu   sync.RWMutex
	docs map[string]models.Interview
}

func NewInterviewRepo() *InterviewRepo {
	return &InterviewRepo{docs: map[string]models.Interview{}}
}

func (r *InterviewRepo) Create(_ context.Context, in *models.Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[in.ID] = cloneInterview(*in)
	return nil
}

func (r *InterviewRepo) GetByID(_ context.Context, id string) (*models.Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.docs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := cloneInterview(in)
	return &out, nil
}

func (r *InterviewRepo) SaveTranscript(_ context.Context, id string, upd models.TranscriptUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.docs[id]
	if !ok || in.UserID != upd.UserID {
		return utils.ErrNotFound
	}
	voice := upd.VoiceBased
	updatedAt := upd.UpdatedAt.UTC()
	in.Finalized = true
	in.VoiceBased = &voice
	in.Transcript = cloneSlice(upd.Transcript)
	in.DurationMinutes = upd.DurationMinutes
	in.UpdatedAt = &updatedAt
	r.docs[id] = in
	return nil
}

// LatestFinalized filters and sorts in memory. This mirrors the indexed
// Mongo query and is only meant for small local data sets.
func (r *InterviewRepo) LatestFinalized(_ context.Context, excludeUserID string, limit int64) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	out := []models.Interview{}
	for _, in := range r.docs {
		if in.Finalized && in.UserID != excludeUserID {
			out = append(out, cloneInterview(in))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(out)
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InterviewRepo) ListByUser(_ context.Context, userID string) ([]models.Interview, error) {
	r.mu.RLock()
	out := []models.Interview{}
	for _, in := range r.docs {
		if in.UserID == userID {
			out = append(out, cloneInterview(in))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(in []models.Interview) {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].CreatedAt.Equal(in[j].CreatedAt) {
			return in[i].ID < in[j].ID
		}
		return in[i].CreatedAt.After(in[j].CreatedAt)
	})
}

func cloneInterview(in models.Interview) models.Interview {
	in.Techstack = cloneSlice(in.Techstack)
	in.Questions = cloneSlice(in.Questions)
	in.Transcript = cloneSlice(in.Transcript)
	return in
}

// cloneSlice copies s, keeping nil and empty distinct so JSON output matches
// what the Mongo store returns.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	"github.com/yoockh/yoointerview/internal/utils"
)

const validAssessment = `{
  "totalScore": 72,
  "categoryScores": [
    {"name": "Communication Skills", "score": 80, "comment": "Clear."},
    {"name": "Technical Knowledge", "score": 70, "comment": "Solid basics."},
    {"name": "Problem-Solving", "score": 65, "comment": "Needed hints."},
    {"name": "Cultural & Role Fit", "score": 75, "comment": "Good fit."},
    {"name": "Confidence & Clarity", "score": 70, "comment": "Steady."}
  ],
  "strengths": ["Concise answers"],
  "areasForImprovement": ["Go deeper on trade-offs"],
  "finalAssessment": "Promising candidate."
}`

var sampleTranscript = []models.Message{
	{Role: models.RoleAssistant, Content: "Tell me about yourself."},
	{Role: models.RoleUser, Content: "I build backend services in Go."},
}

// seededInterviews holds interview i1 owned by u1 and i2 owned by u2.
func seededInterviews(t *testing.T) *memory.InterviewRepo {
	t.Helper()
	repo := memory.NewInterviewRepo()
	require.NoError(t, repo.Create(context.Background(), &models.Interview{ID: "i1", UserID: "u1", Finalized: true}))
	require.NoError(t, repo.Create(context.Background(), &models.Interview{ID: "i2", UserID: "u2", Finalized: true}))
	return repo
}

func newFeedbackTestService(t *testing.T, reply string) (*feedbackService, *fakeLLM, *memory.FeedbackRepo) {
	repo := memory.NewFeedbackRepo()
	fake := &fakeLLM{replies: []string{reply}}
	log, _ := test.NewNullLogger()
	svc := NewFeedbackService(seededInterviews(t), repo, fake, log).(*feedbackService)
	return svc, fake, repo
}

func TestFeedbackService_CreateStoresAssessment(t *testing.T) {
	svc, fake, repo := newFeedbackTestService(t, validAssessment)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateFeedbackParams{InterviewID: "i1", UserID: "u1", Transcript: sampleTranscript})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := repo.FindByInterview(ctx, "i1", "u1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 72, got.TotalScore)
	score, ok := got.Score(models.CategoryProblemSolving)
	require.True(t, ok)
	assert.Equal(t, 65, score)

	reqs := fake.requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSON)
	assert.Contains(t, reqs[0].Prompt, "- user: I build backend services in Go.\n")
	assert.Contains(t, reqs[0].Prompt, "- assistant: Tell me about yourself.\n")
}

func TestFeedbackService_OverwriteKeepsID(t *testing.T) {
	svc, _, repo := newFeedbackTestService(t, validAssessment)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateFeedbackParams{InterviewID: "i1", UserID: "u1", Transcript: sampleTranscript})
	require.NoError(t, err)

	second, err := svc.Create(ctx, CreateFeedbackParams{
		InterviewID: "i1",
		UserID:      "u1",
		Transcript:  sampleTranscript,
		FeedbackID:  first,
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.Len())
}

func TestFeedbackService_RejectsMalformedAssessment(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "The candidate did well."},
		{"missing category", `{"totalScore":50,"categoryScores":[{"name":"Communication Skills","score":50,"comment":""}],"strengths":[],"areasForImprovement":[],"finalAssessment":"ok"}`},
		{"extra category", `{"totalScore":50,"categoryScores":[
			{"name":"Communication Skills","score":50,"comment":""},
			{"name":"Technical Knowledge","score":50,"comment":""},
			{"name":"Problem-Solving","score":50,"comment":""},
			{"name":"Cultural & Role Fit","score":50,"comment":""},
			{"name":"Confidence & Clarity","score":50,"comment":""},
			{"name":"Charisma","score":50,"comment":""}],
			"strengths":[],"areasForImprovement":[],"finalAssessment":"ok"}`},
		{"unknown category", `{"totalScore":50,"categoryScores":[
			{"name":"Communication Skills","score":50,"comment":""},
			{"name":"Technical Knowledge","score":50,"comment":""},
			{"name":"Problem-Solving","score":50,"comment":""},
			{"name":"Cultural & Role Fit","score":50,"comment":""},
			{"name":"Charisma","score":50,"comment":""}],
			"strengths":[],"areasForImprovement":[],"finalAssessment":"ok"}`},
		{"score out of range", `{"totalScore":150,"categoryScores":[
			{"name":"Communication Skills","score":50,"comment":""},
			{"name":"Technical Knowledge","score":50,"comment":""},
			{"name":"Problem-Solving","score":50,"comment":""},
			{"name":"Cultural & Role Fit","score":50,"comment":""},
			{"name":"Confidence & Clarity","score":50,"comment":""}],
			"strengths":[],"areasForImprovement":[],"finalAssessment":"ok"}`},
		{"unexpected field", `{"totalScore":50,"mood":"happy","categoryScores":[],"strengths":[],"areasForImprovement":[],"finalAssessment":"ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, repo := newFeedbackTestService(t, tt.reply)

			id, err := svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "i1", UserID: "u1", Transcript: sampleTranscript})

			require.Error(t, err)
			assert.Empty(t, id)
			assert.True(t, utils.IsCode(err, utils.CodeUpstream))
			assert.Equal(t, 0, repo.Len())
		})
	}
}

func TestFeedbackService_AcceptsFencedJSON(t *testing.T) {
	svc, _, _ := newFeedbackTestService(t, "```json\n"+validAssessment+"\n```")

	id, err := svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "i1", UserID: "u1", Transcript: sampleTranscript})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestFeedbackService_ModelFailureWritesNothing(t *testing.T) {
	repo := memory.NewFeedbackRepo()
	log, hook := test.NewNullLogger()
	svc := NewFeedbackService(seededInterviews(t), repo, &fakeLLM{err: errors.New("quota exceeded")}, log)

	_, err := svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "i1", UserID: "u1", Transcript: sampleTranscript})

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.Equal(t, 0, repo.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "error saving feedback", hook.LastEntry().Message)
}

func TestFeedbackService_RequiresTranscript(t *testing.T) {
	svc, fake, _ := newFeedbackTestService(t, validAssessment)

	_, err := svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "i1", UserID: "u1"})

	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.Empty(t, fake.requests())
}

func TestFeedbackService_GetByInterviewNotFound(t *testing.T) {
	svc, _, _ := newFeedbackTestService(t, validAssessment)

	_, err := svc.GetByInterview(context.Background(), "i1", "u1")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestFeedbackService_RejectsForeignInterview(t *testing.T) {
	svc, fake, repo := newFeedbackTestService(t, validAssessment)

	_, err := svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "i2", UserID: "u1", Transcript: sampleTranscript})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = svc.Create(context.Background(), CreateFeedbackParams{InterviewID: "nope", UserID: "u1", Transcript: sampleTranscript})
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	assert.Empty(t, fake.requests())
	assert.Equal(t, 0, repo.Len())
}

func TestFeedbackService_RefusesToOverwriteAnotherUsersFeedback(t *testing.T) {
	svc, _, repo := newFeedbackTestService(t, validAssessment)
	ctx := context.Background()

	theirs, err := svc.Create(ctx, CreateFeedbackParams{InterviewID: "i2", UserID: "u2", Transcript: sampleTranscript})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateFeedbackParams{
		InterviewID: "i1",
		UserID:      "u1",
		Transcript:  sampleTranscript,
		FeedbackID:  theirs,
	})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	kept, err := repo.FindByInterview(ctx, "i2", "u2")
	require.NoError(t, err)
	assert.Equal(t, theirs, kept.ID)
	assert.Equal(t, 1, repo.Len())
}

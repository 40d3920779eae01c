package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	"github.com/yoockh/yoointerview/internal/utils"
)

func TestGenerateService_CreatesInterviewCard(t *testing.T) {
	repo := memory.NewInterviewRepo()
	interviews := NewInterviewService(repo, nil)
	fake := &fakeLLM{replies: []string{`["What is a goroutine?", " ", "How do you size a connection pool?", "Extra"]`}}
	log, _ := test.NewNullLogger()
	svc := NewGenerateService(interviews, fake, log)
	ctx := context.Background()

	id, err := svc.Generate(ctx, interviewapi.GenerateRequest{
		Role:      "Backend Engineer",
		Level:     "Junior",
		Techstack: "go, postgres ,redis",
		Amount:    2,
		Type:      "Technical",
		UserID:    "u1",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "postgres", "redis"}, got.Techstack)
	assert.Equal(t, []string{"What is a goroutine?", "How do you size a connection pool?"}, got.Questions)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.Finalized)

	reqs := fake.requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "The amount of questions required is: 2.")
}

func TestGenerateService_RejectsNonArrayOutput(t *testing.T) {
	repo := memory.NewInterviewRepo()
	log, _ := test.NewNullLogger()
	svc := NewGenerateService(NewInterviewService(repo, nil), &fakeLLM{replies: []string{"1. What is Go?"}}, log)

	_, err := svc.Generate(context.Background(), interviewapi.GenerateRequest{
		Role: "r", Level: "l", Techstack: "go", Amount: 3, Type: "t", UserID: "u1",
	})
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))

	list, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

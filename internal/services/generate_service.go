package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/utils"
)

const generatePromptTemplate = `Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %d.
Return only the questions, as a JSON array of strings, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.`

// GenerateService builds an interview card with model-written questions.
type GenerateService interface {
	Generate(ctx context.Context, req interviewapi.GenerateRequest) (interviewID string, err error)
}

type generateService struct {
	interviews InterviewService
	llm        llm.Provider
	log        *logrus.Logger
}

func NewGenerateService(interviews InterviewService, provider llm.Provider, log *logrus.Logger) GenerateService {
	if log == nil {
		log = logrus.New()
	}
	return &generateService{interviews: interviews, llm: provider, log: log}
}

func (s *generateService) Generate(ctx context.Context, req interviewapi.GenerateRequest) (string, error) {
	const op = "GenerateService.Generate"

	if req.UserID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "userid is required", nil)
	}
	if req.Amount <= 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "amount must be positive", nil)
	}

	prompt := fmt.Sprintf(generatePromptTemplate, req.Role, req.Level, req.Techstack, req.Type, req.Amount)

	start := time.Now()
	raw, err := s.llm.Generate(ctx, llm.Request{Prompt: prompt, JSON: true})
	metrics.LLMLatency.WithLabelValues("questions").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "question model unavailable", err)
	}

	questions, err := parseQuestions(raw, req.Amount)
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "malformed question list", err)
	}

	id, err := s.interviews.CreateDocument(ctx, CreateInterviewParams{
		UserID:    req.UserID,
		Role:      req.Role,
		Level:     req.Level,
		Type:      req.Type,
		Techstack: splitTechstack(req.Techstack),
		Questions: questions,
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"interview_id": id, "questions": len(questions)}).Info("interview generated")
	return id, nil
}

// parseQuestions decodes a JSON array of strings, dropping blanks and
// trimming to amount.
func parseQuestions(raw string, amount int) ([]string, error) {
	var qs []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &qs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions in model output")
	}
	if len(out) > amount {
		out = out[:amount]
	}
	return out, nil
}

func splitTechstack(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

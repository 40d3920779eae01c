package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/utils"
)

const feedbackSystemPrompt = "You are a professional interviewer analyzing a mock interview. " +
	"Your task is to evaluate the candidate based on structured categories."

const feedbackPromptTemplate = `You are an AI interviewer analyzing a mock interview. Evaluate the candidate based on structured categories. Be thorough and detailed. Don't be lenient with the candidate: if there are mistakes or areas for improvement, point them out.

Transcript:
{{transcript}}
Score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- **Communication Skills**: Clarity, articulation, structured responses.
- **Technical Knowledge**: Understanding of key concepts for the role.
- **Problem-Solving**: Ability to analyze problems and propose solutions.
- **Cultural & Role Fit**: Alignment with company values and job role.
- **Confidence & Clarity**: Confidence in responses, engagement, and clarity.

Answer with a single JSON object and nothing else, shaped exactly like:
{"totalScore": <0-100>, "categoryScores": [{"name": "<category>", "score": <0-100>, "comment": "<text>"}, ... one entry per category above, in that order], "strengths": ["<text>", ...], "areasForImprovement": ["<text>", ...], "finalAssessment": "<text>"}`

type CreateFeedbackParams struct {
	InterviewID string
	UserID      string
	Transcript  []models.Message
	// FeedbackID, when set, names the document to overwrite.
	FeedbackID string
}

type FeedbackService interface {
	Create(ctx context.Context, p CreateFeedbackParams) (feedbackID string, err error)
	GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type feedbackService struct {
	interviews mongorepo.InterviewRepository
	feedback   mongorepo.FeedbackRepository
	llm        llm.Provider
	log        *logrus.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// NewFeedbackService scores transcripts of interviews held in interviews and
// stores the result in feedback.
func NewFeedbackService(interviews mongorepo.InterviewRepository, feedback mongorepo.FeedbackRepository, provider llm.Provider, log *logrus.Logger) FeedbackService {
	if log == nil {
		log = logrus.New()
	}
	return &feedbackService{
		interviews: interviews,
		feedback:   feedback,
		llm:        provider,
		log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
	}
}

func (s *feedbackService) Create(ctx context.Context, p CreateFeedbackParams) (string, error) {
	id, err := s.create(ctx, p)
	if err != nil {
		metrics.FeedbackRequests.WithLabelValues("failed").Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"interview_id": p.InterviewID,
			"user_id":      p.UserID,
		}).Error("error saving feedback")
		return "", err
	}
	metrics.FeedbackRequests.WithLabelValues("ok").Inc()
	return id, nil
}

func (s *feedbackService) create(ctx context.Context, p CreateFeedbackParams) (string, error) {
	const op = "FeedbackService.Create"

	if p.InterviewID == "" || p.UserID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}
	if len(p.Transcript) == 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "transcript is empty", nil)
	}
	if err := s.authorize(ctx, op, p); err != nil {
		return "", err
	}

	prompt := strings.Replace(feedbackPromptTemplate, "{{transcript}}", FormatTranscript(p.Transcript), 1)

	start := time.Now()
	raw, err := s.llm.Generate(ctx, llm.Request{System: feedbackSystemPrompt, Prompt: prompt, JSON: true})
	metrics.LLMLatency.WithLabelValues("feedback").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "scoring model unavailable", err)
	}

	assessment, err := s.parseAssessment(raw)
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "malformed scoring output", err)
	}

	id := p.FeedbackID
	if id == "" {
		id = uuid.NewString()
	}
	doc := &models.Feedback{
		ID:          id,
		InterviewID: p.InterviewID,
		UserID:      p.UserID,
		Assessment:  *assessment,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.feedback.Put(ctx, doc); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to persist feedback", err)
	}
	return id, nil
}

// authorize checks that the caller owns the interview and, when a feedback id
// is given, that it does not name another interview's or user's document.
func (s *feedbackService) authorize(ctx context.Context, op string, p CreateFeedbackParams) error {
	in, err := s.interviews.GetByID(ctx, p.InterviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if in.UserID != p.UserID {
		return utils.E(utils.CodeForbidden, op, "interview belongs to another user", nil)
	}
	if p.FeedbackID == "" {
		return nil
	}

	existing, err := s.feedback.FindByID(ctx, p.FeedbackID)
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return nil
	case err != nil:
		return utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	case existing.InterviewID != p.InterviewID || existing.UserID != p.UserID:
		return utils.E(utils.CodeForbidden, op, "feedback belongs to another interview", nil)
	}
	return nil
}

// parseAssessment accepts exactly the rubric shape: unknown fields, missing
// or extra categories and out-of-range scores are rejected.
func (s *feedbackService) parseAssessment(raw string) (*models.Assessment, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripCodeFence(raw))))
	dec.DisallowUnknownFields()

	var a models.Assessment
	if err := dec.Decode(&a); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after assessment")
	}
	if err := s.validate.Struct(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *feedbackService) GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	const op = "FeedbackService.GetByInterview"

	if interviewID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}
	f, err := s.feedback.FindByInterview(ctx, interviewID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	return f, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

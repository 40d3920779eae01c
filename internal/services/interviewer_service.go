package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
	"gorm.io/datatypes"
)

const (
	sessionKeyPrefix = "interview:session:"
	sessionTTL       = 2 * time.Hour
)

// InterviewerService is the AI interviewer behind /api/start-interview and
// /api/respond.
type InterviewerService interface {
	Start(ctx context.Context, req interviewapi.StartRequest) (*interviewapi.StartResponse, error)
	Respond(ctx context.Context, sessionID, response string) (*interviewapi.RespondResponse, error)
	End(ctx context.Context, sessionID string) (*interviewapi.EndResponse, error)
	Status(ctx context.Context, sessionID string) (*interviewapi.StatusResponse, error)
	Log(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error)
}

type interviewerService struct {
	sessions cache.Cache
	llm      llm.Provider
	convo    postgres.ConversationRepo // optional
	log      *logrus.Logger
	now      func() time.Time

	locks [lockStripes]sync.Mutex
}

const lockStripes = 64

// NewInterviewerService keeps sessions in sessions. convo may be nil, which
// disables the conversation audit log.
func NewInterviewerService(sessions cache.Cache, provider llm.Provider, convo postgres.ConversationRepo, log *logrus.Logger) InterviewerService {
	if log == nil {
		log = logrus.New()
	}
	return &interviewerService{
		sessions: sessions,
		llm:      provider,
		convo:    convo,
		log:      log,
		now:      time.Now,
	}
}

func (s *interviewerService) Start(ctx context.Context, req interviewapi.StartRequest) (*interviewapi.StartResponse, error) {
	const op = "InterviewerService.Start"

	sess := &models.InterviewerSession{
		SessionID:     uuid.NewString(),
		Role:          orDefault(req.Role, defaultRole),
		Level:         orDefault(req.Level, defaultLevel),
		Techstack:     nonNil(req.Techstack),
		InterviewType: orDefault(req.Type, defaultInterviewType),
		Questions:     nonNil(req.Questions),
		History:       []models.Message{},
		QAPairs:       []models.QAPair{},
		StartedAt:     s.now().UTC(),
	}
	sess.Candidate = newCandidateInfo(sess)

	opening := greeting(sess)
	s.appendTurn(ctx, sess, models.RoleAssistant, opening)
	sess.QuestionCount++

	if err := s.save(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to start interview", err)
	}

	metrics.InterviewsStarted.Inc()
	s.log.WithFields(logrus.Fields{
		"session_id": sess.SessionID,
		"role":       sess.Role,
		"level":      sess.Level,
	}).Info("interview session started")

	return &interviewapi.StartResponse{
		SessionID:      sess.SessionID,
		Message:        opening,
		QuestionNumber: sess.QuestionCount,
		Status:         interviewapi.StatusStarted,
	}, nil
}

func (s *interviewerService) Respond(ctx context.Context, sessionID, response string) (*interviewapi.RespondResponse, error) {
	const op = "InterviewerService.Respond"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid session ID", nil)
	}
	response = strings.TrimSpace(response)

	unlock := s.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if sess == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid session ID", nil)
	}
	if response == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Response is required", nil)
	}
	if sess.Completed {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Interview already completed", nil)
	}

	question := lastQuestion(sess.History)
	out := &interviewapi.RespondResponse{SessionID: sessionID}
	if ShouldEndInterview(response) {
		sess.Completed = true
		if question != "" {
			s.addQAPair(sess, question, response)
		}
		s.appendTurn(ctx, sess, models.RoleUser, response)

		feedback := s.generate(ctx, "overall_feedback", llm.Request{Prompt: overallFeedbackPrompt(sess)}, overallFeedbackFallback)
		farewell := s.generate(ctx, "farewell", llm.Request{
			System: interviewerSystemPrompt(sess),
			Prompt: "The candidate has decided to end the interview. Give a brief polite closing message thanking them for their time, in one sentence. Do not repeat any previous conversation.",
		}, farewellText)
		s.appendTurn(ctx, sess, models.RoleAssistant, farewell)

		d := sess.DurationMinutes(s.now())
		out.Message = farewell
		out.Feedback = feedback
		out.Status = interviewapi.StatusCompleted
		out.TotalQuestions = sess.QuestionCount
		out.DurationMinutes = &d
	} else {
		ExtractCandidateInfo(&sess.Candidate, response)
		if question != "" {
			s.addQAPair(sess, question, response)
		}
		s.appendTurn(ctx, sess, models.RoleUser, response)

		fallback := fallbackReplies[sess.QuestionCount%len(fallbackReplies)]
		reply := s.generate(ctx, "interviewer", llm.Request{
			System: interviewerSystemPrompt(sess),
			Prompt: nextQuestionPrompt(sess),
		}, fallback)
		s.appendTurn(ctx, sess, models.RoleAssistant, reply)
		sess.QuestionCount++

		out.Message = reply
		out.Status = interviewapi.StatusInProgress
	}
	candidate := sess.Candidate
	out.CandidateInfo = &candidate
	out.QuestionNumber = sess.QuestionCount

	if err := s.save(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to save session", err)
	}
	metrics.Responses.WithLabelValues(out.Status).Inc()
	return out, nil
}

func (s *interviewerService) End(ctx context.Context, sessionID string) (*interviewapi.EndResponse, error) {
	const op = "InterviewerService.End"

	unlock := s.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if sess == nil {
		return nil, utils.E(utils.CodeNotFound, op, "Session not found", nil)
	}
	if sess.Completed {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Interview already completed", nil)
	}

	sess.Completed = true
	feedback := s.generate(ctx, "overall_feedback", llm.Request{Prompt: overallFeedbackPrompt(sess)}, overallFeedbackFallback)

	if err := s.save(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to save session", err)
	}
	metrics.Responses.WithLabelValues(interviewapi.StatusEnded).Inc()

	return &interviewapi.EndResponse{
		SessionID:       sessionID,
		Message:         endedMessage,
		Feedback:        feedback,
		Status:          interviewapi.StatusEnded,
		TotalQuestions:  sess.QuestionCount,
		CandidateInfo:   sess.Candidate,
		DurationMinutes: sess.DurationMinutes(s.now()),
	}, nil
}

func (s *interviewerService) Status(ctx context.Context, sessionID string) (*interviewapi.StatusResponse, error) {
	const op = "InterviewerService.Status"

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if sess == nil {
		return nil, utils.E(utils.CodeNotFound, op, "Session not found", nil)
	}
	return &interviewapi.StatusResponse{
		SessionID:       sess.SessionID,
		QuestionNumber:  sess.QuestionCount,
		IsCompleted:     sess.Completed,
		StartTime:       sess.StartedAt,
		CandidateInfo:   sess.Candidate,
		DurationMinutes: sess.DurationMinutes(s.now()),
	}, nil
}

func (s *interviewerService) Log(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error) {
	const op = "InterviewerService.Log"

	if s.convo == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "conversation log is not configured", nil)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid session_id", err)
	}
	rows, err := s.convo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation log", err)
	}
	return rows, nil
}

// generate streams a model reply and falls back to a canned one on failure
// or an empty answer.
func (s *interviewerService) generate(ctx context.Context, purpose string, req llm.Request, fallback string) string {
	start := time.Now()
	out, err := llm.Collect(s.llm.StreamAnswer(ctx, req))
	metrics.LLMLatency.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.WithError(err).WithField("purpose", purpose).Warn("model call failed, using fallback")
		return fallback
	}
	if out = strings.TrimSpace(out); out == "" {
		return fallback
	}
	return out
}

func (s *interviewerService) addQAPair(sess *models.InterviewerSession, question, answer string) {
	sess.QAPairs = append(sess.QAPairs, models.QAPair{Question: question, Answer: answer, Timestamp: s.now().UTC()})
}

func (s *interviewerService) appendTurn(ctx context.Context, sess *models.InterviewerSession, role models.Role, content string) {
	sess.History = append(sess.History, models.Message{Role: role, Content: content})
	if s.convo == nil {
		return
	}

	meta, _ := json.Marshal(map[string]any{"question_number": sess.QuestionCount})
	row := &models.ConversationLog{
		ID:        uuid.NewString(),
		SessionID: sess.SessionID,
		Seq:       len(sess.History),
		Role:      string(role),
		Content:   content,
		Timestamp: s.now().UTC(),
		Metadata:  datatypes.JSON(meta),
	}
	if err := s.convo.Insert(ctx, row); err != nil {
		s.log.WithError(err).WithField("session_id", sess.SessionID).Warn("conversation log insert failed")
	}
}

func (s *interviewerService) load(ctx context.Context, sessionID string) (*models.InterviewerSession, error) {
	var sess models.InterviewerSession
	hit, err := s.sessions.GetJSON(ctx, sessionKeyPrefix+sessionID, &sess)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, nil
	}
	return &sess, nil
}

func (s *interviewerService) save(ctx context.Context, sess *models.InterviewerSession) error {
	return s.sessions.SetJSON(ctx, sessionKeyPrefix+sess.SessionID, sess, sessionTTL)
}

// lock serialises turns of one session within this process. Sessions share
// a fixed set of mutexes, so nothing is kept per session.
func (s *interviewerService) lock(sessionID string) func() {
	mu := &s.locks[lockStripe(sessionID)]
	mu.Lock()
	return mu.Unlock
}

func lockStripe(sessionID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return h.Sum32() % lockStripes
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/utils"
)

type CreateInterviewParams struct {
	UserID    string
	Role      string
	Level     string
	Type      string
	Techstack []string
	Questions []string
}

type SaveTranscriptParams struct {
	InterviewID     string
	UserID          string
	Transcript      []models.Message `validate:"dive"`
	VoiceBased      bool
	DurationMinutes *float64
}

type InterviewService interface {
	CreateDocument(ctx context.Context, p CreateInterviewParams) (string, error)
	SaveTranscript(ctx context.Context, p SaveTranscriptParams) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	Latest(ctx context.Context, userID string, limit int) ([]models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	ExportTranscript(ctx context.Context, interviewID, userID string) (url string, err error)
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	objects    storage.ObjectStore
	validate   *validator.Validate
	now        func() time.Time
}

// NewInterviewService wires the interview repository. objects may be nil,
// in which case transcript export reports CodeUnavailable.
func NewInterviewService(interviews mongorepo.InterviewRepository, objects storage.ObjectStore) InterviewService {
	return &interviewService{
		interviews: interviews,
		objects:    objects,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
	}
}

func (s *interviewService) CreateDocument(ctx context.Context, p CreateInterviewParams) (string, error) {
	const op = "InterviewService.CreateDocument"

	if p.UserID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	typ := p.Type
	if typ == "" {
		typ = models.InterviewTypeCustom
	}
	doc := &models.Interview{
		ID:        uuid.NewString(),
		Role:      p.Role,
		Level:     p.Level,
		Type:      typ,
		Techstack: nonNil(p.Techstack),
		Questions: nonNil(p.Questions),
		UserID:    p.UserID,
		Finalized: true,
		CreatedAt: s.now().UTC(),
	}

	if err := s.interviews.Create(ctx, doc); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}
	return doc.ID, nil
}

func (s *interviewService) SaveTranscript(ctx context.Context, p SaveTranscriptParams) error {
	const op = "InterviewService.SaveTranscript"

	if p.InterviewID == "" || p.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}
	if err := s.validate.Struct(p); err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid transcript", err)
	}
	if _, err := s.owned(ctx, op, p.InterviewID, p.UserID); err != nil {
		return err
	}

	err := s.interviews.SaveTranscript(ctx, p.InterviewID, models.TranscriptUpdate{
		UserID:          p.UserID,
		Transcript:      nonNilMessages(p.Transcript),
		VoiceBased:      p.VoiceBased,
		DurationMinutes: p.DurationMinutes,
		UpdatedAt:       s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to save transcript", err)
	}
	return nil
}

func (s *interviewService) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	const op = "InterviewService.GetByID"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	in, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	return in, nil
}

// Latest lists other users' finalized interviews, newest first.
func (s *interviewService) Latest(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	const op = "InterviewService.Latest"

	if limit <= 0 {
		limit = 20
	}
	out, err := s.interviews.LatestFinalized(ctx, userID, int64(limit))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list latest interviews", err)
	}
	return out, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	const op = "InterviewService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.interviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) ExportTranscript(ctx context.Context, interviewID, userID string) (string, error) {
	const op = "InterviewService.ExportTranscript"

	if s.objects == nil {
		return "", utils.E(utils.CodeUnavailable, op, "transcript export is not configured", nil)
	}

	in, err := s.owned(ctx, op, interviewID, userID)
	if err != nil {
		return "", err
	}
	if len(in.Transcript) == 0 {
		return "", utils.E(utils.CodeNotFound, op, "interview has no transcript", nil)
	}

	title := "Interview Transcript"
	if in.Role != "" {
		title += " - " + in.Role
	}
	body := RenderTranscript(title, in.Transcript)

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(s.now().UTC().Format(time.RFC3339Nano))
	objectName := "transcripts/" + in.ID + "/interview-transcript-" + stamp + ".txt"

	if _, err := s.objects.Upload(ctx, objectName, "text/plain; charset=utf-8", strings.NewReader(body)); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload transcript", err)
	}
	url, err := s.objects.SignedGetURL(ctx, objectName, 15*time.Minute)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign transcript url", err)
	}
	return url, nil
}

// owned loads an interview and checks that userID owns it.
func (s *interviewService) owned(ctx context.Context, op, interviewID, userID string) (*models.Interview, error) {
	in, err := s.GetByID(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if in.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "interview belongs to another user", nil)
	}
	return in, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilMessages(in []models.Message) []models.Message {
	if in == nil {
		return []models.Message{}
	}
	return in
}

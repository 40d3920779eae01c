// Package interviewapi holds the wire contract of the interviewer service
// and an HTTP client for it.
package interviewapi

import (
	"time"

	"github.com/yoockh/yoointerview/internal/models"
)

const (
	StatusStarted    = "started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusEnded      = "ended"

	STTStatusOK    = "ok"
	STTStatusError = "error"
)

// StartRequest carries the optional interview context. Empty fields are
// left out of the JSON body entirely.
type StartRequest struct {
	Role      string   `json:"role,omitempty"`
	Level     string   `json:"level,omitempty"`
	Techstack []string `json:"techstack,omitempty"`
	Type      string   `json:"type,omitempty"`
	Questions []string `json:"questions,omitempty"`
}

func (r StartRequest) IsEmpty() bool {
	return r.Role == "" && r.Level == "" && len(r.Techstack) == 0 && r.Type == "" && len(r.Questions) == 0
}

type StartResponse struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	QuestionNumber int    `json:"question_number"`
	Status         string `json:"status"`
}

type RespondRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Response  string `json:"response"`
}

// RespondResponse carries the next question, or the farewell together with
// the overall feedback once the candidate asked to stop.
type RespondResponse struct {
	SessionID       string                `json:"session_id"`
	Message         string                `json:"message"`
	QuestionNumber  int                   `json:"question_number"`
	Status          string                `json:"status"`
	Feedback        string                `json:"feedback,omitempty"`
	TotalQuestions  int                   `json:"total_questions_asked,omitempty"`
	CandidateInfo   *models.CandidateInfo `json:"candidate_info,omitempty"`
	DurationMinutes *float64              `json:"duration_minutes,omitempty"`
}

func (r *RespondResponse) Completed() bool { return r.Status == StatusCompleted }

type EndResponse struct {
	SessionID       string               `json:"session_id"`
	Message         string               `json:"message"`
	Feedback        string               `json:"feedback"`
	Status          string               `json:"status"`
	TotalQuestions  int                  `json:"total_questions_asked"`
	CandidateInfo   models.CandidateInfo `json:"candidate_info"`
	DurationMinutes float64              `json:"duration_minutes"`
}

type StatusResponse struct {
	SessionID       string               `json:"session_id"`
	QuestionNumber  int                  `json:"question_number"`
	IsCompleted     bool                 `json:"is_completed"`
	StartTime       time.Time            `json:"start_time"`
	CandidateInfo   models.CandidateInfo `json:"candidate_info"`
	DurationMinutes float64              `json:"duration_minutes"`
}

type STTResponse struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription,omitempty"`
	Message       string `json:"message,omitempty"`
}

// OK reports whether the response carries a usable transcription.
func (r *STTResponse) OK() bool {
	return r != nil && r.Status == STTStatusOK && r.Transcription != ""
}

type GenerateRequest struct {
	Role      string `json:"role" binding:"required"`
	Level     string `json:"level" binding:"required"`
	Techstack string `json:"techstack" binding:"required"`
	Amount    int    `json:"amount" binding:"required,min=1,max=50"`
	Type      string `json:"type" binding:"required"`
	UserID    string `json:"userid" binding:"required"`
}

type GenerateResponse struct {
	Success     bool   `json:"success"`
	InterviewID string `json:"interviewId,omitempty"`
	Error       string `json:"error,omitempty"`
}

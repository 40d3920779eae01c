package session

import (
	"context"

	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
)

// Remote is the interviewer service as seen by the client.
type Remote interface {
	StartInterview(ctx context.Context, req interviewapi.StartRequest) (*interviewapi.StartResponse, error)
	Respond(ctx context.Context, sessionID, response string) (*interviewapi.RespondResponse, error)
	Transcribe(ctx context.Context) (*interviewapi.STTResponse, error)
}

type Interviews interface {
	CreateDocument(ctx context.Context, p services.CreateInterviewParams) (string, error)
	SaveTranscript(ctx context.Context, p services.SaveTranscriptParams) error
}

type Feedbacks interface {
	Create(ctx context.Context, p services.CreateFeedbackParams) (string, error)
}

// Speaker reads assistant messages aloud. Failures are never fatal.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Prompter asks the user to type an answer when speech capture fails.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// Observer is told about every status change and appended message.
type Observer interface {
	OnStatus(s Status)
	OnMessage(m models.Message)
}

type nopObserver struct{}

func (nopObserver) OnStatus(Status)          {}
func (nopObserver) OnMessage(models.Message) {}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

func userMsg(s string) models.Message { return models.Message{Role: models.RoleUser, Content: s} }
func assistantMsg(s string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: s}
}

type fakeRemote struct {
	mu sync.Mutex

	startFn      func(req interviewapi.StartRequest) (*interviewapi.StartResponse, error)
	respondFn    func(n int, response string) (*interviewapi.RespondResponse, error)
	transcribeFn func(n int) (*interviewapi.STTResponse, error)

	startReqs  []interviewapi.StartRequest
	responses  []string
	sttCalls   int
	startCalls int
}

func (f *fakeRemote) StartInterview(_ context.Context, req interviewapi.StartRequest) (*interviewapi.StartResponse, error) {
	f.mu.Lock()
	f.startCalls++
	f.startReqs = append(f.startReqs, req)
	fn := f.startFn
	f.mu.Unlock()
	if fn == nil {
		return &interviewapi.StartResponse{SessionID: "s1", Message: "Hi", Status: interviewapi.StatusStarted}, nil
	}
	return fn(req)
}

func (f *fakeRemote) Respond(_ context.Context, sessionID, response string) (*interviewapi.RespondResponse, error) {
	f.mu.Lock()
	f.responses = append(f.responses, response)
	n := len(f.responses)
	fn := f.respondFn
	f.mu.Unlock()
	return fn(n, response)
}

func (f *fakeRemote) Transcribe(_ context.Context) (*interviewapi.STTResponse, error) {
	f.mu.Lock()
	f.sttCalls++
	n := f.sttCalls
	fn := f.transcribeFn
	f.mu.Unlock()
	return fn(n)
}

type fakeInterviews struct {
	mu        sync.Mutex
	createErr error
	created   []services.CreateInterviewParams
	saved     []services.SaveTranscriptParams
}

func (f *fakeInterviews) CreateDocument(_ context.Context, p services.CreateInterviewParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "i-new", nil
}

func (f *fakeInterviews) SaveTranscript(_ context.Context, p services.SaveTranscriptParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	return nil
}

type fakeFeedback struct {
	err   error
	calls []services.CreateFeedbackParams
}

func (f *fakeFeedback) Create(_ context.Context, p services.CreateFeedbackParams) (string, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return "", f.err
	}
	if p.FeedbackID != "" {
		return p.FeedbackID, nil
	}
	return "f1", nil
}

type promptFunc func(ctx context.Context, question string) (string, error)

func (p promptFunc) Prompt(ctx context.Context, q string) (string, error) { return p(ctx, q) }

type recordingObserver struct {
	mu       sync.Mutex
	statuses []Status
	messages []models.Message
	onStatus func(Status)
}

func (o *recordingObserver) OnStatus(s Status) {
	o.mu.Lock()
	o.statuses = append(o.statuses, s)
	fn := o.onStatus
	o.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (o *recordingObserver) OnMessage(m models.Message) {
	o.mu.Lock()
	o.messages = append(o.messages, m)
	o.mu.Unlock()
}

type failingSpeaker struct{ calls int }

func (s *failingSpeaker) Speak(context.Context, string) error {
	s.calls++
	return errors.New("no audio device")
}

func sttOK(text string) (*interviewapi.STTResponse, error) {
	return &interviewapi.STTResponse{Status: interviewapi.STTStatusOK, Transcription: text}, nil
}

func sttFail(int) (*interviewapi.STTResponse, error) {
	return nil, errors.New("microphone unavailable")
}

func inProgress(msg string) (*interviewapi.RespondResponse, error) {
	return &interviewapi.RespondResponse{SessionID: "s1", Message: msg, Status: interviewapi.StatusInProgress}, nil
}

func completed(msg string) (*interviewapi.RespondResponse, error) {
	return &interviewapi.RespondResponse{SessionID: "s1", Message: msg, Status: interviewapi.StatusCompleted}, nil
}

func testLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

var testUser = &models.User{ID: "u1", Name: "Sam", Email: "sam@example.com"}

func TestClient_EndToEndConversation(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(n int) (*interviewapi.STTResponse, error) {
			if n == 1 {
				return sttOK("I am ready")
			}
			return sttOK("I'm done")
		},
		respondFn: func(n int, _ string) (*interviewapi.RespondResponse, error) {
			if n == 1 {
				return inProgress("Great, tell me about X")
			}
			return completed("Thanks for your time")
		},
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	obs := &recordingObserver{}
	speaker := &failingSpeaker{}

	c := New(remote, interviews, feedback, Config{User: testUser, InterviewID: "i1"},
		WithRetryDelay(0), WithObserver(obs), WithSpeaker(speaker), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	want := []models.Message{
		assistantMsg("Hi"),
		userMsg("I am ready"),
		assistantMsg("Great, tell me about X"),
		userMsg("I'm done"),
		assistantMsg("Thanks for your time"),
	}
	assert.Equal(t, want, out.Messages)
	assert.Equal(t, want, c.Messages())
	assert.Equal(t, want, obs.messages)
	assert.Equal(t, []Status{Connecting, Active, Finished}, obs.statuses)
	assert.Equal(t, Finished, c.Status())
	assert.Equal(t, "s1", out.SessionID)
	assert.Empty(t, c.Err())
	assert.Equal(t, 3, speaker.calls)

	require.Len(t, interviews.saved, 1)
	saved := interviews.saved[0]
	assert.Equal(t, "i1", saved.InterviewID)
	assert.Equal(t, "u1", saved.UserID)
	assert.True(t, saved.VoiceBased)
	assert.NotNil(t, saved.DurationMinutes)
	assert.Equal(t, want, saved.Transcript)
	assert.Empty(t, interviews.created)

	require.Len(t, feedback.calls, 1)
	assert.Equal(t, want, feedback.calls[0].Transcript)
	assert.Equal(t, "f1", out.FeedbackID)
	assert.Equal(t, "/interview/i1/feedback", out.Redirect)
}

func TestClient_StartWithoutContextSendsEmptyRequest(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("bye") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	c := New(remote, nil, nil, Config{}, WithRetryDelay(0), WithLogger(testLogger()))

	_, err := c.Start(context.Background())
	require.NoError(t, err)

	require.Len(t, remote.startReqs, 1)
	assert.True(t, remote.startReqs[0].IsEmpty())
}

func TestClient_ForwardsProvidedContext(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("bye") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	c := New(remote, nil, nil, Config{Role: "Backend Engineer", Techstack: []string{"go"}}, WithRetryDelay(0), WithLogger(testLogger()))

	_, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, interviewapi.StartRequest{Role: "Backend Engineer", Techstack: []string{"go"}}, remote.startReqs[0])
}

func TestClient_ManualPromptOncePerIteration(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: sttFail,
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return inProgress("Next question") },
	}

	var c *Client
	var prompts []string
	prompter := promptFunc(func(_ context.Context, q string) (string, error) {
		prompts = append(prompts, q)
		if len(prompts) == 1 {
			return "  typed answer  ", nil
		}
		c.Stop()
		return "", nil
	})
	c = New(remote, nil, nil, Config{}, WithRetryDelay(0), WithPrompter(prompter), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{ManualPrompt, ManualPrompt}, prompts)
	assert.Equal(t, 2*DefaultSTTAttempts, remote.sttCalls)
	assert.Equal(t, []string{"typed answer"}, remote.responses)
	assert.Equal(t, []models.Message{assistantMsg("Hi"), userMsg("typed answer"), assistantMsg("Next question")}, out.Messages)
	assert.Equal(t, Finished, c.Status())
}

func TestClient_EmptyManualAnswerRestartsPolling(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(n int) (*interviewapi.STTResponse, error) {
			if n <= DefaultSTTAttempts {
				return &interviewapi.STTResponse{Status: interviewapi.STTStatusError, Message: "No speech detected"}, nil
			}
			return sttOK("spoken answer")
		},
		respondFn: func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	prompts := 0
	prompter := promptFunc(func(context.Context, string) (string, error) {
		prompts++
		return "   ", nil
	})
	c := New(remote, nil, nil, Config{}, WithRetryDelay(0), WithPrompter(prompter), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, prompts)
	assert.Equal(t, []string{"spoken answer"}, remote.responses)
	assert.Equal(t, []models.Message{assistantMsg("Hi"), userMsg("spoken answer"), assistantMsg("Bye")}, out.Messages)
}

func TestClient_RetryDelayBetweenAttempts(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(n int) (*interviewapi.STTResponse, error) {
			if n < 3 {
				return sttFail(n)
			}
			return sttOK("finally")
		},
		respondFn: func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	c := New(remote, nil, nil, Config{}, WithRetryDelay(20*time.Millisecond), WithLogger(testLogger()))

	began := time.Now()
	_, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(began), 40*time.Millisecond)
	assert.Equal(t, 3, remote.sttCalls)
}

func TestClient_StopDuringActiveIssuesNoFurtherCalls(t *testing.T) {
	var c *Client
	remote := &fakeRemote{
		transcribeFn: func(n int) (*interviewapi.STTResponse, error) {
			if n == 2 {
				c.Stop()
				return sttOK("never sent")
			}
			return sttOK("first answer")
		},
		respondFn: func(int, string) (*interviewapi.RespondResponse, error) { return inProgress("Go on") },
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	c = New(remote, interviews, feedback, Config{User: testUser, InterviewID: "i1"}, WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Finished, c.Status())
	assert.Equal(t, 1, remote.startCalls)
	assert.Equal(t, []string{"first answer"}, remote.responses)
	assert.Equal(t, 2, remote.sttCalls)
	assert.Equal(t, []models.Message{assistantMsg("Hi"), userMsg("first answer"), assistantMsg("Go on")}, out.Messages)

	// a stopped session is still finalized
	require.Len(t, interviews.saved, 1)
	assert.Equal(t, "/interview/i1/feedback", out.Redirect)
}

func TestClient_StopDuringRetryDelay(t *testing.T) {
	var c *Client
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) {
			go func() {
				time.Sleep(10 * time.Millisecond)
				c.Stop()
			}()
			return sttFail(0)
		},
	}
	c = New(remote, nil, nil, Config{}, WithRetryDelay(time.Hour), WithLogger(testLogger()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Start(context.Background())
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not interrupt the retry delay")
	}
	assert.Equal(t, 1, remote.sttCalls)
	assert.Empty(t, remote.responses)
}

func TestClient_StartFailureReturnsToInactive(t *testing.T) {
	remote := &fakeRemote{
		startFn: func(interviewapi.StartRequest) (*interviewapi.StartResponse, error) {
			return nil, &interviewapi.StatusError{StatusCode: 500, Body: "Failed to start interview: boom"}
		},
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	obs := &recordingObserver{}
	c := New(remote, interviews, feedback, Config{User: testUser, InterviewID: "i1"}, WithObserver(obs), WithLogger(testLogger()))

	out, err := c.Start(context.Background())

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.Equal(t, Inactive, c.Status())
	assert.Equal(t, "Failed to start interview: boom", c.Err())
	assert.Equal(t, []Status{Connecting, Inactive}, obs.statuses)
	assert.Empty(t, interviews.saved)
	assert.Empty(t, feedback.calls)
}

func TestClient_RespondFailureAbortsAndAllowsRetry(t *testing.T) {
	fail := true
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("answer") },
		respondFn: func(int, string) (*interviewapi.RespondResponse, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return completed("Bye")
		},
	}
	c := New(remote, nil, nil, Config{}, WithRetryDelay(0), WithLogger(testLogger()))

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, Inactive, c.Status())
	assert.Equal(t, "connection refused", c.Err())

	fail = false
	out, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Err())
	assert.Equal(t, []models.Message{assistantMsg("Hi"), userMsg("answer"), assistantMsg("Bye")}, out.Messages)
}

func TestClient_StopWinsOverInFlightFailure(t *testing.T) {
	var c *Client
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("answer") },
		respondFn: func(int, string) (*interviewapi.RespondResponse, error) {
			c.Stop()
			return nil, errors.New("connection reset")
		},
	}
	c = New(remote, nil, nil, Config{}, WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Finished, c.Status())
	assert.Empty(t, c.Err())
	assert.Equal(t, RedirectHome, out.Redirect)
}

func TestClient_GenerateFlowResetsWithoutPersisting(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("done") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Card ready") },
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	obs := &recordingObserver{}
	c := New(remote, interviews, feedback, Config{User: testUser, Flow: FlowGenerate}, WithRetryDelay(0), WithObserver(obs), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RedirectHome, out.Redirect)
	assert.Equal(t, Inactive, c.Status())
	assert.Equal(t, []Status{Connecting, Active, Finished, Inactive}, obs.statuses)
	assert.Empty(t, interviews.created)
	assert.Empty(t, interviews.saved)
	assert.Empty(t, feedback.calls)
}

func TestClient_CreatesInterviewWhenMissing(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("done") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	c := New(remote, interviews, feedback, Config{User: testUser, Questions: []string{"Q1"}, FeedbackID: "f-old"},
		WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	require.Len(t, interviews.created, 1)
	assert.Equal(t, "u1", interviews.created[0].UserID)
	assert.Equal(t, models.InterviewTypeCustom, interviews.created[0].Type)
	assert.Equal(t, []string{"Q1"}, interviews.created[0].Questions)
	assert.Equal(t, "i-new", c.InterviewID())

	require.Len(t, feedback.calls, 1)
	assert.Equal(t, "f-old", feedback.calls[0].FeedbackID)
	assert.Equal(t, "f-old", out.FeedbackID)
	assert.Equal(t, "/interview/i-new/feedback", out.Redirect)
}

func TestClient_UnlinkedWhenCreateFails(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("done") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	interviews := &fakeInterviews{createErr: errors.New("mongo down")}
	feedback := &fakeFeedback{}
	c := New(remote, interviews, feedback, Config{User: testUser}, WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Finished, c.Status())
	assert.Empty(t, interviews.saved)
	assert.Empty(t, feedback.calls)
	assert.Equal(t, RedirectHome, out.Redirect)
}

func TestClient_AnonymousSessionIsNotPersisted(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("done") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	interviews := &fakeInterviews{}
	feedback := &fakeFeedback{}
	c := New(remote, interviews, feedback, Config{InterviewID: "i1"}, WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Empty(t, interviews.created)
	assert.Empty(t, interviews.saved)
	assert.Empty(t, feedback.calls)
	assert.Equal(t, RedirectHome, out.Redirect)
}

func TestClient_FeedbackFailureRedirectsHome(t *testing.T) {
	remote := &fakeRemote{
		transcribeFn: func(int) (*interviewapi.STTResponse, error) { return sttOK("done") },
		respondFn:    func(int, string) (*interviewapi.RespondResponse, error) { return completed("Bye") },
	}
	interviews := &fakeInterviews{}
	c := New(remote, interviews, &fakeFeedback{err: errors.New("model quota")}, Config{User: testUser, InterviewID: "i1"},
		WithRetryDelay(0), WithLogger(testLogger()))

	out, err := c.Start(context.Background())
	require.NoError(t, err)

	assert.Len(t, interviews.saved, 1)
	assert.Empty(t, out.FeedbackID)
	assert.Equal(t, RedirectHome, out.Redirect)
}

func TestClient_SecondStartWhileRunningIsRejected(t *testing.T) {
	release := make(chan struct{})
	connecting := make(chan struct{}, 1)
	remote := &fakeRemote{
		startFn: func(interviewapi.StartRequest) (*interviewapi.StartResponse, error) {
			<-release
			return &interviewapi.StartResponse{SessionID: "s1", Message: "Hi"}, nil
		},
	}
	obs := &recordingObserver{onStatus: func(s Status) {
		if s == Connecting {
			connecting <- struct{}{}
		}
	}}
	c := New(remote, nil, nil, Config{}, WithObserver(obs), WithLogger(testLogger()))

	done := make(chan *Outcome, 1)
	go func() {
		out, err := c.Start(context.Background())
		assert.NoError(t, err)
		done <- out
	}()

	<-connecting
	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionRunning)

	c.Stop()
	close(release)

	out := <-done
	assert.Equal(t, Finished, c.Status())
	// the greeting still arrived after Stop, but the loop never ran
	assert.Equal(t, []models.Message{assistantMsg("Hi")}, out.Messages)
	assert.Equal(t, 0, remote.sttCalls)
}

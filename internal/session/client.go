package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultRetryDelay  = 800 * time.Millisecond
	DefaultSTTAttempts = 3

	ManualPrompt = "Type your response (mic unavailable):"

	RedirectHome = "/"
)

// Flow selects what happens once the conversation finishes.
type Flow string

const (
	FlowInterview Flow = "interview"
	// FlowGenerate is the one-shot card generation call: nothing is
	// persisted and the client returns to Inactive.
	FlowGenerate Flow = "generate"
)

type Config struct {
	User        *models.User
	InterviewID string
	FeedbackID  string
	Flow        Flow

	Role          string
	Level         string
	InterviewType string
	Techstack     []string
	Questions     []string
}

// Outcome is what the presentation layer needs after a session ends.
type Outcome struct {
	SessionID   string
	InterviewID string
	FeedbackID  string
	Redirect    string
	Messages    []models.Message
}

type Option func(*Client)

func WithRetryDelay(d time.Duration) Option { return func(c *Client) { c.retryDelay = d } }
func WithSTTAttempts(n int) Option          { return func(c *Client) { c.attempts = n } }
func WithSpeaker(s Speaker) Option          { return func(c *Client) { c.speaker = s } }
func WithPrompter(p Prompter) Option        { return func(c *Client) { c.prompter = p } }
func WithObserver(o Observer) Option        { return func(c *Client) { c.observer = o } }
func WithLogger(l *logrus.Entry) Option     { return func(c *Client) { c.log = l } }

// Client drives one interview conversation at a time against the
// interviewer service. Start blocks for the whole conversation; Stop, Status,
// Messages and Err are safe to call from other goroutines.
type Client struct {
	remote     Remote
	interviews Interviews // optional
	feedback   Feedbacks  // optional
	cfg        Config

	retryDelay time.Duration
	attempts   int
	speaker    Speaker
	prompter   Prompter
	observer   Observer
	log        *logrus.Entry
	now        func() time.Time

	mu          sync.Mutex
	status      Status
	stop        *StopToken
	transcript  *Transcript
	sessionID   string
	interviewID string
	activeAt    time.Time
	errMsg      string
}

func New(remote Remote, interviews Interviews, feedback Feedbacks, cfg Config, opts ...Option) *Client {
	if cfg.Flow == "" {
		cfg.Flow = FlowInterview
	}
	c := &Client{
		remote:      remote,
		interviews:  interviews,
		feedback:    feedback,
		cfg:         cfg,
		retryDelay:  DefaultRetryDelay,
		attempts:    DefaultSTTAttempts,
		observer:    nopObserver{},
		log:         logrus.NewEntry(logrus.StandardLogger()),
		now:         time.Now,
		transcript:  &Transcript{},
		interviewID: cfg.InterviewID,
	}
	for _, o := range opts {
		o(c)
	}
	if c.attempts <= 0 {
		c.attempts = DefaultSTTAttempts
	}
	return c
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a snapshot of the current conversation.
func (c *Client) Messages() []models.Message {
	c.mu.Lock()
	tr := c.transcript
	c.mu.Unlock()
	return tr.Snapshot()
}

// Err is the last human-readable failure, empty when none.
func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) InterviewID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interviewID
}

// Stop ends the conversation at the next step boundary. A call already in
// flight is not cancelled; a reply it brings back is still recorded.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		c.stop.Stop()
	}
	changed := false
	if c.status.Running() {
		c.status = Finished
		changed = true
	}
	c.mu.Unlock()

	if changed {
		c.observer.OnStatus(Finished)
	}
}

// Start runs the conversation to completion and then persists it and
// requests feedback. It returns an error only when the interviewer service
// could not be reached; the client is then Inactive and Err is set.
func (c *Client) Start(ctx context.Context) (*Outcome, error) {
	stop, err := c.begin()
	if err != nil {
		return nil, err
	}

	c.ensureInterview(ctx)
	if stop.Stopped() {
		return c.finish(ctx)
	}

	req := interviewapi.StartRequest{
		Role:      c.cfg.Role,
		Level:     c.cfg.Level,
		Techstack: c.cfg.Techstack,
		Type:      c.cfg.InterviewType,
		Questions: c.cfg.Questions,
	}
	started, err := c.remote.StartInterview(ctx, req)
	if err != nil {
		return c.fail(ctx, err)
	}

	c.mu.Lock()
	c.sessionID = started.SessionID
	c.mu.Unlock()
	c.log = c.log.WithField("session_id", started.SessionID)

	c.say(ctx, started.Message)

	if !c.activate() {
		return c.finish(ctx)
	}

	if err := c.loop(ctx, stop, started.SessionID); err != nil {
		return c.fail(ctx, err)
	}
	return c.finish(ctx)
}

func (c *Client) begin() (*StopToken, error) {
	c.mu.Lock()
	if c.status.Running() {
		c.mu.Unlock()
		return nil, ErrSessionRunning
	}
	if err := checkTransition(c.status, Connecting); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	stop := NewStopToken()
	c.stop = stop
	c.status = Connecting
	c.transcript = &Transcript{}
	c.sessionID = ""
	c.errMsg = ""
	c.activeAt = time.Time{}
	c.mu.Unlock()

	c.observer.OnStatus(Connecting)
	return stop, nil
}

// activate moves Connecting -> Active unless Stop got there first.
func (c *Client) activate() bool {
	c.mu.Lock()
	if c.stop.Stopped() || c.status != Connecting {
		c.mu.Unlock()
		return false
	}
	c.status = Active
	c.activeAt = c.now()
	c.mu.Unlock()

	c.observer.OnStatus(Active)
	return true
}

func (c *Client) loop(ctx context.Context, stop *StopToken, sessionID string) error {
	for {
		if stop.Stopped() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		input, ok := c.listen(ctx, stop)
		if stop.Stopped() {
			return nil
		}
		if !ok {
			input = c.askManually(ctx)
			if stop.Stopped() {
				return nil
			}
			if input == "" {
				continue
			}
		}

		c.record(models.RoleUser, input)
		if stop.Stopped() {
			return nil
		}

		resp, err := c.remote.Respond(ctx, sessionID, input)
		if err != nil {
			if stop.Stopped() {
				return nil
			}
			return err
		}

		c.say(ctx, resp.Message)
		if resp.Completed() {
			return nil
		}
	}
}

// listen polls speech capture up to c.attempts times, pausing after every
// unsuccessful attempt.
func (c *Client) listen(ctx context.Context, stop *StopToken) (string, bool) {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		res, err := c.remote.Transcribe(ctx)
		switch {
		case err != nil:
			c.log.WithError(err).WithField("attempt", attempt).Warn("stt attempt failed")
		case res.OK():
			return res.Transcription, true
		default:
			c.log.WithFields(logrus.Fields{"attempt": attempt, "stt_message": res.Message}).Debug("no transcription")
		}

		if !c.pause(ctx, stop) {
			return "", false
		}
	}
	return "", false
}

func (c *Client) pause(ctx context.Context, stop *StopToken) bool {
	if c.retryDelay <= 0 {
		return !stop.Stopped() && ctx.Err() == nil
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return !stop.Stopped()
	case <-stop.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Client) askManually(ctx context.Context) string {
	if c.prompter == nil {
		return ""
	}
	answer, err := c.prompter.Prompt(ctx, ManualPrompt)
	if err != nil {
		c.log.WithError(err).Warn("manual prompt failed")
		return ""
	}
	return strings.TrimSpace(answer)
}

func (c *Client) record(role models.Role, content string) {
	m := models.Message{Role: role, Content: content}
	c.mu.Lock()
	tr := c.transcript
	c.mu.Unlock()
	tr.Append(m)
	c.observer.OnMessage(m)
}

// say records an assistant message and speaks it best-effort.
func (c *Client) say(ctx context.Context, text string) {
	c.record(models.RoleAssistant, text)
	if c.speaker == nil {
		return
	}
	if err := c.speaker.Speak(ctx, text); err != nil {
		c.log.WithError(err).Warn("speech synthesis failed")
	}
}

func (c *Client) ensureInterview(ctx context.Context) {
	if c.cfg.Flow == FlowGenerate || c.interviews == nil || c.cfg.User == nil || c.InterviewID() != "" {
		return
	}
	id, err := c.interviews.CreateDocument(ctx, services.CreateInterviewParams{
		UserID:    c.cfg.User.ID,
		Role:      c.cfg.Role,
		Level:     c.cfg.Level,
		Type:      models.InterviewTypeCustom,
		Techstack: c.cfg.Techstack,
		Questions: c.cfg.Questions,
	})
	if err != nil {
		c.log.WithError(err).Warn("could not create interview document, continuing unlinked")
		return
	}
	c.mu.Lock()
	c.interviewID = id
	c.mu.Unlock()
}

// fail returns the client to Inactive after a transport failure. A Stop
// that raced the failure wins and the session finishes normally.
func (c *Client) fail(ctx context.Context, err error) (*Outcome, error) {
	c.mu.Lock()
	if c.stop.Stopped() {
		c.mu.Unlock()
		return c.finish(ctx)
	}
	changed := c.status.Running()
	if changed {
		c.status = Inactive
	}
	c.errMsg = utils.Message(err, "Failed to start interview")
	c.mu.Unlock()

	if changed {
		c.observer.OnStatus(Inactive)
	}
	c.log.WithError(err).Error("interview session failed")
	return nil, utils.E(utils.CodeUnavailable, "Client.Start", "interview service unreachable", err)
}

// finish moves to Finished (if Stop has not already) and runs completion.
func (c *Client) finish(ctx context.Context) (*Outcome, error) {
	c.mu.Lock()
	changed := false
	if c.status != Finished && CanTransition(c.status, Finished) {
		c.status = Finished
		changed = true
	}
	out := &Outcome{
		SessionID:   c.sessionID,
		InterviewID: c.interviewID,
		Messages:    c.transcript.Snapshot(),
		Redirect:    RedirectHome,
	}
	activeAt := c.activeAt
	c.mu.Unlock()

	if changed {
		c.observer.OnStatus(Finished)
	}

	if c.cfg.Flow == FlowGenerate {
		c.reset()
		return out, nil
	}

	if out.InterviewID == "" || c.cfg.User == nil {
		c.log.Info("session not linked to an interview, skipping persistence")
		return out, nil
	}
	if len(out.Messages) == 0 {
		c.log.Info("nothing was said, skipping persistence")
		return out, nil
	}

	c.persist(ctx, out, activeAt)

	if c.feedback == nil {
		return out, nil
	}
	id, err := c.feedback.Create(ctx, services.CreateFeedbackParams{
		InterviewID: out.InterviewID,
		UserID:      c.cfg.User.ID,
		Transcript:  out.Messages,
		FeedbackID:  c.cfg.FeedbackID,
	})
	if err != nil || id == "" {
		c.log.WithError(err).Error("error saving feedback")
		return out, nil
	}
	out.FeedbackID = id
	out.Redirect = "/interview/" + out.InterviewID + "/feedback"
	return out, nil
}

func (c *Client) persist(ctx context.Context, out *Outcome, activeAt time.Time) {
	if c.interviews == nil {
		return
	}
	var duration *float64
	if !activeAt.IsZero() {
		m := c.now().Sub(activeAt).Minutes()
		m = float64(int64(m*100+0.5)) / 100
		duration = &m
	}
	err := c.interviews.SaveTranscript(ctx, services.SaveTranscriptParams{
		InterviewID:     out.InterviewID,
		UserID:          c.cfg.User.ID,
		Transcript:      out.Messages,
		VoiceBased:      true,
		DurationMinutes: duration,
	})
	if err != nil {
		c.log.WithError(err).WithField("interview_id", out.InterviewID).Error("failed to save transcript")
	}
}

func (c *Client) reset() {
	c.mu.Lock()
	changed := c.status == Finished
	if changed {
		c.status = Inactive
	}
	c.mu.Unlock()
	if changed {
		c.observer.OnStatus(Inactive)
	}
}

package interviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:5000"

// StatusError is returned for non-2xx answers. Its message is the response
// body when there is one, so it can be shown to the user as is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Request failed: %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// STT requests block while the candidate speaks
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartInterview opens a session. When req carries no context at all the
// request is sent without a body.
func (c *Client) StartInterview(ctx context.Context, req StartRequest) (*StartResponse, error) {
	var body any
	if !req.IsEmpty() {
		body = req
	}
	var out StartResponse
	if err := c.do(ctx, http.MethodPost, "/api/start-interview", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Respond(ctx context.Context, sessionID, response string) (*RespondResponse, error) {
	var out RespondResponse
	err := c.do(ctx, http.MethodPost, "/api/respond", RespondRequest{SessionID: sessionID, Response: response}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Transcribe(ctx context.Context) (*STTResponse, error) {
	var out STTResponse
	if err := c.do(ctx, http.MethodGet, "/stt", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopListening asks the server to drop pending audio and transcriptions.
func (c *Client) StopListening(ctx context.Context) (*STTResponse, error) {
	var out STTResponse
	if err := c.do(ctx, http.MethodPost, "/stt/stop", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EndInterview(ctx context.Context, sessionID string) (*EndResponse, error) {
	var out EndResponse
	if err := c.do(ctx, http.MethodPost, "/api/end-interview/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, sessionID string) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/interview-status/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/vapi/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	const maxBody = 1 << 20
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

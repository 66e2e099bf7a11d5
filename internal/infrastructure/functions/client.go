package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

const (
	TranscribePath = "/functions/v1/transcribe-audio"
	GeneratePath   = "/functions/v1/generate-solution"
)

type TranscribeRequest struct {
	Audio string `json:"audio"`
}

type TranscribeResponse struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type GenerateResponse struct {
	Solution string `json:"solution,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client calls the transcription and solution-generation functions of a
// remote `maintrack serve`.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ ports.Transcriber       = (*Client)(nil)
	_ ports.SolutionGenerator = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	var out TranscribeResponse
	if err := c.call(ctx, TranscribePath, TranscribeRequest{Audio: audioBase64}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) GenerateSolution(ctx context.Context, req ports.SolutionRequest) (string, error) {
	var out GenerateResponse
	if err := c.call(ctx, GeneratePath, req, &out); err != nil {
		return "", err
	}
	return out.Solution, nil
}

func (c *Client) call(ctx context.Context, path string, in any, out any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if c.baseURL == "" {
		return ports.ErrUpstreamNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return errs.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ports.ErrUpstreamFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, errorMessage(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ports.ErrUpstreamFailed, err)
	}
	return nil
}

func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ports.ErrUpstreamRateLimited, message)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", ports.ErrUpstreamPaymentRequired, message)
	}
	if status >= http.StatusInternalServerError && strings.Contains(strings.ToLower(message), "not configured") {
		return fmt.Errorf("%w: %s", ports.ErrUpstreamNotConfigured, message)
	}
	return fmt.Errorf("%w: status %d: %s", ports.ErrUpstreamFailed, status, message)
}

func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(string(raw))
}

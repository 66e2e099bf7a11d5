package ai

import (
	"context"
	"errors"
	"strings"
	"sync"

	"google.golang.org/genai"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

const providerGemini = "gemini"

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeminiChat completes prompts with the Gemini API. The client is created on
// first use so a missing key only fails the call, not startup.
type GeminiChat struct {
	cfg GeminiConfig

	once      sync.Once
	client    *genai.Client
	clientErr error
}

var _ ports.ChatCompleter = (*GeminiChat)(nil)

func NewGeminiChat(cfg GeminiConfig) *GeminiChat {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &GeminiChat{cfg: cfg}
}

func (g *GeminiChat) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", notConfigured(providerGemini)
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return "", upstreamError(providerGemini, 0, err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: userPrompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	)
	if err != nil {
		return "", mapGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", emptyReply(providerGemini)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			out.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", emptyReply(providerGemini)
	}
	return out.String(), nil
}

func (g *GeminiChat) getClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:  strings.TrimSpace(g.cfg.APIKey),
			Backend: genai.BackendGeminiAPI,
		}
		if baseURL := strings.TrimSpace(g.cfg.BaseURL); baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		}
		g.client, g.clientErr = genai.NewClient(ctx, cfg)
	})
	return g.client, g.clientErr
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return upstreamError(providerGemini, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return upstreamError(providerGemini, apiErrPtr.Code, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return upstreamError(providerGemini, 0, err)
}

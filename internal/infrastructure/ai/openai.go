package ai

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

const providerOpenAI = "openai"

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIChat completes prompts through the chat completions endpoint.
type OpenAIChat struct {
	client     openai.Client
	model      string
	configured bool
}

var _ ports.ChatCompleter = (*OpenAIChat)(nil)

func NewOpenAIChat(cfg OpenAIConfig) *OpenAIChat {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIChat{
		client:     newOpenAIClient(cfg),
		model:      model,
		configured: strings.TrimSpace(cfg.APIKey) != "",
	}
}

func (c *OpenAIChat) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if !c.configured {
		return "", notConfigured(providerOpenAI)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", emptyReply(providerOpenAI)
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAITranscriber sends recordings to the hosted speech-to-text model.
type OpenAITranscriber struct {
	client     openai.Client
	model      string
	configured bool
}

var _ ports.SpeechToText = (*OpenAITranscriber)(nil)

func NewOpenAITranscriber(cfg OpenAIConfig) *OpenAITranscriber {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAITranscriber{
		client:     newOpenAIClient(cfg),
		model:      model,
		configured: strings.TrimSpace(cfg.APIKey) != "",
	}
}

func (t *OpenAITranscriber) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if !t.configured {
		return "", notConfigured(providerOpenAI)
	}

	filename, contentType := recordingName(audio)
	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filename, contentType),
		Model: openai.AudioModel(t.model),
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	return resp.Text, nil
}

// recordingName picks the upload name and content type from the container
// signature; browser clients send webm, the intake pipeline sends wav.
func recordingName(audio []byte) (string, string) {
	if len(audio) >= 12 && string(audio[0:4]) == "RIFF" && string(audio[8:12]) == "WAVE" {
		return "recording.wav", "audio/wav"
	}
	return "recording.webm", "audio/webm"
}

func newOpenAIClient(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return upstreamError(providerOpenAI, apiErr.StatusCode, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return upstreamError(providerOpenAI, 0, err)
}

package assist

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"maintrack/internal/ports"
)

type fakeSpeech struct {
	got  []byte
	text string
	err  error
}

func (f *fakeSpeech) TranscribeAudio(_ context.Context, audio []byte) (string, error) {
	f.got = audio
	return f.text, f.err
}

type fakeChat struct {
	system string
	user   string
	reply  string
	err    error
	calls  int
}

func (f *fakeChat) Complete(_ context.Context, systemPrompt string, userPrompt string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.reply, f.err
}

func TestTranscribeDecodesAndForwards(t *testing.T) {
	speech := &fakeSpeech{text: "  motor faz ruído anómalo \n"}
	svc := NewService(speech, nil)

	got, err := svc.Transcribe(context.Background(), base64.StdEncoding.EncodeToString([]byte("pcm-bytes")))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "motor faz ruído anómalo" {
		t.Fatalf("Transcribe() = %q", got)
	}
	if string(speech.got) != "pcm-bytes" {
		t.Fatalf("forwarded audio = %q", speech.got)
	}
}

func TestTranscribeRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeSpeech{text: "x"}, nil)

	if _, err := svc.Transcribe(context.Background(), " "); !errors.Is(err, ErrAudioRequired) {
		t.Fatalf("empty audio error = %v", err)
	}
	if _, err := svc.Transcribe(context.Background(), "%%%not-base64"); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("invalid audio error = %v", err)
	}
}

func TestTranscribeFailureModes(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte("pcm"))

	if _, err := NewService(nil, nil).Transcribe(context.Background(), audio); !errors.Is(err, ports.ErrUpstreamNotConfigured) {
		t.Fatalf("nil provider error = %v", err)
	}
	if _, err := NewService(&fakeSpeech{text: "   "}, nil).Transcribe(context.Background(), audio); !errors.Is(err, ports.ErrUpstreamFailed) {
		t.Fatalf("blank result error = %v", err)
	}
	upstream := &fakeSpeech{err: ports.ErrUpstreamRateLimited}
	if _, err := NewService(upstream, nil).Transcribe(context.Background(), audio); !errors.Is(err, ports.ErrUpstreamRateLimited) {
		t.Fatalf("upstream error = %v", err)
	}
}

func TestGenerateSolutionPrompt(t *testing.T) {
	chat := &fakeChat{reply: "1. Diagnosis ..."}
	svc := NewService(nil, chat)

	got, err := svc.GenerateSolution(context.Background(), ports.SolutionRequest{
		ProblemDescription: "motor faz ruído anómalo",
		MachineName:        "Torno CNC (TX-200)",
		MachineLocation:    "Nave A",
	})
	if err != nil {
		t.Fatalf("GenerateSolution() error = %v", err)
	}
	if got != "1. Diagnosis ..." {
		t.Fatalf("GenerateSolution() = %q", got)
	}
	if chat.system != SystemPrompt {
		t.Fatalf("system prompt not used")
	}
	for _, section := range []string{"Diagnosis", "Probable Cause", "Recommended Solution", "Prevention", "Required Parts"} {
		if !strings.Contains(chat.system, section) {
			t.Fatalf("system prompt missing %q", section)
		}
	}
	want := "Machine: Torno CNC (TX-200)\nLocation: Nave A\nProblem: motor faz ruído anómalo"
	if chat.user != want {
		t.Fatalf("user prompt = %q, want %q", chat.user, want)
	}
}

func TestGenerateSolutionWithoutMachineContext(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	if _, err := NewService(nil, chat).GenerateSolution(context.Background(), ports.SolutionRequest{ProblemDescription: "fuga"}); err != nil {
		t.Fatalf("GenerateSolution() error = %v", err)
	}
	if chat.user != "Problem: fuga" {
		t.Fatalf("user prompt = %q", chat.user)
	}
}

func TestGenerateSolutionErrors(t *testing.T) {
	chat := &fakeChat{}
	svc := NewService(nil, chat)
	if _, err := svc.GenerateSolution(context.Background(), ports.SolutionRequest{}); !errors.Is(err, ErrProblemRequired) {
		t.Fatalf("empty problem error = %v", err)
	}
	if chat.calls != 0 {
		t.Fatalf("chat calls = %d, want 0", chat.calls)
	}

	if _, err := NewService(nil, nil).GenerateSolution(context.Background(), ports.SolutionRequest{ProblemDescription: "x"}); !errors.Is(err, ports.ErrUpstreamNotConfigured) {
		t.Fatalf("nil chat error = %v", err)
	}

	paying := &fakeChat{err: ports.ErrUpstreamPaymentRequired}
	if _, err := NewService(nil, paying).GenerateSolution(context.Background(), ports.SolutionRequest{ProblemDescription: "x"}); !errors.Is(err, ports.ErrUpstreamPaymentRequired) {
		t.Fatalf("payment error = %v", err)
	}
	if paying.calls != 1 {
		t.Fatalf("calls = %d, want exactly one attempt", paying.calls)
	}
}

func TestGenerateSolutionBlankReplyFails(t *testing.T) {
	chat := &fakeChat{reply: " \n "}
	if _, err := NewService(nil, chat).GenerateSolution(context.Background(), ports.SolutionRequest{ProblemDescription: "x"}); !errors.Is(err, ports.ErrUpstreamFailed) {
		t.Fatalf("blank reply error = %v, want ErrUpstreamFailed", err)
	}
}

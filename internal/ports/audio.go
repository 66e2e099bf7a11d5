package ports

import (
	"context"
	"errors"
	"time"
)

var ErrDeviceBusy = errors.New("audio device already in use")

type CaptureConfig struct {
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
	ChunkInterval    time.Duration
}

// AudioDevice hands out exclusive capture streams.
type AudioDevice interface {
	Open(ctx context.Context, cfg CaptureConfig) (CaptureStream, error)
}

// CaptureStream delivers one chunk per collection interval until Close.
// Chunks is closed after Close returns; Err reports a capture failure, if any.
type CaptureStream interface {
	Chunks() <-chan []byte
	Close() error
	Err() error
}

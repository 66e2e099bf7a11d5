package ports

import "context"

// RecordingStore keeps raw intake recordings and returns a reference usable as audio_url.
type RecordingStore interface {
	SaveRecording(ctx context.Context, key string, audio []byte, contentType string) (string, error)
}

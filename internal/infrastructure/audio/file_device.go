package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

// FileDevice plays a file as the microphone. Each collection interval emits
// sample_rate * channels * 2 bytes (16-bit PCM) until EOF or Close.
type FileDevice struct {
	path string

	mu     sync.Mutex
	inUse  bool
	ticker func(time.Duration) (<-chan time.Time, func())
}

var _ ports.AudioDevice = (*FileDevice)(nil)

func NewFileDevice(path string) *FileDevice {
	return &FileDevice{
		path: strings.TrimSpace(path),
		ticker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

func (d *FileDevice) Open(ctx context.Context, cfg ports.CaptureConfig) (ports.CaptureStream, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.ChunkInterval <= 0 {
		return nil, fmt.Errorf("invalid capture config %+v", cfg)
	}
	if d.path == "" {
		return nil, errors.New("audio input file is not configured")
	}

	d.mu.Lock()
	if d.inUse {
		d.mu.Unlock()
		return nil, ports.ErrDeviceBusy
	}
	d.inUse = true
	d.mu.Unlock()

	file, err := os.Open(d.path)
	if err != nil {
		d.release()
		return nil, errs.Wrapf(err, "open audio input %q", d.path)
	}

	chunkBytes := int(int64(cfg.SampleRate) * int64(cfg.Channels) * 2 * int64(cfg.ChunkInterval) / int64(time.Second))
	if chunkBytes <= 0 {
		chunkBytes = 2
	}

	tick, stopTick := d.ticker(cfg.ChunkInterval)
	stream := &fileStream{
		file:     file,
		chunks:   make(chan []byte, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		release:  d.release,
		stopTick: stopTick,
	}
	go stream.run(tick, chunkBytes)
	return stream, nil
}

func (d *FileDevice) release() {
	d.mu.Lock()
	d.inUse = false
	d.mu.Unlock()
}

type fileStream struct {
	file     *os.File
	chunks   chan []byte
	stop     chan struct{}
	done     chan struct{}
	release  func()
	stopTick func()

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (s *fileStream) Chunks() <-chan []byte { return s.chunks }

func (s *fileStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops capture and releases the device. Chunks is closed before Close returns.
func (s *fileStream) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.stopTick()
		closeErr = s.file.Close()
		s.release()
	})
	return closeErr
}

func (s *fileStream) run(tick <-chan time.Time, chunkBytes int) {
	defer close(s.done)
	defer close(s.chunks)

	for {
		select {
		case <-s.stop:
			return
		case <-tick:
		}

		buf := make([]byte, chunkBytes)
		n, err := io.ReadFull(s.file, buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.stop:
				return
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// End of input: keep the stream open silently until Close, like a
			// microphone that stopped picking up sound.
			<-s.stop
			return
		}
		if err != nil {
			s.mu.Lock()
			s.err = errs.Wrap(err, "read audio input")
			s.mu.Unlock()
			<-s.stop
			return
		}
	}
}

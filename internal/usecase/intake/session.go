package intake

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	domaincatalog "maintrack/internal/domain/catalog"
	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/ports"
)

// Catalog is the read side of the reference entities offered by the pickers.
type Catalog interface {
	ActiveMachines(ctx context.Context) ([]domaincatalog.Machine, error)
	ActiveTechnicians(ctx context.Context) ([]domaincatalog.Technician, error)
}

// Store commits a validated draft.
type Store interface {
	Create(ctx context.Context, draft intervention.Draft) (intervention.Intervention, error)
}

type Dependencies struct {
	Device      ports.AudioDevice
	Transcriber ports.Transcriber
	Generator   ports.SolutionGenerator
	Catalog     Catalog
	Store       Store
	// Recordings is optional; when set the raw capture is uploaded and its
	// URL becomes the draft audio_url.
	Recordings ports.RecordingStore
	Capture    ports.CaptureConfig
}

// Snapshot is a consistent copy of the session state for rendering.
type Snapshot struct {
	Stage          domainintake.Stage
	Draft          intervention.Draft
	MachineName    string
	TechnicianName string
	CapturedChunks int
	CapturedBytes  int
	LastError      error
	Message        string
}

// Session is one intake form: a single draft moving through
// idle -> recording -> transcribing -> generating -> complete. Any stage
// failure returns it to idle and keeps the fields populated by earlier stages.
type Session struct {
	deps Dependencies

	mu         sync.Mutex
	stage      domainintake.Stage
	draft      intervention.Draft
	machine    *domaincatalog.Machine
	technician *domaincatalog.Technician
	stream     ports.CaptureStream
	collected  chan struct{}
	chunks     [][]byte
	captured   int
	lastErr    error
	message    string
	observer   func(Snapshot)

	newID func() string
}

func NewSession(deps Dependencies) (*Session, error) {
	switch {
	case deps.Device == nil:
		return nil, errors.New("audio device is required")
	case deps.Transcriber == nil:
		return nil, errors.New("transcriber is required")
	case deps.Generator == nil:
		return nil, errors.New("solution generator is required")
	case deps.Catalog == nil:
		return nil, errors.New("catalog is required")
	case deps.Store == nil:
		return nil, errors.New("intervention store is required")
	}
	return &Session{
		deps:  deps,
		stage: domainintake.StageIdle,
		newID: uuid.NewString,
	}, nil
}

// Observe registers fn to receive a snapshot after every state change. Passing
// nil stops notifications.
func (s *Session) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Stage() domainintake.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// SetDescription edits the problem description. It is accepted in every stage.
func (s *Session) SetDescription(text string) {
	s.update(func() {
		s.draft.ProblemDescription = text
	})
}

// Reset discards the draft. It is refused while a stage is running.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.stage.Busy() {
		s.mu.Unlock()
		return domainintake.ErrSessionBusy
	}
	s.draft = intervention.Draft{}
	s.machine = nil
	s.technician = nil
	s.chunks = nil
	s.captured = 0
	s.lastErr = nil
	s.message = ""
	s.stage = domainintake.StageIdle
	snapshot, observer := s.snapshotLocked(), s.observer
	s.mu.Unlock()

	emit(observer, snapshot)
	return nil
}

// Close releases the audio device if a recording is still open and stops
// notifications. In-flight upstream calls are left to finish.
func (s *Session) Close() error {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.observer = nil
	if s.stage == domainintake.StageRecording {
		s.stage = domainintake.StageIdle
	}
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Close()
}

// update applies fn under the lock and notifies the observer.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	snapshot, observer := s.snapshotLocked(), s.observer
	s.mu.Unlock()

	emit(observer, snapshot)
}

// fail records err, returns the session to idle and notifies.
func (s *Session) fail(err error) error {
	s.update(func() {
		s.stage = domainintake.StageIdle
		s.lastErr = err
		s.message = domainintake.UserMessage(err)
	})
	return err
}

func (s *Session) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Stage:          s.stage,
		Draft:          s.draft,
		CapturedChunks: len(s.chunks),
		CapturedBytes:  s.captured,
		LastError:      s.lastErr,
		Message:        s.message,
	}
	if s.machine != nil {
		snapshot.MachineName = s.machine.DisplayName()
	}
	if s.technician != nil {
		snapshot.TechnicianName = s.technician.Name
	}
	return snapshot
}

func emit(observer func(Snapshot), snapshot Snapshot) {
	if observer != nil {
		observer(snapshot)
	}
}

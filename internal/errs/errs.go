package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Wrap prefixes err with msg. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a formatted prefix.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAny reports whether err matches any of targets.
func IsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// StackError carries the goroutine stack captured where a store or upstream
// failure first entered maintrack.
type StackError struct {
	err   error
	stack []byte
}

// WithStack records the current stack on err unless something in its chain
// already carries one.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := stackOf(err); ok {
		return err
	}
	return &StackError{err: err, stack: debug.Stack()}
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }
func (e *StackError) Stack() []byte { return e.stack }

func stackOf(err error) ([]byte, bool) {
	var se *StackError
	if errors.As(err, &se) {
		return se.stack, true
	}
	return nil, false
}

// ErrorChainStrings lists err and everything it wraps, outermost first.
func ErrorChainStrings(err error) []string {
	var out []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}

// Loggable renders err as a slog group: slog.Any("err", errs.Loggable(err)).
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

type loggable struct{ err error }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.String("type", fmt.Sprintf("%T", l.err)),
	}
	if chain := ErrorChainStrings(l.err); len(chain) > 1 {
		attrs = append(attrs, slog.Any("chain", chain))
	}
	if stack, ok := stackOf(l.err); ok {
		attrs = append(attrs, slog.String("stack", string(stack)))
	}
	return slog.GroupValue(attrs...)
}

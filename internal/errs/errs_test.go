package errs

import (
	"errors"
	"log/slog"
	"testing"
)

var errRoot = errors.New("store unavailable")

func TestWrapPreservesChain(t *testing.T) {
	err := Wrapf(Wrap(errRoot, "patch intervention"), "transition %s", "abc")
	if !errors.Is(err, errRoot) {
		t.Fatalf("errors.Is(err, errRoot) = false")
	}
	if err.Error() != "transition abc: patch intervention: store unavailable" {
		t.Fatalf("Error() = %q", err.Error())
	}

	chain := ErrorChainStrings(err)
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3", len(chain))
	}
	if chain[2] != "store unavailable" {
		t.Fatalf("chain[2] = %q", chain[2])
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Fatalf("Wrap(nil) != nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Fatalf("Wrapf(nil) != nil")
	}
	if WithStack(nil) != nil {
		t.Fatalf("WithStack(nil) != nil")
	}
}

func TestWithStackCapturesOnce(t *testing.T) {
	first := WithStack(errRoot)
	second := WithStack(Wrap(first, "outer"))

	var se *StackError
	if !errors.As(second, &se) {
		t.Fatalf("errors.As(StackError) = false")
	}
	if len(se.Stack()) == 0 {
		t.Fatalf("stack is empty")
	}
	if !errors.Is(second, errRoot) {
		t.Fatalf("errors.Is(second, errRoot) = false")
	}
}

func TestIsAny(t *testing.T) {
	other := errors.New("other")
	if !IsAny(Wrap(errRoot, "x"), other, errRoot) {
		t.Fatalf("IsAny() = false, want true")
	}
	if IsAny(other, errRoot) {
		t.Fatalf("IsAny() = true, want false")
	}
}

func TestLoggableValue(t *testing.T) {
	value := Loggable(Wrap(errRoot, "save")).LogValue()
	if value.Kind() != slog.KindGroup {
		t.Fatalf("kind = %v, want group", value.Kind())
	}

	keys := map[string]bool{}
	for _, attr := range value.Group() {
		keys[attr.Key] = true
	}
	for _, key := range []string{"message", "type", "chain"} {
		if !keys[key] {
			t.Fatalf("missing key %q in %v", key, keys)
		}
	}
}

func TestLoggableSingleErrorWithStack(t *testing.T) {
	value := Loggable(WithStack(errRoot)).LogValue()

	keys := map[string]bool{}
	for _, attr := range value.Group() {
		keys[attr.Key] = true
	}
	if !keys["stack"] {
		t.Fatalf("missing stack in %v", keys)
	}
	if !keys["chain"] {
		// StackError wraps errRoot, so the chain has two entries.
		t.Fatalf("missing chain in %v", keys)
	}

	plain := Loggable(errRoot).LogValue()
	for _, attr := range plain.Group() {
		if attr.Key == "chain" || attr.Key == "stack" {
			t.Fatalf("unexpected key %q for a bare error", attr.Key)
		}
	}
}

package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesAllParts(t *testing.T) {
	err := New(
		"frames",
		CodeExhausted,
		WithMessage("no instance available"),
		WithRemediation("return an instance or raise the allocation ceiling"),
		WithCause(errors.New("allocation ceiling reached")),
	)

	out := err.Error()
	if !strings.Contains(out, "pool=frames") {
		t.Fatalf("expected pool marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=exhausted") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "message=\"no instance available\"") {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, "remediation=\"return an instance or raise the allocation ceiling\"") {
		t.Fatalf("expected remediation guidance in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"allocation ceiling reached\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestEmptyPoolAndCodeFallBack(t *testing.T) {
	err := New("   ", "")
	out := err.Error()
	if !strings.Contains(out, "pool=unknown") {
		t.Fatalf("expected pool fallback, got %s", out)
	}
	if !strings.Contains(out, "code=unknown") {
		t.Fatalf("expected code fallback, got %s", out)
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if got := e.Error(); got != "<nil>" {
		t.Fatalf("expected <nil> string for nil error, got %q", got)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New("frames", CodeFactory, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause through envelope")
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("acquire: %w", New("frames", CodeExhausted))
	if CodeOf(err) != CodeExhausted {
		t.Fatalf("expected exhausted code through wrapping, got %s", CodeOf(err))
	}
	if !IsExhausted(err) {
		t.Fatal("expected IsExhausted to hold through wrapping")
	}
	if IsInvalid(err) || IsClosed(err) {
		t.Fatal("expected other predicates to be false")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(stderrors.New("disk full"), CodeFileWriteFailed, "write log entry").
		WithMetadata("path", "/tmp/x.md")

	got := err.Error()
	for _, want := range []string{"[FILE_WRITE_FAILED]", "write log entry", "path:/tmp/x.md", "caused by: disk full"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeDirectoryCreateFailed, "mkdir")
	wrapped := fmt.Errorf("session: %w", base)

	if !IsCode(wrapped, CodeDirectoryCreateFailed) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if IsCode(wrapped, CodeCaptureFailed) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(stderrors.New("plain"), CodeCaptureFailed) {
		t.Error("plain errors carry no code")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrapf(cause, CodeCaptureFailed, "monitor %d", 2)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if err.Message != "monitor 2" {
		t.Errorf("Message = %q, want %q", err.Message, "monitor 2")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeCaptureFailed, "x"), true},
		{New(CodeFileWriteFailed, "x"), true},
		{New(CodePermissionDenied, "x"), false},
		{New(CodeConfigInvalid, "x"), false},
		{stderrors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestCodeString(t *testing.T) {
	if got := Code(999).String(); got != "UNKNOWN" {
		t.Errorf("Code(999).String() = %q, want UNKNOWN", got)
	}
	if got := CodeNoMonitors.String(); got != "NO_MONITORS" {
		t.Errorf("CodeNoMonitors.String() = %q, want NO_MONITORS", got)
	}
}

package errors

import (
	stdErrors "errors"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrNotFound.WithMessage("Thread not found!")

	if with == ErrNotFound {
		t.Fatal("expected WithMessage to return a copy")
	}
	if with.Message != "Thread not found!" {
		t.Fatalf("unexpected message: %s", with.Message)
	}
	if with.Code != ErrNotFound.Code || with.StatusCode != ErrNotFound.StatusCode {
		t.Fatal("expected code and status to be preserved")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrSelfFollow
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("Reply")
	if err.Message != "Reply not found!" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrNotFound.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeLocationNotFound, http.StatusBadRequest},
		{CodeInvalidCoordinates, http.StatusBadRequest},
		{CodeInvalidCalendar, http.StatusBadRequest},
		{CodeProviderUnavailable, http.StatusInternalServerError},
		{CodeProviderTimeout, http.StatusInternalServerError},
		{CodePersistence, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestCodeOfWrappedError(t *testing.T) {
	base := Wrap(CodeProviderTimeout, "period call timed out", errors.New("context deadline exceeded"))
	wrapped := fmt.Errorf("stage failed: %w", base)

	if got := CodeOf(wrapped); got != CodeProviderTimeout {
		t.Errorf("CodeOf = %s, want %s", got, CodeProviderTimeout)
	}
	if got := MessageOf(wrapped); got != "period call timed out" {
		t.Errorf("MessageOf = %q", got)
	}
}

func TestMessageOfForeignErrorIsGeneric(t *testing.T) {
	err := errors.New("pq: connection refused host=db password=secret")
	if got := MessageOf(err); got != "internal error" {
		t.Errorf("MessageOf leaked foreign error detail: %q", got)
	}
	if got := CodeOf(err); got != CodeInternal {
		t.Errorf("CodeOf = %s, want %s", got, CodeInternal)
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Invalid("bad input"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Wrap(KindInternal, "db down", errors.New("conn refused")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessageHidesInternals(t *testing.T) {
	if got := Message(Invalid("Offer price is required")); got != "Offer price is required" {
		t.Fatalf("client message = %q", got)
	}
	internal := Wrap(KindInternal, "persist offer", errors.New("pq: deadlock"))
	if got := Message(internal); got != "Internal server error" {
		t.Fatalf("internal message leaked: %q", got)
	}
	if got := Message(errors.New("raw")); got != "Internal server error" {
		t.Fatalf("raw error leaked: %q", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("Offer not found.")
	wrapped := fmt.Errorf("handling request: %w", base)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want KindNotFound", KindOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("errors.Is lost the chain")
	}
}

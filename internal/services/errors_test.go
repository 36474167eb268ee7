package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"newsreel/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrSourceUnavailable, "topics", "fetch", "reddit feed", base)

	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	if !strings.Contains(err.Error(), "topics: fetch: reddit feed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestClassifyPromotesDeadline(t *testing.T) {
	wrapped := fmt.Errorf("request: %w", context.DeadlineExceeded)
	err := services.Classify(services.ErrSynthesisFailed, "speech", "synthesize", wrapped)

	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker: %v", err)
	}
	if errors.Is(err, services.ErrSynthesisFailed) {
		t.Fatalf("timeout should replace the stage marker: %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"source", services.Wrap(services.ErrSourceUnavailable, "topics", "fetch", "", errors.New("boom")), "source_unavailable"},
		{"synthesis", services.Wrap(services.ErrSynthesisFailed, "speech", "", "", nil), "synthesis_failed"},
		{"image", services.Wrap(services.ErrImageFetchFailed, "images", "", "", nil), "image_fetch_failed"},
		{"encoding", services.Wrap(services.ErrEncodingFailed, "encoding", "", "", nil), "encoding_failed"},
		{"busy", services.ErrBusy, "busy"},
		{"auth", services.ErrAuthenticationFailed, "authentication_failed"},
		{"timeout", services.Wrap(services.ErrTimeout, "speech", "", "", nil), "timeout"},
		{"plain", errors.New("boom"), "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Kind(tc.err); got != tc.want {
				t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

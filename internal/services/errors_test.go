package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"garden/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "download", "fetch object", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"download", "fetch object", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "succeeded"},
		{"empty", services.Wrap(services.ErrEmptyResult, "filter", "", "no matches", nil), "empty"},
		{"transport", services.Wrap(services.ErrTransport, "annotations", "", "", errors.New("eof")), "transport_failed"},
		{"filesystem", fmt.Errorf("publish: %w", services.Wrap(services.ErrFilesystem, "publish", "copy", "", nil)), "filesystem_failed"},
		{"validation", services.Wrap(services.ErrValidation, "options", "", "", nil), "invalid"},
		{"configuration", services.Wrap(services.ErrConfiguration, "options", "", "", nil), "invalid"},
		{"other", context.Canceled, "failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}

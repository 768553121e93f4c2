package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"garden/internal/objectstore"
	"garden/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Manifest", statusError, "unreadable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Manifest:", "[ERROR] unreadable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Manifest", statusOK, "2 models", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestResultKind(t *testing.T) {
	tests := []struct {
		result preflight.Result
		want   statusKind
	}{
		{preflight.Result{Passed: true}, statusOK},
		{preflight.Result{Passed: true, Warning: true}, statusWarn},
		{preflight.Result{Passed: false}, statusError},
	}
	for _, tt := range tests {
		if got := resultKind(tt.result); got != tt.want {
			t.Fatalf("resultKind(%+v) = %v, want %v", tt.result, got, tt.want)
		}
	}
}

func TestRenderLastRunLine(t *testing.T) {
	if got := renderLastRunLine(nil, false); !strings.Contains(got, "none recorded") {
		t.Fatalf("unexpected line for no run: %q", got)
	}
	run := &objectstore.Run{
		Status:    "transport_failed",
		StartedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Error:     "objaverse: get: 503",
	}
	got := renderLastRunLine(run, false)
	if !strings.Contains(got, "[ERROR] transport_failed") || !strings.Contains(got, "(objaverse: get: 503)") {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestRenderTableFooter(t *testing.T) {
	out := renderTable([]string{"ID", "Size"}, [][]string{{"oak", "1 KiB"}}, []columnAlignment{alignLeft, alignRight}, []string{"1 models"})
	for _, want := range []string{"oak", "1 KiB", "1 models"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

package main

import (
	"testing"
	"time"
)

func TestParseSlackTimestamp(t *testing.T) {
	ts := parseSlackTimestamp("1717315200.000100")
	expected := time.Date(2024, 6, 2, 8, 0, 0, 100000, time.UTC)
	if !ts.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, ts)
	}
	if !parseSlackTimestamp("garbage").IsZero() {
		t.Fatalf("expected zero time for malformed timestamp")
	}
}

func TestThreadTitle(t *testing.T) {
	if got := threadTitle("checkout broken?\nmore detail below"); got != "checkout broken?" {
		t.Fatalf("expected first line, got %q", got)
	}
	long := ""
	for i := 0; i < 30; i++ {
		long += "verylong "
	}
	got := threadTitle(long)
	if len(got) != 83 { // 80 chars plus ellipsis
		t.Fatalf("expected truncated title, got %d chars", len(got))
	}
}

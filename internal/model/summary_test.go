package model

import (
	"testing"
	"time"
)

func TestSplitSummary_TrimsAndDropsEmptyLines(t *testing.T) {
	got := SplitSummary("  first  \n\n second\n   \nthird")
	want := []string{"first", "second", "third"}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSummary_Empty(t *testing.T) {
	if got := SplitSummary(""); len(got) != 0 {
		t.Errorf("SplitSummary(\"\") = %v, want empty", got)
	}
}

func TestJoinSummary_PreservesOrder(t *testing.T) {
	lines := []string{"a", "b", "c"}
	if got := JoinSummary(lines); got != "a\nb\nc" {
		t.Errorf("JoinSummary() = %q, want %q", got, "a\nb\nc")
	}
	back := SplitSummary(JoinSummary(lines))
	for i := range lines {
		if back[i] != lines[i] {
			t.Errorf("back[%d] = %q, want %q", i, back[i], lines[i])
		}
	}
}

func TestSummaryRecord_FormattedDate_UTCMillis(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	rec := &SummaryRecord{Date: time.Date(2026, 3, 4, 9, 5, 6, 789_000_000, jst)}

	if got := rec.FormattedDate(); got != "2026-03-04T00:05:06.789Z" {
		t.Errorf("FormattedDate() = %q, want %q", got, "2026-03-04T00:05:06.789Z")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewNoDraftError()
	if got := err.Error(); got != "[NO_DRAFT] There is no summary to save." {
		t.Errorf("Error() = %q", got)
	}
}

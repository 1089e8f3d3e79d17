package editor

import (
	"testing"
	"time"
)

func TestDebouncerCoalescesMoves(t *testing.T) {
	s := newTestSession(t, 100, threeSegments())
	defer s.Dispose()
	d := NewTrimDebouncer(s, 30*time.Millisecond)

	// A burst of drag moves: preview tracks every event, canonical times
	// stay put until the quiet window elapses.
	for _, v := range [][]float64{{0, 90}, {5, 85}, {10, 80}} {
		if !d.Schedule(v) {
			t.Fatalf("Schedule(%v) = false", v)
		}
	}

	snap := s.Snapshot()
	if !snap.IsDragging {
		t.Error("isDragging = false mid-drag, want true")
	}
	if snap.TrimValues != [2]float64{10, 80} {
		t.Errorf("preview = %v, want last move [10 80]", snap.TrimValues)
	}
	if seg, _ := s.ActiveSegment(); seg.StartTime != 0 || seg.EndTime != 10 {
		t.Errorf("canonical times committed early: [%v, %v]", seg.StartTime, seg.EndTime)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if seg, _ := s.ActiveSegment(); seg.StartTime == 10 && seg.EndTime == 80 {
			if s.Snapshot().IsDragging {
				t.Error("isDragging still set after debounced commit")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("debounced commit never fired")
}

func TestDebouncerFlushCommitsImmediately(t *testing.T) {
	s := newTestSession(t, 100, threeSegments())
	defer s.Dispose()
	d := NewTrimDebouncer(s, time.Hour)

	d.Schedule([]float64{20, 40})
	d.Flush()

	seg, _ := s.ActiveSegment()
	if seg.StartTime != 20 || seg.EndTime != 40 {
		t.Errorf("times = [%v, %v] after flush, want [20, 40]", seg.StartTime, seg.EndTime)
	}
	if d.Pending() {
		t.Error("Pending() = true after flush")
	}

	// A second flush with nothing pending must not re-commit.
	s.SetTrimPreview([]float64{1, 2})
	d.Flush()
	if seg, _ := s.ActiveSegment(); seg.StartTime != 20 {
		t.Errorf("empty flush mutated segment: start = %v", seg.StartTime)
	}
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	s := newTestSession(t, 100, threeSegments())
	defer s.Dispose()
	d := NewTrimDebouncer(s, 20*time.Millisecond)

	d.Schedule([]float64{30, 60})
	d.Cancel()

	time.Sleep(80 * time.Millisecond)
	if seg, _ := s.ActiveSegment(); seg.StartTime != 0 || seg.EndTime != 10 {
		t.Errorf("cancelled commit still applied: [%v, %v]", seg.StartTime, seg.EndTime)
	}
}

func TestDebouncerRejectsMalformedInput(t *testing.T) {
	s := newTestSession(t, 100, threeSegments())
	defer s.Dispose()
	d := NewTrimDebouncer(s, 10*time.Millisecond)

	if d.Schedule([]float64{50}) {
		t.Error("Schedule([50]) = true, want false")
	}
	if d.Pending() {
		t.Error("Pending() = true after malformed input")
	}
	if s.Snapshot().IsDragging {
		t.Error("isDragging set by malformed input")
	}
}

package media

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSeekQueue_SeekCompletes(t *testing.T) {
	h := NewFakeHandle(100)
	q := NewSeekQueue(h)

	if err := q.Seek(context.Background(), 42); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := h.CurrentTime(); got != 42 {
		t.Errorf("CurrentTime() = %v, want 42", got)
	}
	if q.SeekCount() != 1 {
		t.Errorf("SeekCount() = %d, want 1", q.SeekCount())
	}
}

func TestSeekQueue_SerializesConcurrentSeeks(t *testing.T) {
	h := NewFakeHandle(1000)
	q := NewSeekQueue(h)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(target float64) {
			defer wg.Done()
			if err := q.Seek(context.Background(), target); err != nil {
				t.Errorf("Seek(%v) error = %v", target, err)
			}
		}(float64(i * 10))
	}
	wg.Wait()

	// The fake completes each seek synchronously inside Seek, so a full
	// log with no interleaving lost means no overlap occurred.
	if got := len(h.SeekLog()); got != 20 {
		t.Errorf("seek log length = %d, want 20", got)
	}
	if q.SeekCount() != 20 {
		t.Errorf("SeekCount() = %d, want 20", q.SeekCount())
	}
}

func TestSeekQueue_CancelledContext(t *testing.T) {
	h := NewRemoteHandle() // never completes seeks on its own
	q := NewSeekQueue(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Seek(ctx, 5); err == nil {
		t.Fatal("Seek() = nil error with no completion event, want context error")
	}

	// The queue must not be left locked by the abandoned seek.
	done := make(chan error, 1)
	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel2()
		done <- q.Seek(ctx2, 6)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue deadlocked after cancelled seek")
	}
}

func TestRemoteHandle_EventsAndCommands(t *testing.T) {
	r := NewRemoteHandle()

	var gotTime, gotSeek, gotMeta float64
	r.OnTimeUpdate(func(v float64) { gotTime = v })
	r.OnSeekCompleted(func(v float64) { gotSeek = v })
	r.OnMetadataLoaded(func(v float64) { gotMeta = v })

	if err := r.HandleEvent(EventMetadataLoaded, 90); err != nil {
		t.Fatalf("HandleEvent(loadedmetadata) error = %v", err)
	}
	if err := r.HandleEvent(EventTimeUpdate, 12.5); err != nil {
		t.Fatalf("HandleEvent(timeupdate) error = %v", err)
	}
	if err := r.HandleEvent(EventSeeked, 30); err != nil {
		t.Fatalf("HandleEvent(seeked) error = %v", err)
	}
	if err := r.HandleEvent("bogus", 0); err == nil {
		t.Error("HandleEvent(bogus) = nil error, want error")
	}

	if gotMeta != 90 || gotTime != 12.5 || gotSeek != 30 {
		t.Errorf("events = (%v, %v, %v), want (12.5, 30, 90)", gotTime, gotSeek, gotMeta)
	}
	if r.Duration() != 90 {
		t.Errorf("Duration() = %v, want 90", r.Duration())
	}
	if r.CurrentTime() != 30 {
		t.Errorf("CurrentTime() = %v, want 30", r.CurrentTime())
	}

	r.Seek(15)
	r.Play()
	r.Pause()

	cmds := r.DrainCommands()
	want := []Command{{Op: "seek", Time: 15}, {Op: "play"}, {Op: "pause"}}
	if len(cmds) != len(want) {
		t.Fatalf("commands = %d, want %d", len(cmds), len(want))
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d = %+v, want %+v", i, cmds[i], want[i])
		}
	}

	if extra := r.DrainCommands(); len(extra) != 0 {
		t.Errorf("second drain = %d commands, want 0", len(extra))
	}
}

func TestFakeHandle_TickFiresTimeUpdate(t *testing.T) {
	h := NewFakeHandle(60)

	var ticks []float64
	unsub := h.OnTimeUpdate(func(v float64) { ticks = append(ticks, v) })

	h.Tick(1)
	h.Tick(0.5)
	unsub()
	h.Tick(1)

	if len(ticks) != 2 || ticks[0] != 1 || ticks[1] != 1.5 {
		t.Errorf("ticks = %v, want [1 1.5]", ticks)
	}
}

func TestFakeHandle_SeekClamps(t *testing.T) {
	h := NewFakeHandle(60)

	h.Seek(-5)
	if h.CurrentTime() != 0 {
		t.Errorf("CurrentTime() = %v after negative seek, want 0", h.CurrentTime())
	}
	h.Seek(120)
	if h.CurrentTime() != 60 {
		t.Errorf("CurrentTime() = %v after overshoot, want 60", h.CurrentTime())
	}
}

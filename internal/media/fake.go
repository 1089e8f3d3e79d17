package media

import (
	"errors"
	"image"
	"sync"
)

// FakeHandle is a deterministic in-process media element. Tests drive it
// directly; the agent also wires it as the v0 capture backend until a real
// decoder-backed handle exists, in the same way other subsystems ship with
// stub implementations first.
type FakeHandle struct {
	hub *eventHub

	mu          sync.Mutex
	currentTime float64
	duration    float64
	playing     bool
	seekLog     []float64
	playErr     error
	captureErrs map[float64]error
}

var _ CaptureHandle = (*FakeHandle)(nil)

func NewFakeHandle(duration float64) *FakeHandle {
	return &FakeHandle{
		hub:         newEventHub(),
		duration:    duration,
		captureErrs: make(map[float64]error),
	}
}

func (f *FakeHandle) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime
}

func (f *FakeHandle) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

// Seek moves the position and completes synchronously, the way a fully
// buffered local file behaves.
func (f *FakeHandle) Seek(t float64) {
	f.mu.Lock()
	if t < 0 {
		t = 0
	}
	if f.duration > 0 && t > f.duration {
		t = f.duration
	}
	f.currentTime = t
	f.seekLog = append(f.seekLog, t)
	f.mu.Unlock()

	f.hub.fire(f.hub.seekSubs, t)
}

func (f *FakeHandle) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *FakeHandle) Pause() {
	f.mu.Lock()
	f.playing = false
	f.mu.Unlock()
}

func (f *FakeHandle) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakeHandle) OnTimeUpdate(fn func(float64)) func() {
	return f.hub.subscribe(f.hub.timeSubs, fn)
}

func (f *FakeHandle) OnSeekCompleted(fn func(float64)) func() {
	return f.hub.subscribe(f.hub.seekSubs, fn)
}

func (f *FakeHandle) OnMetadataLoaded(fn func(float64)) func() {
	return f.hub.subscribe(f.hub.metaSubs, fn)
}

// LoadMetadata simulates the element learning its duration.
func (f *FakeHandle) LoadMetadata(duration float64) {
	f.mu.Lock()
	f.duration = duration
	f.mu.Unlock()
	f.hub.fire(f.hub.metaSubs, duration)
}

// Tick advances playback and fires a time-update, simulating one timeupdate
// event from the element.
func (f *FakeHandle) Tick(dt float64) {
	f.mu.Lock()
	f.currentTime += dt
	t := f.currentTime
	f.mu.Unlock()
	f.hub.fire(f.hub.timeSubs, t)
}

// CaptureFrame returns a tiny solid image whose shade encodes the current
// position, so tests can tell which timestamp a thumbnail came from.
func (f *FakeHandle) CaptureFrame() (image.Image, error) {
	f.mu.Lock()
	t := f.currentTime
	err := f.captureErrs[t]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	shade := uint8(int(t) % 256)
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return img, nil
}

// FailCaptureAt makes CaptureFrame fail when the position equals t.
func (f *FakeHandle) FailCaptureAt(t float64) {
	f.mu.Lock()
	f.captureErrs[t] = errors.New("no drawing context")
	f.mu.Unlock()
}

// SetPlayError makes Play return err, simulating autoplay rejection.
func (f *FakeHandle) SetPlayError(err error) {
	f.mu.Lock()
	f.playErr = err
	f.mu.Unlock()
}

// SeekLog returns every seek issued, in order.
func (f *FakeHandle) SeekLog() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seekLog))
	copy(out, f.seekLog)
	return out
}

package editor

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/stepcut/stepcut-agent/internal/timecode"
)

// Direction selects which neighbour Navigate moves to.
type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

const defaultSettleFallback = 250 * time.Millisecond

// SegmentPatch is a partial update produced by an UpdateByID patch
// function. Nil fields are left untouched.
type SegmentPatch struct {
	Description *string
	StartTime   *float64
	EndTime     *float64
}

// Snapshot is a copy of the full editor state, safe to read without holding
// the session lock.
type Snapshot struct {
	SessionID      string            `json:"session_id"`
	Segments       []Segment         `json:"segments"`
	ActiveIndex    int               `json:"active_index"`
	TrimValues     [2]float64        `json:"trim_values"`
	IsDragging     bool              `json:"is_dragging"`
	IsStepChanging bool              `json:"is_step_changing"`
	Duration       float64           `json:"duration"`
	CurrentTime    float64           `json:"current_time"`
	VideoPath      string            `json:"video_path,omitempty"`
	VideoURL       string            `json:"video_url,omitempty"`
	APIError       string            `json:"api_error,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// Session owns the canonical editor state for one editing run: the ordered
// step list, the active index, the live trim pair, and the transition flags.
// Every operation is atomic behind one mutex; the original ran on a
// single-threaded event loop and the lock preserves that model here.
type Session struct {
	mu     sync.Mutex
	id     string
	logger *slog.Logger

	segments       []Segment
	activeIndex    int
	trimValues     [2]float64
	isDragging     bool
	isStepChanging bool
	// pendingActive defers the index switch after Add until the dependent
	// view settles; -1 means no deferred activation.
	pendingActive int
	duration      float64
	currentTime   float64
	videoPath     string
	videoURL      string
	apiError      string
	errors        map[string]string

	settleTimer    *time.Timer
	settleFallback time.Duration
	disposed       bool
}

func NewSession(logger *slog.Logger) *Session {
	return &Session{
		id:             NewSessionID(),
		logger:         logger,
		pendingActive:  -1,
		trimValues:     [2]float64{0, 100},
		settleFallback: defaultSettleFallback,
	}
}

func (s *Session) ID() string {
	return s.id
}

// SetSettleFallback overrides the transition fallback window. Used by tests
// to keep the timer short.
func (s *Session) SetSettleFallback(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleFallback = d
}

// AttachVideo records the local file and the preview URL for the session's
// source video.
func (s *Session) AttachVideo(path, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoPath = path
	s.videoURL = url
}

// SetDuration records the total video length once the media element reports
// it. The first time a positive duration arrives on an empty session, one
// implicit segment spanning the whole video is created. Percent pairs of
// existing segments are re-derived against the new duration.
func (s *Session) SetDuration(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return
	}
	s.duration = d

	if len(s.segments) == 0 && d > 0 {
		seg := Segment{
			ID:        NextSegmentID(nil),
			StartTime: 0,
			EndTime:   d,
		}
		seg.syncPercent(d)
		s.segments = append(s.segments, seg)
		s.activeIndex = 0
	} else {
		for i := range s.segments {
			s.segments[i].syncPercent(d)
		}
	}
	s.syncTrimLocked()
}

// SetAll replaces the step list wholesale, e.g. when a draft is loaded.
// Segments with non-finite or inverted times are coerced to the default
// range; upstream data is not guaranteed type-safe even after ingestion.
func (s *Session) SetAll(segments []Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.segments = make([]Segment, len(segments))
	for i, seg := range segments {
		if !isFinite(seg.StartTime) || !isFinite(seg.EndTime) ||
			seg.StartTime < 0 || seg.StartTime >= seg.EndTime {
			seg.StartTime = DefaultStartTime
			seg.EndTime = DefaultEndTime
		}
		seg.syncPercent(s.duration)
		s.segments[i] = seg
	}

	s.activeIndex = 0
	s.pendingActive = -1
	s.isDragging = false
	s.isStepChanging = false
	s.syncTrimLocked()
}

// UpdateByID applies patchFn to every segment whose id equals targetID and
// merges the returned partial patch. Draft data can contain duplicate ids;
// all matches are patched, which mirrors the observed upstream behaviour
// and is pinned by a test rather than corrected to single-match.
func (s *Session) UpdateByID(targetID string, patchFn func(Segment) SegmentPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	for i := range s.segments {
		if s.segments[i].ID != targetID {
			continue
		}
		matched = true
		patch := patchFn(s.segments[i])
		if patch.Description != nil {
			s.segments[i].Description = *patch.Description
		}
		if patch.StartTime != nil && isFinite(*patch.StartTime) {
			s.segments[i].StartTime = *patch.StartTime
		}
		if patch.EndTime != nil && isFinite(*patch.EndTime) {
			s.segments[i].EndTime = *patch.EndTime
		}
		if patch.StartTime != nil || patch.EndTime != nil {
			s.segments[i].syncPercent(s.duration)
		}
	}
	if matched {
		s.syncTrimLocked()
	}
	return matched
}

// Navigate moves the active index one step. At either end of the list the
// request is a no-op; a successful move marks the step-changing window
// until the dependent view settles.
func (s *Session) Navigate(dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.activeIndex
	switch dir {
	case DirectionPrevious:
		target--
	case DirectionNext:
		target++
	default:
		return false
	}
	if target < 0 || target >= len(s.segments) {
		return false
	}

	s.activeIndex = target
	s.syncTrimLocked()
	s.beginTransitionLocked(-1)
	return true
}

// Add appends a fresh step with the documented default range (10 seconds
// from zero, clipped to the video length). The new step does not become
// active immediately: activation is deferred until SettleTransition so the
// step list can re-render first, with a timer fallback if no settle event
// arrives.
func (s *Session) Add() Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := AddSegmentSeconds
	if s.duration > 0 && s.duration < end {
		end = s.duration
	}
	seg := Segment{
		ID:        NextSegmentID(s.segments),
		StartTime: 0,
		EndTime:   end,
	}
	seg.syncPercent(s.duration)
	s.segments = append(s.segments, seg)

	s.beginTransitionLocked(len(s.segments) - 1)
	if s.logger != nil {
		s.logger.Info("segment added", "segment_id", seg.ID, "count", len(s.segments))
	}
	return seg
}

// DeleteActive removes the active step. Deleting the last remaining step is
// refused. After deletion the next step slides into the vacated slot, so
// the index only moves when the tail was deleted.
func (s *Session) DeleteActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.segments) <= 1 {
		return false
	}

	old := s.activeIndex
	s.segments = append(s.segments[:old], s.segments[old+1:]...)
	if s.activeIndex > len(s.segments)-1 {
		s.activeIndex = len(s.segments) - 1
	}
	s.syncTrimLocked()
	s.beginTransitionLocked(-1)
	if s.logger != nil {
		s.logger.Info("segment deleted", "active_index", s.activeIndex, "count", len(s.segments))
	}
	return true
}

// ResetAll redistributes every step into fixed 5-second slots in list
// order: step i becomes [5i, 5i+5]. This mirrors the surrounding product's
// reset behaviour; it deliberately does not stretch steps back over the
// whole video.
func (s *Session) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.segments {
		s.segments[i].StartTime = ResetSlotSeconds * float64(i)
		s.segments[i].EndTime = ResetSlotSeconds*float64(i) + ResetSlotSeconds
		s.segments[i].syncPercent(s.duration)
	}
	s.syncTrimLocked()
}

// MarkStart sets the active step's start to the given position, typically
// the current playback time. If the mark would invert the range, the end is
// nudged one second past the new start so start < end always holds.
func (s *Session) MarkStart(t float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isFinite(t) || t < 0 || s.activeIndex >= len(s.segments) {
		return false
	}
	seg := &s.segments[s.activeIndex]
	seg.StartTime = t
	if seg.StartTime >= seg.EndTime {
		seg.EndTime = seg.StartTime + 1
	}
	seg.syncPercent(s.duration)
	s.syncTrimLocked()
	return true
}

// MarkEnd sets the active step's end, nudging the start one second back
// when the mark would invert the range. Marks at or before zero collapse
// to the minimal [0, 1] range.
func (s *Session) MarkEnd(t float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isFinite(t) || t < 0 || s.activeIndex >= len(s.segments) {
		return false
	}
	seg := &s.segments[s.activeIndex]
	seg.EndTime = t
	if seg.EndTime <= seg.StartTime {
		seg.StartTime = seg.EndTime - 1
		if seg.StartTime < 0 {
			seg.StartTime = 0
		}
	}
	if seg.StartTime >= seg.EndTime {
		seg.EndTime = seg.StartTime + 1
	}
	seg.syncPercent(s.duration)
	s.syncTrimLocked()
	return true
}

// SetTrimPreview records a live drag value. The pair updates on every move
// event for responsive rendering while the canonical times wait for the
// debounced commit. Malformed input (not exactly two values) is rejected
// without entering drag state.
func (s *Session) SetTrimPreview(values []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) != 2 {
		return false
	}
	s.trimValues = [2]float64{values[0], values[1]}
	s.isDragging = true
	return true
}

// CommitTrim writes a percent pair into the active step's canonical fields
// and leaves drag state. Malformed input is a no-op that never toggles
// isDragging.
func (s *Session) CommitTrim(values []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) != 2 || s.activeIndex >= len(s.segments) {
		return false
	}

	seg := &s.segments[s.activeIndex]
	seg.StartPercent = values[0]
	seg.EndPercent = values[1]
	seg.StartTime = timecode.PercentToSeconds(values[0], s.duration)
	seg.EndTime = timecode.PercentToSeconds(values[1], s.duration)
	s.trimValues = [2]float64{values[0], values[1]}
	s.isDragging = false
	return true
}

// SetDescription replaces the active step's description text.
func (s *Session) SetDescription(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex >= len(s.segments) {
		return false
	}
	s.segments[s.activeIndex].Description = text
	return true
}

// RecordTime stores the last known playback position.
func (s *Session) RecordTime(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isFinite(t) {
		s.currentTime = t
	}
}

// SettleTransition ends the step-changing window. The caller fires it when
// the dependent view (seek, description field) has caught up; the fallback
// timer fires it otherwise.
func (s *Session) SettleTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	if s.pendingActive >= 0 {
		s.activeIndex = clampIndex(s.pendingActive, len(s.segments))
		s.pendingActive = -1
		s.syncTrimLocked()
	}
	s.isStepChanging = false
}

// ActiveSegment returns a copy of the active step.
func (s *Session) ActiveSegment() (Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.segments) == 0 || s.activeIndex >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[s.activeIndex], true
}

// NextSegment returns a copy of the step after the active one, if any.
func (s *Session) NextSegment() (Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.activeIndex + 1
	if next >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[next], true
}

// CurrentDescription returns the active step's text, or the placeholder
// when the list is empty or the step has no text yet.
func (s *Session) CurrentDescription() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < len(s.segments) && s.segments[s.activeIndex].Description != "" {
		return s.segments[s.activeIndex].Description
	}
	return PlaceholderDescription
}

// DisplayRange returns the active step's time range, or the display
// defaults for an empty list.
func (s *Session) DisplayRange() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < len(s.segments) {
		return s.segments[s.activeIndex].StartTime, s.segments[s.activeIndex].EndTime
	}
	return DefaultStartTime, DefaultEndTime
}

// SetAPIError records a user-visible message for a failed boundary call
// (upload, submit, playback). It never corrupts editor state.
func (s *Session) SetAPIError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiError = msg
}

// SetErrors replaces the validation error map.
func (s *Session) SetErrors(errs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = errs
}

// Snapshot copies the full state for reading.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments := make([]Segment, len(s.segments))
	copy(segments, s.segments)

	var errs map[string]string
	if len(s.errors) > 0 {
		errs = make(map[string]string, len(s.errors))
		for k, v := range s.errors {
			errs[k] = v
		}
	}

	return Snapshot{
		SessionID:      s.id,
		Segments:       segments,
		ActiveIndex:    s.activeIndex,
		TrimValues:     s.trimValues,
		IsDragging:     s.isDragging,
		IsStepChanging: s.isStepChanging,
		Duration:       s.duration,
		CurrentTime:    s.currentTime,
		VideoPath:      s.videoPath,
		VideoURL:       s.videoURL,
		APIError:       s.apiError,
		Errors:         errs,
	}
}

// Dispose tears the session down: pending timers are abandoned and state is
// cleared. Safe to call more than once.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	s.segments = nil
	s.errors = nil
	s.pendingActive = -1
}

func (s *Session) beginTransitionLocked(pending int) {
	s.isStepChanging = true
	s.pendingActive = pending
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleTimer = time.AfterFunc(s.settleFallback, s.SettleTransition)
}

func (s *Session) syncTrimLocked() {
	if s.activeIndex < len(s.segments) {
		seg := s.segments[s.activeIndex]
		s.trimValues = [2]float64{seg.StartPercent, seg.EndPercent}
	} else {
		s.trimValues = [2]float64{0, 100}
	}
}

func clampIndex(i, length int) int {
	if length == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i > length-1 {
		return length - 1
	}
	return i
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

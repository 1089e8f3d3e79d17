package export

import (
	"strings"
	"testing"
)

func TestGenerateEDL_Basic(t *testing.T) {
	clips := []StepClip{
		{Name: "Dice the onions", MediaPath: "/videos/clip.mp4", StartMs: 0, EndMs: 5000},
		{Name: "Brown them slowly", MediaPath: "/videos/clip.mp4", StartMs: 12000, EndMs: 20000},
	}

	edl := GenerateEDL(clips, "Onion Soup", 30)

	if !strings.HasPrefix(edl, "TITLE: Onion Soup\n") {
		t.Errorf("missing title line:\n%s", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Errorf("missing FCM line:\n%s", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:05:00 00:00:00:00 00:00:05:00") {
		t.Errorf("first event malformed:\n%s", edl)
	}
	// Record track is contiguous: the second clip lands right after the
	// first's 5-second duration even though its source starts at 12s.
	if !strings.Contains(edl, "002  AX       V     C        00:00:12:00 00:00:20:00 00:00:05:00 00:00:13:00") {
		t.Errorf("second event malformed:\n%s", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Dice the onions") {
		t.Errorf("missing clip name comment:\n%s", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /videos/clip.mp4") {
		t.Errorf("missing media path comment:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl := GenerateEDL(nil, "t", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Errorf("29.97 should emit drop frame header:\n%s", edl)
	}

	edl = GenerateEDL(nil, "t", 25)
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Errorf("25 fps should emit non-drop header:\n%s", edl)
	}
}

func TestGenerateEDL_ZeroFrameRateDefaults(t *testing.T) {
	clips := []StepClip{{Name: "x", MediaPath: "/v.mp4", StartMs: 0, EndMs: 1000}}
	edl := GenerateEDL(clips, "t", 0)
	// 1000ms at the 30fps fallback is exactly one second.
	if !strings.Contains(edl, "00:00:01:00") {
		t.Errorf("zero frame rate should fall back to 30fps:\n%s", edl)
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		ms   int
		fps  int
		want string
	}{
		{0, 30, "00:00:00:00"},
		{1000, 30, "00:00:01:00"},
		{1500, 30, "00:00:01:15"},
		{60000, 30, "00:01:00:00"},
		{3600000, 30, "01:00:00:00"},
		{500, 25, "00:00:00:13"},
	}

	for _, tt := range tests {
		if got := msToTimecode(tt.ms, tt.fps); got != tt.want {
			t.Errorf("msToTimecode(%d, %d) = %q, want %q", tt.ms, tt.fps, got, tt.want)
		}
	}
}

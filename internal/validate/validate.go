// Package validate holds the submission gate: the checks a draft must
// pass before its steps can be sent to the cloud.
package validate

import (
	"fmt"
	"strings"

	"github.com/stepcut/stepcut-agent/internal/editor"
)

// MinDescriptionLen is the shortest acceptable step description, measured
// after trimming whitespace.
const MinDescriptionLen = 10

// Field keys for the error map, matching the JSON surface the UI binds to.
const (
	FieldVideo       = "video"
	FieldDescription = "description"
)

// Check validates an editor snapshot and returns one message per failing
// field. An empty map means the draft is submittable.
//
// The description check only applies once a video is attached and at least
// one step exists; before that the missing video is the only actionable
// problem and stacking both messages just buries it.
func Check(snap editor.Snapshot) map[string]string {
	errs := make(map[string]string)

	hasVideo := snap.VideoPath != "" || snap.VideoURL != ""
	if !hasVideo {
		errs[FieldVideo] = "Attach a video before submitting"
		return errs
	}

	if len(snap.Segments) == 0 {
		return errs
	}

	desc := ""
	if snap.ActiveIndex >= 0 && snap.ActiveIndex < len(snap.Segments) {
		desc = snap.Segments[snap.ActiveIndex].Description
	}
	if len(strings.TrimSpace(desc)) < MinDescriptionLen {
		errs[FieldDescription] = "Describe this step in at least 10 characters"
	}

	return errs
}

// CheckDraft validates a stored draft before submission. Unlike the live
// check, every step's description must pass, not just the active one: a
// submitted recipe has no notion of an active step.
func CheckDraft(draft *editor.Draft) map[string]string {
	errs := make(map[string]string)

	if draft.VideoPath == "" && draft.VideoURL == "" {
		errs[FieldVideo] = "Attach a video before submitting"
		return errs
	}

	if len(draft.Segments) == 0 {
		errs[FieldDescription] = "Add at least one step before submitting"
		return errs
	}

	for i, seg := range draft.Segments {
		if len(strings.TrimSpace(seg.Description)) < MinDescriptionLen {
			errs[FieldDescription] = fmt.Sprintf("Describe step %d in at least 10 characters", i+1)
			break
		}
	}

	return errs
}

// AcceptUpload reports whether a picked file can be attached as the draft
// video, by extension.
func AcceptUpload(filename string) bool {
	return editor.IsVideoFile(filename)
}

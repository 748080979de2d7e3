// Package vision derives condition signals from device photos.
package vision

import (
	"context"
	"errors"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrNoCandidates is returned when the vision model produced no output.
var ErrNoCandidates = errors.New("vision model returned no candidates")

// Image is a single device photo to analyze.
type Image struct {
	// View labels the angle the photo was taken from (front, back, screen).
	View string
	// MIME is the image content type, e.g. "image/jpeg".
	MIME string
	// Data is the raw image bytes.
	Data []byte
}

// SignalProvider turns device photos into normalized condition signals.
type SignalProvider interface {
	Signals(ctx context.Context, images []Image) ([]domain.ConditionSignal, error)
}

// severityWeights maps the model's coarse severity words onto the [0,1]
// scale used by condition normalization.
var severityWeights = map[string]float64{
	"low":    0.3,
	"medium": 0.6,
	"high":   0.9,
}

// issueAliases maps model output vocabulary onto canonical issue types.
var issueAliases = map[string]domain.IssueType{
	"scratch":          domain.IssueScratch,
	"scratches":        domain.IssueScratch,
	"crack":            domain.IssueCrack,
	"cracks":           domain.IssueCrack,
	"cracked":          domain.IssueCrack,
	"dent":             domain.IssueDent,
	"dents":            domain.IssueDent,
	"discoloration":    domain.IssueDiscoloration,
	"discolouration":   domain.IssueDiscoloration,
	"fading":           domain.IssueDiscoloration,
	"missing part":     domain.IssueMissingPart,
	"missing_part":     domain.IssueMissingPart,
	"functional defect": domain.IssueFunctionalDefect,
	"functional_defect": domain.IssueFunctionalDefect,
	"defect":           domain.IssueFunctionalDefect,
}

// Package filter decides whether a new position fix is worth replacing the
// current best one.
package filter

import "artrack/pkg/model"

// SignificantlyLessAccurateMeters is the accuracy loss tolerated for a newer
// fix coming from the same provider.
const SignificantlyLessAccurateMeters = 200

// Decision describes why a candidate fix was accepted or rejected.
type Decision int

const (
	// Rejected keeps the current fix.
	Rejected Decision = iota
	// FirstFix accepts a candidate when there is no current fix yet.
	FirstFix
	// SignificantlyNewer accepts a candidate more than the minimum interval newer.
	SignificantlyNewer
	// SignificantlyOlder rejects a candidate more than the minimum interval older.
	SignificantlyOlder
	// MoreAccurate accepts a candidate with a smaller accuracy radius.
	MoreAccurate
	// NewerNotLessAccurate accepts a newer candidate that is at least as accurate.
	NewerNotLessAccurate
	// NewerSameProvider accepts a newer candidate from the same provider that is
	// at most SignificantlyLessAccurateMeters less accurate.
	NewerSameProvider
)

var decisionNames = map[Decision]string{
	Rejected:             "rejected",
	FirstFix:             "first_fix",
	SignificantlyNewer:   "significantly_newer",
	SignificantlyOlder:   "significantly_older",
	MoreAccurate:         "more_accurate",
	NewerNotLessAccurate: "newer_not_less_accurate",
	NewerSameProvider:    "newer_same_provider",
}

func (d Decision) String() string {
	if s, ok := decisionNames[d]; ok {
		return s
	}
	return "unknown"
}

// Accepted reports whether the decision lets the candidate replace the current fix.
func (d Decision) Accepted() bool {
	switch d {
	case FirstFix, SignificantlyNewer, MoreAccurate, NewerNotLessAccurate, NewerSameProvider:
		return true
	default:
		return false
	}
}

// Accept reports whether candidate should replace current.
// It has no side effects.
func Accept(candidate model.Fix, current *model.Fix, minIntervalMs int64) bool {
	return Evaluate(candidate, current, minIntervalMs).Accepted()
}

// Evaluate applies the timeliness/accuracy heuristic and returns the reason for
// the outcome. With no current fix the candidate is always accepted.
func Evaluate(candidate model.Fix, current *model.Fix, minIntervalMs int64) Decision {
	if current == nil {
		return FirstFix
	}

	timeDelta := candidate.TimestampMs - current.TimestampMs
	if timeDelta > minIntervalMs {
		return SignificantlyNewer
	}
	if timeDelta < -minIntervalMs {
		return SignificantlyOlder
	}
	isNewer := timeDelta > 0

	accuracyDelta := candidate.AccuracyMeters - current.AccuracyMeters
	switch {
	case accuracyDelta < 0:
		return MoreAccurate
	case isNewer && accuracyDelta <= 0:
		return NewerNotLessAccurate
	case isNewer && accuracyDelta <= SignificantlyLessAccurateMeters && candidate.ProviderID == current.ProviderID:
		return NewerSameProvider
	}
	return Rejected
}

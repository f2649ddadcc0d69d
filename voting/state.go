// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import "math"

// State is where a student stands in one election
type State string

const (
	StateNotStarted   State = "not_started"
	StateInProgress   State = "in_progress"
	StateLastPosition State = "last_position"
	StateCompleted    State = "completed"
)

// StateFor derives the state from position counts. A completion record
// wins over the counts, so Completed never reverses even if positions are
// added afterwards.
func StateFor(total, remaining int, completed bool) State {
	switch {
	case completed || (total > 0 && remaining == 0):
		return StateCompleted
	case remaining == total:
		return StateNotStarted
	case remaining == 1:
		return StateLastPosition
	default:
		return StateInProgress
	}
}

// ProgressPercent is 100 - round((remaining-1)/total * 100), clamped to
// [0, 100]. remaining includes the position currently shown. Halves round
// to even. total must be positive.
func ProgressPercent(total, remaining int) int {
	if total <= 0 {
		return 0
	}
	p := 100 - int(math.RoundToEven(float64(remaining-1)/float64(total)*100))
	return min(max(p, 0), 100)
}

package processsequenceemails

import "prospect-composer/internal/sequences"

// Input is empty; the process starts a run on a timer.
type Input struct{}

type Output struct {
	sequences.Result
}

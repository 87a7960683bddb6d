// domain/state.go
package domain

import "fmt"

type ProcessingStatus string

const (
	StatusPending      ProcessingStatus = "pending"
	StatusProcessing   ProcessingStatus = "processing"
	StatusTranscribing ProcessingStatus = "transcribing"
	StatusReady        ProcessingStatus = "ready"
	StatusPublished    ProcessingStatus = "published"
	StatusError        ProcessingStatus = "error"
)

var transitions = map[ProcessingStatus][]ProcessingStatus{
	StatusPending:      {StatusProcessing},
	StatusProcessing:   {StatusTranscribing},
	StatusTranscribing: {StatusReady},
	StatusReady:        {StatusPublished},
	StatusPublished:    {StatusPublished},
}

// CanTransitionTo reports whether the pipeline allows moving from s to next.
// The error state is reachable from anywhere.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	if next == StatusError {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Publishable is true for the states a publish request is accepted from.
func (s ProcessingStatus) Publishable() bool {
	return s == StatusReady || s == StatusPublished
}

func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusTranscribing, StatusReady, StatusPublished, StatusError:
		return true
	}
	return false
}

// CheckTransition returns an error describing an out-of-order transition.
func CheckTransition(from, to ProcessingStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

package detector

import "context"

// Detector is a strategy that determines whether the target application
// is already running. Implementations are best-effort: a false answer
// means "no instance found", not a proof of absence.
type Detector interface {
	// Alive returns true if a running instance is detected.
	Alive(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

package model

// Publisher defines a generic interface for announcing a finished run.
type Publisher interface {
	Publish(runID string, result *Result) error
	Close()
}

package model

// Writer defines a generic interface for persisting the result of a run.
type Writer interface {
	// Write persists the result. timestamp identifies the run.
	Write(result *Result, timestamp string) error

	// Type returns the registered writer type, e.g. "csv".
	Type() string
}

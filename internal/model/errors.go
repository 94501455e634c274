package model

import "errors"

// Error kinds. Every failure of a run wraps exactly one of these, so callers
// can classify it with errors.Is. All of them abort the run.
var (
	// ErrDataSource marks an input that cannot be opened or read.
	ErrDataSource = errors.New("data source error")
	// ErrFormat marks a table row with fewer fields than required.
	ErrFormat = errors.New("format error")
	// ErrMalformedRecord marks a flow-log line with fewer than 8 fields.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrDataSink marks an output that cannot be written.
	ErrDataSink = errors.New("data sink error")
)

package table

import (
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

var log = logger.MustGetLogger("table")

// readRows skips one header row and calls fn for every following row.
// A row with fewer than minFields fields is a format error.
func readRows(r io.Reader, name string, minFields int, fn func(row []string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: '%s' has no header row", model.ErrFormat, name)
		}
		return classifyReadError(err, name)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return classifyReadError(err, name)
		}
		if len(row) < minFields {
			line, _ := reader.FieldPos(0)
			return fmt.Errorf("%w: '%s' line %d has %d field(s), expected %d", model.ErrFormat, name, line, len(row), minFields)
		}
		fn(row)
	}
}

func classifyReadError(err error, name string) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: failed to parse '%s': %w", model.ErrFormat, name, err)
	}
	return fmt.Errorf("%w: failed to read '%s': %w", model.ErrDataSource, name, err)
}

// Opener opens a named input for reading. The loaders use os.Open when
// given a nil Opener.
type Opener func(path string) (io.ReadCloser, error)

// loadFile opens path and hands it to read, releasing the file on every path.
func loadFile(path string, open Opener, read func(r io.Reader) error) error {
	if open == nil {
		open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	file, err := open(path)
	if err != nil {
		if errors.Is(err, model.ErrDataSource) {
			return err
		}
		return fmt.Errorf("%w: failed to open '%s': %w", model.ErrDataSource, path, err)
	}
	defer file.Close()
	return read(file)
}

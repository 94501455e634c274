package pipeline

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"FlowTagger/internal/publish"
	"FlowTagger/internal/report"
	"FlowTagger/internal/sanitize"
	"FlowTagger/internal/table"
	"fmt"
	"io"
	"os"
	"time"
)

var log = logger.MustGetLogger("pipeline")

// Tables holds the two lookup tables of a run. Both are read-only once built.
type Tables struct {
	Protocols *table.ProtocolTable
	Lookup    *table.LookupTable
}

// Runner executes one batch run: load tables, aggregate the flow log, then
// hand the result to every writer and the optional publisher.
type Runner struct {
	cfg       *config.Config
	writers   []model.Writer
	publisher model.Publisher
}

// NewRunner builds the writers and publisher configured in cfg. Any sink
// that cannot be built fails the construction.
func NewRunner(cfg *config.Config) (*Runner, error) {
	writers, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	var publisher model.Publisher
	if cfg.Publisher.Enabled {
		p, err := publish.NewPublisher(cfg.Publisher)
		if err != nil {
			return nil, err
		}
		publisher = p
	}

	return NewRunnerWith(cfg, writers, publisher), nil
}

// NewRunnerWith creates a runner from already built sinks. publisher may be nil.
func NewRunnerWith(cfg *config.Config, writers []model.Writer, publisher model.Publisher) *Runner {
	return &Runner{cfg: cfg, writers: writers, publisher: publisher}
}

// Run executes the pipeline once. The first error aborts the run; if it
// happens before the write stage no writer is called.
func (r *Runner) Run() (*model.Result, error) {
	runID := time.Now().Format(report.TimestampLayout)
	log.Infof("Starting run %s", runID)

	tables, err := LoadTables(r.cfg)
	if err != nil {
		return nil, err
	}

	result, err := ProcessFile(r.cfg.Inputs.FlowLog, r.cfg.Sanitize, tables)
	if err != nil {
		return nil, err
	}

	for _, writer := range r.writers {
		if err := writer.Write(result, runID); err != nil {
			log.Errorf("Writer '%s' failed: %v", writer.Type(), err)
			return nil, fmt.Errorf("writer '%s': %w", writer.Type(), err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(runID, result); err != nil {
			log.Errorf("Failed to publish run %s: %v", runID, err)
			return nil, err
		}
	}

	log.Infof("Processing complete. Run %s counted %d records.", runID, result.Records)
	return result, nil
}

// Close releases the publisher connection.
func (r *Runner) Close() {
	if r.publisher != nil {
		r.publisher.Close()
	}
}

// LoadTables builds the protocol and lookup tables named in cfg. An empty
// protocol table path selects the builtin table.
func LoadTables(cfg *config.Config) (*Tables, error) {
	open := NewOpener(cfg.Sanitize)

	var protocols *table.ProtocolTable
	if cfg.Inputs.ProtocolTable == "" {
		protocols = table.BuiltinProtocolTable()
	} else {
		var err error
		protocols, err = table.LoadProtocolTable(cfg.Inputs.ProtocolTable, open)
		if err != nil {
			return nil, err
		}
	}

	lookup, err := table.LoadLookupTable(cfg.Inputs.LookupTable, open)
	if err != nil {
		return nil, err
	}
	return &Tables{Protocols: protocols, Lookup: lookup}, nil
}

// ProcessFile aggregates the flow log at path against tables.
func ProcessFile(path, sanitizeMode string, tables *Tables) (*model.Result, error) {
	in, err := NewOpener(sanitizeMode)(path)
	if err != nil {
		log.Errorf("Failed to process flow logs from %s: %v", path, err)
		return nil, err
	}
	defer in.Close()

	return aggregator.Process(in, path, tables.Protocols, tables.Lookup)
}

type sanitizedFile struct {
	io.Reader
	io.Closer
}

// NewOpener returns an opener applying the sanitize mode: inplace rewrites
// the file before opening it, stream cleans the content while it is read.
func NewOpener(mode string) table.Opener {
	return func(path string) (io.ReadCloser, error) {
		if mode == config.SanitizeInPlace {
			if err := sanitize.File(path); err != nil {
				return nil, err
			}
		}

		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open '%s': %w", model.ErrDataSource, path, err)
		}
		if mode == config.SanitizeStream {
			return sanitizedFile{Reader: sanitize.NewReader(file), Closer: file}, nil
		}
		return file, nil
	}
}

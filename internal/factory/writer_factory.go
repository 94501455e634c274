package factory

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"fmt"
)

var log = logger.MustGetLogger("factory")

// WriterFactory creates a report sink from its definition.
type WriterFactory func(def config.WriterDef, cfg *config.Config) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Create builds every enabled writer in cfg, in config order. An unknown
// type or a writer that fails to build is an error: a run never starts with
// fewer sinks than configured.
func Create(cfg *config.Config) ([]model.Writer, error) {
	var writers []model.Writer

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		log.Infof("Creating writer of type '%s'", def.Type)

		factory, ok := registry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		writer, err := factory(def, cfg)
		if err != nil {
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, writer)
	}

	if len(writers) == 0 {
		return nil, fmt.Errorf("no writers enabled")
	}
	return writers, nil
}

package factory

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/config"
	"FlowLogAnalyzer/internal/model"
)

// WriterFactory defines a function that creates a report writer from its definition.
type WriterFactory func(def config.WriterDef) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered reports whether a writer type is known.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

// CreateWriters builds every enabled writer in the config. Unknown types are
// logged and skipped; a writer that fails to build aborts creation.
func CreateWriters(cfg *config.Config) ([]model.Writer, error) {
	var writers []model.Writer

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		factory, ok := registry[def.Type]
		if !ok {
			log.WithField("type", def.Type).Warn("Unknown writer type in config, skipping")
			continue
		}

		writer, err := factory(def)
		if err != nil {
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		log.WithField("type", def.Type).Debug("Created writer")
		writers = append(writers, writer)
	}

	return writers, nil
}

package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// BuilderFunc constructs a PostProcessor from its section of the
// pipeline configuration.
type BuilderFunc func(config map[string]any) (driven.PostProcessor, error)

// Registry maps processor names to builders, so pipelines can be
// assembled from user configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder under name. The name must match what the
// built processor reports from Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs the named processor with its config. Returns
// domain.ErrUnsupportedType when no builder is registered for name.
func (r *Registry) Build(name string, config map[string]any) (driven.PostProcessor, error) {
	builder, registered := r.builders[name]
	if !registered {
		return nil, fmt.Errorf("%w: processor %q", domain.ErrUnsupportedType, name)
	}
	return builder(config)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, registered := r.builders[name]
	return registered
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// BuildPipeline constructs a pipeline from the ordered stage names in
// spec. Fails if any name is unregistered or a processor rejects its
// config.
func (r *Registry) BuildPipeline(spec domain.PipelineSpec) (*Pipeline, error) {
	pipeline := NewPipeline()
	for _, name := range spec.Stages {
		processor, err := r.Build(name, spec.Section(name))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

package postprocessors

import (
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/postprocessors/chunker"
)

// RegisterDefaults registers the built-in processors. Called once
// during start-up before the pipeline is assembled from settings.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker assembles the chunker from its settings section.
// Recognised keys:
//   - chunk_size (int): Characters per chunk (default: 512)
//   - overlap (int): Overlapping characters between chunks (default: 128)
//
// Invalid combinations (non-positive size, overlap not smaller than
// size) surface as domain.ErrInvalidConfig from the chunker.
func buildChunker(config map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := intFromConfig(config, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(config, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...)
}

// intFromConfig reads an int-shaped value from generic config. TOML
// yields int64 and JSON float64, so both coerce.
func intFromConfig(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

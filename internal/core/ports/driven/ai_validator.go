package driven

import "github.com/recall-labs/recall-cli/internal/core/domain"

// AIConfigValidator checks embedding settings against the live provider
// before they are persisted, so a typo in a model name or a dead API key
// surfaces at configuration time rather than mid-sync.
type AIConfigValidator interface {
	// ValidateEmbedding probes the provider named by the settings with a
	// throwaway embedding request. Nil settings, or settings with no
	// provider selected, pass without a network call.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}

package ai

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ProbeValidator)(nil)

// ProbeValidator checks embedding settings against the live provider.
// The settings wizard runs it before persisting anything.
type ProbeValidator struct{}

// NewProbeValidator returns a validator with no state of its own.
func NewProbeValidator() *ProbeValidator {
	return &ProbeValidator{}
}

// ValidateEmbedding builds a throwaway service for the settings and
// pings it once. Unconfigured settings pass; the wizard treats that as
// nothing to check yet.
func (v *ProbeValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := newEmbedder(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

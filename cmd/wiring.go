package cmd

import (
	"nextdynamic/internal/adapter/outbound/esbuild"
	"nextdynamic/internal/adapter/outbound/treesitter"
	"nextdynamic/internal/application/service"
	"nextdynamic/internal/config"
)

// newTransformService builds the transform service from configuration.
func newTransformService(cfg *config.Config) (*service.TransformService, error) {
	metrics, err := service.NewTransformMetrics()
	if err != nil {
		return nil, err
	}
	return service.NewTransformService(
		treesitter.NewSourceParser(),
		esbuild.NewVerifier(),
		metrics,
		service.TransformServiceConfig{
			Options:      cfg.Transform.PassOptions(),
			VerifyOutput: cfg.Transform.VerifyOutput,
			Concurrency:  cfg.Transform.Concurrency,
		},
	)
}

package rest

import (
	"matflow/infrastructure/config"
	"matflow/infrastructure/di"
)

// OptionsFromContainer derives router options from a built container and
// the configuration it was built from.
func OptionsFromContainer(c *di.Container, cfg *config.Config) Options {
	opts := Options{
		CommandBus:     c.CommandBus,
		QueryBus:       c.QueryBus,
		Tokens:         c.Tokens,
		LoginLimiter:   c.LoginLimiter,
		Health:         c.Store.Health,
		Tracer:         c.Tracer,
		CORSOrigins:    cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Debug:          cfg.Debug,
		Logger:         c.Logger,
	}
	if cfg.EnableMetrics {
		opts.Collector = c.Collector
	}
	if cfg.EnableTracing && cfg.TracingProvider == config.TracingXRay {
		opts.XRayService = "matflow"
	}
	return opts
}

package config

import (
	"fmt"

	"github.com/jpalmerr/pulsecheck"
)

// BuildTargets converts parsed configuration into the target list for a run.
//
// Direct targets come first, in file order, followed by each grid's
// expansion in declaration order. Duplicates are kept.
func BuildTargets(cfg *Config) ([]string, error) {
	targets := make([]string, 0, len(cfg.Targets))
	targets = append(targets, cfg.Targets...)

	for i, gc := range cfg.Grids {
		expanded, err := pulsecheck.ExpandGrid(gc.URLTemplate, gc.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.Name, err)
		}
		targets = append(targets, expanded...)
	}

	return targets, nil
}

// Options converts the run settings into checker options.
func (c *Config) Options() []pulsecheck.Option {
	return []pulsecheck.Option{
		pulsecheck.WithWorkers(c.WorkerCount()),
		pulsecheck.WithTimeout(c.Timeout.Duration()),
		pulsecheck.WithMaxRetries(c.Retries),
		pulsecheck.WithRetryDelay(c.RetryDelay.Duration()),
	}
}

package upgrade

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type (
	// Engine drives an upgrade using a built Configuration.
	Engine struct {
		cfg *Configuration
	}

	// Result describes the outcome of PerformUpgrade.
	Result struct {
		// Scripts lists the scripts that were executed successfully, in order.
		Scripts []Script

		// Error is set when the upgrade stopped early.
		Error error

		// ErrorScript is the script that failed, if any.
		ErrorScript *Script

		// ExecutionTime records how long the upgrade took.
		ExecutionTime time.Duration
	}
)

// Successful reports whether every pending script was applied.
func (r *Result) Successful() bool {
	return r.Error == nil
}

// Configuration returns the configuration the engine was built with. Callers
// should treat it as read-only.
func (e *Engine) Configuration() *Configuration {
	return e.cfg
}

// ExecutedScripts returns the names recorded in the journal.
func (e *Engine) ExecutedScripts(ctx context.Context) ([]string, error) {
	return e.cfg.Journal.ExecutedScripts(ctx)
}

// DiscoveredScripts returns every script from every provider, sorted by name.
func (e *Engine) DiscoveredScripts(ctx context.Context) ([]Script, error) {
	var scripts []Script
	for _, p := range e.cfg.ScriptProviders {
		found, err := p.Scripts(ctx)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, found...)
	}

	slices.SortStableFunc(scripts, func(a, b Script) int {
		return strings.Compare(a.Name, b.Name)
	})

	return scripts, nil
}

// ScriptsToExecute returns the discovered scripts that are not yet journaled.
func (e *Engine) ScriptsToExecute(ctx context.Context) ([]Script, error) {
	scripts, err := e.DiscoveredScripts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover scripts")
	}

	executed, err := e.ExecutedScripts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load executed scripts")
	}

	applied := make(map[string]struct{}, len(executed))
	for _, name := range executed {
		applied[name] = struct{}{}
	}

	pending := make([]Script, 0, len(scripts))
	for _, s := range scripts {
		if _, ok := applied[s.Name]; !ok {
			pending = append(pending, s)
		}
	}

	return pending, nil
}

// IsUpgradeRequired reports whether any script is pending.
func (e *Engine) IsUpgradeRequired(ctx context.Context) (bool, error) {
	pending, err := e.ScriptsToExecute(ctx)
	if err != nil {
		return false, err
	}

	return len(pending) > 0, nil
}

// PerformUpgrade executes every pending script in name order, stopping at the
// first failure. Scripts applied before the failure stay applied.
func (e *Engine) PerformUpgrade(ctx context.Context) *Result {
	start := time.Now()
	log := e.cfg.Log
	result := &Result{}

	finish := func() *Result {
		result.ExecutionTime = time.Since(start)
		return result
	}

	log.Infof("Beginning database upgrade")

	if err := e.cfg.Journal.EnsureTable(ctx); err != nil {
		result.Error = errors.Wrap(err, "failed to prepare journal")
		log.Errorf("Upgrade failed: %v", result.Error)
		return finish()
	}

	pending, err := e.ScriptsToExecute(ctx)
	if err != nil {
		result.Error = err
		log.Errorf("Upgrade failed: %v", err)
		return finish()
	}

	if len(pending) == 0 {
		log.Infof("No new scripts need to be executed - completing.")
		return finish()
	}

	for _, script := range pending {
		variables := maps.Clone(e.cfg.Variables)
		if err := e.cfg.ScriptExecutor.Execute(ctx, script, variables); err != nil {
			failed := script
			result.Error = err
			result.ErrorScript = &failed
			log.Errorf("Upgrade failed due to an unexpected error: %v", err)
			return finish()
		}

		result.Scripts = append(result.Scripts, script)
	}

	log.Infof("Upgrade successful")
	return finish()
}

// Close releases the connection manager.
func (e *Engine) Close() error {
	return e.cfg.ConnectionManager.Close()
}

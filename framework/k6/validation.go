package k6

import (
	"fmt"
	"time"

	"github.com/redhat/tempo-loadgen/framework/config"
)

// ValidationResult holds the outcome of the validation smoke run
type ValidationResult struct {
	// Stage is the single status read taken after the fixed wait
	Stage Stage

	// Passed is true when the run reached the finished stage in time
	Passed bool

	// Logs holds runner pod logs when the run did not pass (best-effort)
	Logs string
}

// ValidationOptions configure the validation smoke run
type ValidationOptions struct {
	// TempoNamespace is where the Tempo stack Services live
	TempoNamespace string

	// Stack is the TempoStack CR name
	Stack string
}

// RunValidation creates a minimal single-VU TestRun against the validation
// backend, waits the configured fixed delay and reads the status exactly once.
// A run that has not finished by then is reported, not retried: validation is
// a smoke check of the toolchain, and the caller decides whether to warn or
// fail.
func RunValidation(c Clients, cfg *config.Config, opts ValidationOptions) (*ValidationResult, error) {
	backend := ValidationBackend

	manifest, err := RenderManifest(TestRunConfig{
		Name:        ValidationTestRunName,
		Namespace:   c.Namespace(),
		Service:     backend.Component,
		TargetURL:   backend.TargetURL(opts.Stack, opts.TempoNamespace),
		Parallelism: 1,
		VUs:         1,
		Duration:    "30s",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render validation TestRun: %w", err)
	}

	obj, err := ParseManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse validation TestRun: %w", err)
	}

	if err := Apply(c, obj); err != nil {
		return nil, fmt.Errorf("failed to apply validation TestRun: %w", err)
	}

	c.Logger().Infof("validation TestRun created, checking status in %s", cfg.ValidationWait)

	select {
	case <-c.Context().Done():
		return nil, c.Context().Err()
	case <-time.After(cfg.ValidationWait):
	}

	stage, err := GetStage(c, ValidationTestRunName)
	if err != nil {
		return nil, fmt.Errorf("failed to read validation TestRun status: %w", err)
	}

	result := &ValidationResult{
		Stage:  stage,
		Passed: stage == StageFinished,
	}

	if !result.Passed {
		if logs, logErr := RunnerLogs(c, ValidationTestRunName); logErr == nil {
			result.Logs = logs
		}
	}

	return result, nil
}

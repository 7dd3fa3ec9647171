package config

import (
	"os"
	"time"
)

// Default timeouts used throughout the installer
const (
	// DefaultOperatorReadyTimeout is the default timeout for the k6 operator
	// controller deployment to become ready after install
	DefaultOperatorReadyTimeout = 180 * time.Second

	// DefaultOperatorReadyPollInterval is the default interval for polling the
	// operator deployment status
	DefaultOperatorReadyPollInterval = 5 * time.Second

	// DefaultCRDEstablishedTimeout is the default timeout for the TestRun CRD
	// to reach the Established condition after creation
	DefaultCRDEstablishedTimeout = 60 * time.Second

	// DefaultCRDEstablishedPollInterval is the default interval for polling CRD status
	DefaultCRDEstablishedPollInterval = 2 * time.Second

	// DefaultValidationWait is the fixed delay before the validation TestRun
	// status is read. The validation run is a smoke check, not a gate, so the
	// status is read exactly once after this delay.
	DefaultValidationWait = 60 * time.Second

	// DefaultRunnerStartTimeout is the default timeout for the k6 runner pods
	// of a TestRun to be scheduled and become ready
	DefaultRunnerStartTimeout = 120 * time.Second

	// DefaultTestRunTimeout is the default timeout when waiting for a TestRun
	// to finish with `test --wait`
	DefaultTestRunTimeout = 30 * time.Minute

	// DefaultTestRunPollInterval is the default interval for polling TestRun status
	DefaultTestRunPollInterval = 5 * time.Second

	// DefaultNamespaceTimeout is the default timeout for namespace deletion
	DefaultNamespaceTimeout = 120 * time.Second

	// DefaultNamespacePollInterval is the default interval for polling namespace status
	DefaultNamespacePollInterval = 2 * time.Second
)

// Environment variable names for configuration overrides
const (
	EnvOperatorReadyTimeout  = "LOADGEN_OPERATOR_READY_TIMEOUT"
	EnvCRDEstablishedTimeout = "LOADGEN_CRD_ESTABLISHED_TIMEOUT"
	EnvValidationWait        = "LOADGEN_VALIDATION_WAIT"
	EnvRunnerStartTimeout    = "LOADGEN_RUNNER_START_TIMEOUT"
	EnvTestRunTimeout        = "LOADGEN_TESTRUN_TIMEOUT"
	EnvNamespaceTimeout      = "LOADGEN_NAMESPACE_TIMEOUT"
)

// Config holds installer configuration with optional overrides
type Config struct {
	OperatorReadyTimeout       time.Duration
	OperatorReadyPollInterval  time.Duration
	CRDEstablishedTimeout      time.Duration
	CRDEstablishedPollInterval time.Duration
	ValidationWait             time.Duration
	RunnerStartTimeout         time.Duration
	TestRunTimeout             time.Duration
	TestRunPollInterval        time.Duration
	NamespaceTimeout           time.Duration
	NamespacePollInterval      time.Duration
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		OperatorReadyTimeout:       DefaultOperatorReadyTimeout,
		OperatorReadyPollInterval:  DefaultOperatorReadyPollInterval,
		CRDEstablishedTimeout:      DefaultCRDEstablishedTimeout,
		CRDEstablishedPollInterval: DefaultCRDEstablishedPollInterval,
		ValidationWait:             DefaultValidationWait,
		RunnerStartTimeout:         DefaultRunnerStartTimeout,
		TestRunTimeout:             DefaultTestRunTimeout,
		TestRunPollInterval:        DefaultTestRunPollInterval,
		NamespaceTimeout:           DefaultNamespaceTimeout,
		NamespacePollInterval:      DefaultNamespacePollInterval,
	}
}

// FromEnv returns a Config with values from environment variables, falling back to defaults
func FromEnv() *Config {
	cfg := Default()

	if v := os.Getenv(EnvOperatorReadyTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OperatorReadyTimeout = d
		}
	}

	if v := os.Getenv(EnvCRDEstablishedTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CRDEstablishedTimeout = d
		}
	}

	if v := os.Getenv(EnvValidationWait); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ValidationWait = d
		}
	}

	if v := os.Getenv(EnvRunnerStartTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunnerStartTimeout = d
		}
	}

	if v := os.Getenv(EnvTestRunTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TestRunTimeout = d
		}
	}

	if v := os.Getenv(EnvNamespaceTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NamespaceTimeout = d
		}
	}

	return cfg
}

// WithOperatorReadyTimeout returns a copy with updated operator ready timeout
func (c *Config) WithOperatorReadyTimeout(d time.Duration) *Config {
	cp := *c
	cp.OperatorReadyTimeout = d
	return &cp
}

// WithValidationWait returns a copy with updated validation wait delay
func (c *Config) WithValidationWait(d time.Duration) *Config {
	cp := *c
	cp.ValidationWait = d
	return &cp
}

// WithRunnerStartTimeout returns a copy with updated runner pod start timeout
func (c *Config) WithRunnerStartTimeout(d time.Duration) *Config {
	cp := *c
	cp.RunnerStartTimeout = d
	return &cp
}

// WithTestRunTimeout returns a copy with updated TestRun timeout
func (c *Config) WithTestRunTimeout(d time.Duration) *Config {
	cp := *c
	cp.TestRunTimeout = d
	return &cp
}

// WithNamespaceTimeout returns a copy with updated namespace timeout
func (c *Config) WithNamespaceTimeout(d time.Duration) *Config {
	cp := *c
	cp.NamespaceTimeout = d
	return &cp
}

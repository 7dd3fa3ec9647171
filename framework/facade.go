package framework

import (
	"fmt"
	"path/filepath"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/redhat/tempo-loadgen/framework/gvr"
	"github.com/redhat/tempo-loadgen/framework/k6"
	"github.com/redhat/tempo-loadgen/framework/monitoring"
	"github.com/redhat/tempo-loadgen/framework/wait"
)

// InstallOptions configure the install operation
type InstallOptions struct {
	// TempoNamespace is where the Tempo stack lives
	TempoNamespace string

	// Stack is the TempoStack CR name
	Stack string

	// ScriptPath is the k6 script loaded into the scripts ConfigMap
	ScriptPath string

	// OutputDir is where per-service TestRun manifests are written
	OutputDir string

	// Load shape shared by all generated manifests
	Parallelism int
	VUs         int
	Duration    string
	Rate        int
}

// TestOptions configure a single test run
type TestOptions struct {
	// OutputDir is where install wrote the per-service manifests
	OutputDir string

	// Wait blocks until the TestRun reaches a terminal stage
	Wait bool
}

// TestResult describes the outcome of a test run
type TestResult struct {
	Service string
	Name    string
	Stage   k6.Stage
}

// Install sets up everything a test run needs: the k6 operator, the test
// namespace, the script ConfigMap, per-service TestRun manifests on disk,
// and the metrics scraping wiring. Monitoring failures are downgraded to
// warnings so the install still succeeds on clusters without
// prometheus-operator.
func (f *Framework) Install(opts InstallOptions) error {
	if err := f.EnsureNamespace(); err != nil {
		return err
	}

	if err := k6.InstallOperator(f, f.config); err != nil {
		return fmt.Errorf("operator install failed: %w", err)
	}

	if err := k6.ApplyScriptConfigMap(f, opts.ScriptPath); err != nil {
		return err
	}

	remoteWriteURL := f.setupMonitoring()

	if err := k6.GenerateManifests(f, opts.OutputDir, k6.GenerateOptions{
		Namespace:      f.namespace,
		TempoNamespace: opts.TempoNamespace,
		Stack:          opts.Stack,
		Parallelism:    opts.Parallelism,
		VUs:            opts.VUs,
		Duration:       opts.Duration,
		Rate:           opts.Rate,
		RemoteWriteURL: remoteWriteURL,
	}); err != nil {
		return err
	}

	return nil
}

// setupMonitoring wires metrics scraping, warning instead of failing when the
// cluster has no prometheus-operator or is not an OpenShift cluster. It
// returns the Prometheus remote write URL runners should push metrics to, or
// empty when metrics export is unavailable.
func (f *Framework) setupMonitoring() string {
	remoteWriteURL := ""
	if err := monitoring.EnableUserWorkloadMonitoring(f); err != nil {
		f.logger.WithError(err).Warn("could not enable user workload monitoring")
	} else if err := monitoring.EnableRemoteWriteReceiver(f); err != nil {
		f.logger.WithError(err).Warn("could not enable Prometheus remote write receiver, runner metrics export disabled")
	} else {
		remoteWriteURL = monitoring.RemoteWriteURL()
	}

	if err := monitoring.EnsureServiceMonitor(f); err != nil {
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			f.logger.Warn("ServiceMonitor CRD not available, skipping metrics scraping")
			return remoteWriteURL
		}
		f.logger.WithError(err).Warn("could not create ServiceMonitor")
		return remoteWriteURL
	}

	f.TrackCR(gvr.ServiceMonitor, f.namespace, monitoring.RunnerServiceMonitor)
	return remoteWriteURL
}

// RunTest applies the pre-generated TestRun manifest for the named service.
// With opts.Wait it blocks until the run reaches a terminal stage; otherwise
// it returns as soon as the TestRun is created.
func (f *Framework) RunTest(service string, opts TestOptions) (*TestResult, error) {
	backend, ok := k6.LookupBackend(service)
	if !ok {
		return nil, fmt.Errorf("%w: %s (known services: %v)", ErrUnknownService, service, k6.BackendNames())
	}

	path := filepath.Join(opts.OutputDir, k6.ManifestFileName(backend.Component))
	obj, err := k6.LoadManifest(path)
	if err != nil {
		return nil, err
	}

	if err := k6.Apply(f, obj); err != nil {
		// The TestRun API only exists once the operator is installed
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			return nil, fmt.Errorf("%w: %v", ErrOperatorNotInstalled, err)
		}
		return nil, err
	}
	f.TrackCR(gvr.TestRun, f.namespace, obj.GetName())

	result := &TestResult{
		Service: backend.Component,
		Name:    obj.GetName(),
	}

	if !opts.Wait {
		f.logger.WithField("testrun", obj.GetName()).Info("test started")
		return result, nil
	}

	// Surface scheduling problems early, before the long stage poll
	selector := labels.SelectorFromSet(labels.Set{"k6_cr": obj.GetName()})
	if err := wait.ForPodsReady(f, f.namespace, selector, f.config.RunnerStartTimeout, 1); err != nil {
		f.logger.WithError(err).Warn("runner pods not ready yet, waiting on TestRun stage anyway")
	}

	stage, err := k6.WaitForCompletion(f, obj.GetName(), f.config.TestRunTimeout, f.config.TestRunPollInterval)
	if err != nil {
		if f.ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}
		return nil, err
	}
	result.Stage = stage
	return result, nil
}

// Validate runs the validation smoke check against the query frontend
func (f *Framework) Validate(opts InstallOptions) (*k6.ValidationResult, error) {
	result, err := k6.RunValidation(f, f.config, k6.ValidationOptions{
		TempoNamespace: opts.TempoNamespace,
		Stack:          opts.Stack,
	})
	if err != nil {
		return nil, err
	}
	f.TrackCR(gvr.TestRun, f.namespace, k6.ValidationTestRunName)
	return result, nil
}

// TestRunStage reads the current stage of a managed TestRun
func (f *Framework) TestRunStage(service string) (k6.Stage, error) {
	name := k6.TestRunName(service)
	stage, err := k6.GetStage(f, name)
	if apierrors.IsNotFound(err) {
		return "", NewResourceError("TestRun", f.namespace, name, ErrResourceNotFound)
	}
	return stage, err
}

// RunnerLogs returns the aggregated runner pod logs of a TestRun
func (f *Framework) RunnerLogs(name string) (string, error) {
	logs, err := k6.RunnerLogs(f, name)
	if apierrors.IsNotFound(err) {
		return "", NewResourceError("TestRun", f.namespace, name, ErrResourceNotFound)
	}
	return logs, err
}

// Package framework installs and drives the k6 operator for load testing
// Tempo backend services on Kubernetes/OpenShift clusters.
//
// It automates the full lifecycle: prerequisite checks, operator install,
// per-service TestRun manifest generation, metrics scraping wiring, test
// execution and teardown.
//
// # Quick Start
//
// Create a framework instance scoped to a namespace and install the tooling:
//
//	ctx := context.Background()
//	fw, err := framework.New(ctx, "k6-loadtest")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prereqs, _ := fw.CheckPrerequisites(framework.PrerequisiteOptions{
//	    TempoNamespace: "tempo",
//	    Stack:          "tempostack",
//	})
//	if !prereqs.AllMet {
//	    log.Fatal("prerequisites not met:\n", prereqs.String())
//	}
//
//	err = fw.Install(framework.InstallOptions{
//	    TempoNamespace: "tempo",
//	    Stack:          "tempostack",
//	    OutputDir:      "manifests",
//	})
//
//	result, _ := fw.RunTest("distributor", framework.TestOptions{
//	    OutputDir: "manifests",
//	    Wait:      true,
//	})
//	fmt.Println("final stage:", result.Stage)
//
// # Context Support
//
// The context passed to New is used for all Kubernetes operations; cancel it
// to abort in-progress installs or test runs.
//
// # Package Structure
//
//   - config: centralized configuration with environment variable support
//   - concurrent: concurrent execution helpers for parallel operations
//   - gvr: centralized GroupVersionResource definitions
//   - k6: k6 operator install and TestRun lifecycle
//   - monitoring: ServiceMonitor and user workload monitoring wiring
//   - retry: retry logic with exponential backoff
//   - wait: polling-based readiness checks
package framework

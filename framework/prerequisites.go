package framework

import (
	"fmt"
	"strings"

	tempoapi "github.com/grafana/tempo-operator/api/tempo/v1alpha1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/redhat/tempo-loadgen/framework/gvr"
	"github.com/redhat/tempo-loadgen/framework/k6"
)

// PrerequisiteStatus represents the status of a single prerequisite
type PrerequisiteStatus struct {
	Name    string
	Met     bool
	Message string
}

// PrerequisitesResult contains the results of all prerequisite checks.
// Monitoring is advisory only and does not affect AllMet.
type PrerequisitesResult struct {
	Cluster         PrerequisiteStatus
	TempoOperator   PrerequisiteStatus
	TempoStack      PrerequisiteStatus
	BackendServices PrerequisiteStatus
	Monitoring      PrerequisiteStatus
	AllMet          bool
}

// String renders the result as a human-readable report
func (r *PrerequisitesResult) String() string {
	var sb strings.Builder
	for _, s := range []PrerequisiteStatus{r.Cluster, r.TempoOperator, r.TempoStack, r.BackendServices, r.Monitoring} {
		mark := "ok"
		if !s.Met {
			mark = "MISSING"
		}
		fmt.Fprintf(&sb, "%-18s %-8s %s\n", s.Name, mark, s.Message)
	}
	return sb.String()
}

// Err converts an unmet result into an error naming the first failing check.
// Monitoring is advisory and never contributes.
func (r *PrerequisitesResult) Err() error {
	if r.AllMet {
		return nil
	}
	for _, s := range []PrerequisiteStatus{r.Cluster, r.TempoOperator, r.TempoStack, r.BackendServices} {
		if !s.Met {
			return NewPrerequisiteError(s.Name, fmt.Errorf("%s: %w", s.Message, ErrPrerequisitesNotMet))
		}
	}
	return ErrPrerequisitesNotMet
}

// Tempo operator CRDs that must be established before tests can target a stack
var tempoCRDs = []string{
	"tempostacks.tempo.grafana.com",
}

// PrerequisiteOptions locate the Tempo deployment the checks run against
type PrerequisiteOptions struct {
	TempoNamespace string
	Stack          string
}

// CheckPrerequisites verifies that the cluster is reachable, the Tempo
// operator and stack are present, and the backend services exist
func (f *Framework) CheckPrerequisites(opts PrerequisiteOptions) (*PrerequisitesResult, error) {
	result := &PrerequisitesResult{AllMet: true}

	result.Cluster = f.checkClusterConnection()
	if !result.Cluster.Met {
		result.AllMet = false
		// No point probing further without a cluster
		result.TempoOperator = PrerequisiteStatus{Name: "tempo-operator", Message: "skipped"}
		result.TempoStack = PrerequisiteStatus{Name: "tempo-stack", Message: "skipped"}
		result.BackendServices = PrerequisiteStatus{Name: "backend-services", Message: "skipped"}
		result.Monitoring = PrerequisiteStatus{Name: "monitoring", Message: "skipped"}
		return result, nil
	}

	result.TempoOperator = f.checkTempoOperator()
	if !result.TempoOperator.Met {
		result.AllMet = false
	}

	result.TempoStack = f.checkTempoStack(opts)
	if !result.TempoStack.Met {
		result.AllMet = false
	}

	result.BackendServices = f.checkBackendServices(opts)
	if !result.BackendServices.Met {
		result.AllMet = false
	}

	result.Monitoring = f.checkMonitoringCRD()

	return result, nil
}

func (f *Framework) checkClusterConnection() PrerequisiteStatus {
	status := PrerequisiteStatus{Name: "cluster"}

	version, err := f.client.Discovery().ServerVersion()
	if err != nil {
		status.Message = fmt.Sprintf("cannot reach cluster: %v", err)
		return status
	}

	status.Met = true
	status.Message = fmt.Sprintf("connected, server version %s", version.GitVersion)
	return status
}

func (f *Framework) checkTempoOperator() PrerequisiteStatus {
	status := PrerequisiteStatus{Name: "tempo-operator", Met: true}

	var missing []string
	for _, name := range tempoCRDs {
		crd, err := f.apiextClient.ApiextensionsV1().CustomResourceDefinitions().Get(f.ctx, name, metav1.GetOptions{})
		if err != nil {
			missing = append(missing, name)
			status.Met = false
			continue
		}
		if !crdEstablished(crd) {
			missing = append(missing, name+" (not established)")
			status.Met = false
		}
	}

	if status.Met {
		status.Message = "CRDs established"
	} else {
		status.Message = fmt.Sprintf("missing CRDs: %v", missing)
	}
	return status
}

// checkTempoStack reads the TempoStack CR and inspects its Ready condition
func (f *Framework) checkTempoStack(opts PrerequisiteOptions) PrerequisiteStatus {
	status := PrerequisiteStatus{Name: "tempo-stack"}

	obj, err := f.dynamicClient.Resource(gvr.TempoStack).Namespace(opts.TempoNamespace).Get(f.ctx, opts.Stack, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			status.Message = fmt.Sprintf("TempoStack %s/%s not found", opts.TempoNamespace, opts.Stack)
		} else {
			status.Message = fmt.Sprintf("failed to read TempoStack: %v", err)
		}
		return status
	}

	var stack tempoapi.TempoStack
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &stack); err != nil {
		status.Message = fmt.Sprintf("failed to decode TempoStack: %v", err)
		return status
	}

	for _, cond := range stack.Status.Conditions {
		if cond.Type == string(tempoapi.ConditionReady) && cond.Status == metav1.ConditionTrue {
			status.Met = true
			status.Message = fmt.Sprintf("TempoStack %s ready (tempo %s)", stack.Name, stack.Status.TempoVersion)
			return status
		}
	}

	status.Message = fmt.Sprintf("TempoStack %s exists but is not ready", stack.Name)
	return status
}

func (f *Framework) checkBackendServices(opts PrerequisiteOptions) PrerequisiteStatus {
	status := PrerequisiteStatus{Name: "backend-services", Met: true}

	var missing []string
	for _, backend := range k6.Backends {
		name := backend.ServiceName(opts.Stack)
		_, err := f.client.CoreV1().Services(opts.TempoNamespace).Get(f.ctx, name, metav1.GetOptions{})
		if err != nil {
			missing = append(missing, name)
			status.Met = false
		}
	}

	if status.Met {
		status.Message = fmt.Sprintf("all %d component services present", len(k6.Backends))
	} else {
		status.Message = fmt.Sprintf("missing services: %v", missing)
	}
	return status
}

// checkMonitoringCRD is advisory: without the prometheus-operator CRDs the
// ServiceMonitor wiring is skipped but tests still run
func (f *Framework) checkMonitoringCRD() PrerequisiteStatus {
	status := PrerequisiteStatus{Name: "monitoring"}

	crd, err := f.apiextClient.ApiextensionsV1().CustomResourceDefinitions().Get(f.ctx, "servicemonitors.monitoring.coreos.com", metav1.GetOptions{})
	if err != nil {
		status.Message = "ServiceMonitor CRD not found, metrics scraping will be skipped"
		return status
	}
	if !crdEstablished(crd) {
		status.Message = "ServiceMonitor CRD not established, metrics scraping will be skipped"
		return status
	}

	status.Met = true
	status.Message = "ServiceMonitor CRD established"
	return status
}

func crdEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
			return true
		}
	}
	return false
}

package k6

import (
	"context"

	"github.com/sirupsen/logrus"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Stage represents the lifecycle stage reported in a TestRun's status
type Stage string

const (
	StageInitialization Stage = "initialization"
	StageInitialized    Stage = "initialized"
	StageCreated        Stage = "created"
	StageStarted        Stage = "started"
	StageStopped        Stage = "stopped"
	StageFinished       Stage = "finished"
	StageError          Stage = "error"
)

// Terminal returns true when the stage will not change anymore
func (s Stage) Terminal() bool {
	return s == StageFinished || s == StageError
}

const (
	// OperatorNamespace is the namespace the k6 operator is installed into
	OperatorNamespace = "k6-operator-system"

	// OperatorDeployment is the name of the operator controller deployment
	OperatorDeployment = "k6-operator-controller-manager"

	// OperatorServiceAccount is the service account the controller runs as
	OperatorServiceAccount = "k6-operator-controller"

	// OperatorClusterRole names the ClusterRole granted to the controller
	OperatorClusterRole = "k6-operator-manager-role"

	// OperatorClusterRoleBinding names the binding of the manager role
	OperatorClusterRoleBinding = "k6-operator-manager-rolebinding"

	// OperatorImage is the k6 operator controller image
	OperatorImage = "ghcr.io/grafana/k6-operator:controller-v0.0.19"

	// TestRunCRDName is the full name of the TestRun CRD
	TestRunCRDName = "testruns.k6.io"

	// ScriptsConfigMap is the name of the ConfigMap holding the k6 script payload
	ScriptsConfigMap = "k6-scripts"

	// ScriptFile is the key under which the script payload is stored in the ConfigMap
	ScriptFile = "loadtest.js"

	// ValidationTestRunName is the name of the TestRun created by the validation step
	ValidationTestRunName = "k6-validation"

	// RunnerMetricsPort is the port k6 runner pods serve metrics on
	RunnerMetricsPort = 6565
)

// TestRunConfig holds the parameters interpolated into a TestRun manifest
type TestRunConfig struct {
	// Name of the TestRun object
	Name string

	// Namespace the TestRun is created in
	Namespace string

	// Service is the backend service name this run targets (tag on metrics)
	Service string

	// TargetURL is the full URL the k6 script drives load against
	TargetURL string

	// Parallelism is the number of k6 runner pods
	Parallelism int

	// VUs is the number of virtual users per runner
	VUs int

	// Duration is the k6 test duration (e.g. "5m")
	Duration string

	// Rate is the target requests per second across all VUs (0 = unlimited)
	Rate int

	// RemoteWriteURL, when set, makes runners push metrics to Prometheus
	RemoteWriteURL string

	// Labels added to the TestRun metadata
	Labels map[string]string
}

// Clients provides access to Kubernetes clients needed for k6 operations
type Clients interface {
	Client() kubernetes.Interface
	DynamicClient() dynamic.Interface
	APIExtensionsClient() apiextensionsclient.Interface
	Context() context.Context
	Namespace() string
	Logger() logrus.FieldLogger
}

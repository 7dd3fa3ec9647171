package framework

import (
	"context"
	"fmt"
	"sync"

	monitoringclientset "github.com/prometheus-operator/prometheus-operator/pkg/client/versioned"
	"github.com/sirupsen/logrus"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/redhat/tempo-loadgen/framework/config"
)

// Framework drives the k6 operator lifecycle and load test runs
type Framework struct {
	client           kubernetes.Interface
	dynamicClient    dynamic.Interface
	apiextClient     apiextensionsclient.Interface
	monitoringClient monitoringclientset.Interface
	restConfig       *rest.Config
	kubeconfigPath   string
	namespace        string
	ctx              context.Context
	logger           logrus.FieldLogger
	config           *config.Config

	// Resource tracking
	mu                      sync.Mutex
	trackedCRs              []TrackedResource
	trackedClusterResources []TrackedResource
}

// Option is a function that configures the Framework
type Option func(*Framework)

// WithLogger sets a custom logger for the framework
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// WithConfig sets a custom configuration for the framework
func WithConfig(cfg *config.Config) Option {
	return func(f *Framework) {
		f.config = cfg
	}
}

// WithKubeconfig sets an explicit kubeconfig path instead of the default
// in-cluster/home lookup
func WithKubeconfig(path string) Option {
	return func(f *Framework) {
		f.kubeconfigPath = path
	}
}

// New creates a new Framework instance scoped to the given namespace.
// The context is used for all Kubernetes operations and should be cancelled
// to stop any in-progress operations.
func New(ctx context.Context, namespace string, opts ...Option) (*Framework, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}

	if ctx == nil {
		ctx = context.Background()
	}

	f := &Framework{
		namespace:               namespace,
		ctx:                     ctx,
		logger:                  logrus.StandardLogger(),
		config:                  config.FromEnv(),
		trackedCRs:              make([]TrackedResource, 0),
		trackedClusterResources: make([]TrackedResource, 0),
	}

	for _, opt := range opts {
		opt(f)
	}

	restConfig, err := f.buildRestConfig()
	if err != nil {
		return nil, err
	}
	f.restConfig = restConfig

	f.client, err = kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create kubernetes client: %v", ErrClusterConnection, err)
	}

	f.dynamicClient, err = dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create dynamic client: %v", ErrClusterConnection, err)
	}

	f.apiextClient, err = apiextensionsclient.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create apiextensions client: %v", ErrClusterConnection, err)
	}

	f.monitoringClient, err = monitoringclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create monitoring client: %v", ErrClusterConnection, err)
	}

	return f, nil
}

func (f *Framework) buildRestConfig() (*rest.Config, error) {
	if f.kubeconfigPath != "" {
		restConfig, err := clientcmd.BuildConfigFromFlags("", f.kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClusterConnection, err)
		}
		return restConfig, nil
	}

	restConfig, err := rest.InClusterConfig()
	if err != nil {
		restConfig, err = clientcmd.BuildConfigFromFlags("", clientcmd.RecommendedHomeFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClusterConnection, err)
		}
	}
	return restConfig, nil
}

// Namespace returns the namespace used by this framework instance
func (f *Framework) Namespace() string {
	return f.namespace
}

// Client returns the Kubernetes client
func (f *Framework) Client() kubernetes.Interface {
	return f.client
}

// DynamicClient returns the dynamic Kubernetes client
func (f *Framework) DynamicClient() dynamic.Interface {
	return f.dynamicClient
}

// APIExtensionsClient returns the apiextensions client
func (f *Framework) APIExtensionsClient() apiextensionsclient.Interface {
	return f.apiextClient
}

// MonitoringClient returns the prometheus-operator client
func (f *Framework) MonitoringClient() monitoringclientset.Interface {
	return f.monitoringClient
}

// Config returns the Kubernetes REST config
func (f *Framework) Config() *rest.Config {
	return f.restConfig
}

// FrameworkConfig returns the framework configuration
func (f *Framework) FrameworkConfig() *config.Config {
	return f.config
}

// Context returns the context
func (f *Framework) Context() context.Context {
	return f.ctx
}

// Logger returns the logger
func (f *Framework) Logger() logrus.FieldLogger {
	return f.logger
}

// TrackCR adds a custom resource to the tracked resources list
func (f *Framework) TrackCR(gvr schema.GroupVersionResource, namespace, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackedCRs = append(f.trackedCRs, TrackedResource{
		GVR:       gvr,
		Namespace: namespace,
		Name:      name,
	})
}

// TrackClusterResource adds a cluster-scoped resource to the tracked resources list
func (f *Framework) TrackClusterResource(gvr schema.GroupVersionResource, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackedClusterResources = append(f.trackedClusterResources, TrackedResource{
		GVR:  gvr,
		Name: name,
	})
}

// GetTrackedCRs returns a copy of the tracked custom resources
func (f *Framework) GetTrackedCRs() []TrackedResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]TrackedResource, len(f.trackedCRs))
	copy(result, f.trackedCRs)
	return result
}

// GetTrackedClusterResources returns a copy of the tracked cluster-scoped resources
func (f *Framework) GetTrackedClusterResources() []TrackedResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]TrackedResource, len(f.trackedClusterResources))
	copy(result, f.trackedClusterResources)
	return result
}

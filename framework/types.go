package framework

import (
	"context"

	monitoringclientset "github.com/prometheus-operator/prometheus-operator/pkg/client/versioned"
	"github.com/sirupsen/logrus"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// TrackedResource represents a resource created by the framework
type TrackedResource struct {
	GVR       schema.GroupVersionResource
	Namespace string
	Name      string
}

// Clients provides access to Kubernetes clients
type Clients interface {
	Client() kubernetes.Interface
	DynamicClient() dynamic.Interface
	APIExtensionsClient() apiextensionsclient.Interface
	MonitoringClient() monitoringclientset.Interface
	Config() *rest.Config
	Context() context.Context
	Namespace() string
	Logger() logrus.FieldLogger
}

// Tracker provides resource tracking capabilities
type Tracker interface {
	TrackCR(gvr schema.GroupVersionResource, namespace, name string)
	TrackClusterResource(gvr schema.GroupVersionResource, name string)
}

// FrameworkOperations combines all capabilities needed by subpackages
type FrameworkOperations interface {
	Clients
	Tracker
}

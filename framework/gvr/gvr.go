package gvr

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// k6 custom resources
var (
	// TestRun is the GVR for k6 TestRun custom resources
	TestRun = schema.GroupVersionResource{
		Group:    "k6.io",
		Version:  "v1alpha1",
		Resource: "testruns",
	}
)

// Tempo custom resources
var (
	// TempoStack is the GVR for TempoStack custom resources
	TempoStack = schema.GroupVersionResource{
		Group:    "tempo.grafana.com",
		Version:  "v1alpha1",
		Resource: "tempostacks",
	}
)

// Monitoring custom resources
var (
	// ServiceMonitor is the GVR for Prometheus Operator ServiceMonitor resources
	ServiceMonitor = schema.GroupVersionResource{
		Group:    "monitoring.coreos.com",
		Version:  "v1",
		Resource: "servicemonitors",
	}
)

// RBAC resources
var (
	// ClusterRole is the GVR for ClusterRole resources
	ClusterRole = schema.GroupVersionResource{
		Group:    "rbac.authorization.k8s.io",
		Version:  "v1",
		Resource: "clusterroles",
	}

	// ClusterRoleBinding is the GVR for ClusterRoleBinding resources
	ClusterRoleBinding = schema.GroupVersionResource{
		Group:    "rbac.authorization.k8s.io",
		Version:  "v1",
		Resource: "clusterrolebindings",
	}
)

// Core resources
var (
	// Namespace is the GVR for Namespace resources
	Namespace = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "namespaces",
	}

	// ConfigMap is the GVR for ConfigMap resources
	ConfigMap = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "configmaps",
	}

	// Service is the GVR for Service resources
	Service = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "services",
	}

	// Pod is the GVR for Pod resources
	Pod = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "pods",
	}
)

// Apps resources
var (
	// Deployment is the GVR for Deployment resources
	Deployment = schema.GroupVersionResource{
		Group:    "apps",
		Version:  "v1",
		Resource: "deployments",
	}
)

// Apiextensions resources
var (
	// CustomResourceDefinition is the GVR for CRD resources
	CustomResourceDefinition = schema.GroupVersionResource{
		Group:    "apiextensions.k8s.io",
		Version:  "v1",
		Resource: "customresourcedefinitions",
	}
)

// AllManagedCRs returns the GVRs of custom resources the installer creates and
// is responsible for cleaning up
func AllManagedCRs() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{
		TestRun,
		ServiceMonitor,
	}
}

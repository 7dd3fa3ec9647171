package monitoring_test

import (
	"context"
	"io"
	"testing"

	monitoringclientset "github.com/prometheus-operator/prometheus-operator/pkg/client/versioned"
	monitoringclientsetfake "github.com/prometheus-operator/prometheus-operator/pkg/client/versioned/fake"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/redhat/tempo-loadgen/framework/k6"
	"github.com/redhat/tempo-loadgen/framework/monitoring"
)

type testClients struct {
	client    kubernetes.Interface
	monClient monitoringclientset.Interface
	namespace string
}

func newTestClients(namespace string, objects ...runtime.Object) *testClients {
	return &testClients{
		client:    k8sfake.NewSimpleClientset(objects...),
		monClient: monitoringclientsetfake.NewSimpleClientset(),
		namespace: namespace,
	}
}

func (t *testClients) Client() kubernetes.Interface { return t.client }

func (t *testClients) MonitoringClient() monitoringclientset.Interface { return t.monClient }

func (t *testClients) Context() context.Context { return context.Background() }

func (t *testClients) Namespace() string { return t.namespace }

func (t *testClients) Logger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEnsureServiceMonitorCreates(t *testing.T) {
	c := newTestClients("k6-loadtest")

	err := monitoring.EnsureServiceMonitor(c)
	require.NoError(t, err)

	sm, err := c.MonitoringClient().MonitoringV1().ServiceMonitors("k6-loadtest").Get(c.Context(), monitoring.RunnerServiceMonitor, metav1.GetOptions{})
	require.NoError(t, err)

	assert.Equal(t, k6.LabelManagedByValue, sm.Labels[k6.LabelManagedBy])
	assert.Equal(t, k6.LabelManagedByValue, sm.Spec.Selector.MatchLabels[k6.LabelManagedBy])
	require.Len(t, sm.Spec.Endpoints, 1)
	assert.Equal(t, "metrics", sm.Spec.Endpoints[0].Port)
}

func TestEnsureServiceMonitorUpdatesExisting(t *testing.T) {
	c := newTestClients("k6-loadtest")

	require.NoError(t, monitoring.EnsureServiceMonitor(c))

	// Drift the object, the next ensure must converge it back.
	sm, err := c.MonitoringClient().MonitoringV1().ServiceMonitors("k6-loadtest").Get(c.Context(), monitoring.RunnerServiceMonitor, metav1.GetOptions{})
	require.NoError(t, err)
	sm.Spec.Endpoints = nil
	_, err = c.MonitoringClient().MonitoringV1().ServiceMonitors("k6-loadtest").Update(c.Context(), sm, metav1.UpdateOptions{})
	require.NoError(t, err)

	require.NoError(t, monitoring.EnsureServiceMonitor(c))

	sm, err = c.MonitoringClient().MonitoringV1().ServiceMonitors("k6-loadtest").Get(c.Context(), monitoring.RunnerServiceMonitor, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Len(t, sm.Spec.Endpoints, 1)
}

func TestDeleteServiceMonitorToleratesNotFound(t *testing.T) {
	c := newTestClients("k6-loadtest")
	assert.NoError(t, monitoring.DeleteServiceMonitor(c))
}

func TestEnableUserWorkloadMonitoringCreatesConfigMap(t *testing.T) {
	c := newTestClients("k6-loadtest")

	err := monitoring.EnableUserWorkloadMonitoring(c)
	require.NoError(t, err)

	cm, err := c.Client().CoreV1().ConfigMaps("openshift-monitoring").Get(c.Context(), "cluster-monitoring-config", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["config.yaml"], "enableUserWorkload: true")

	enabled, err := monitoring.IsUserWorkloadMonitoringEnabled(c)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestEnableUserWorkloadMonitoringPreservesExistingConfig(t *testing.T) {
	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "cluster-monitoring-config",
			Namespace: "openshift-monitoring",
		},
		Data: map[string]string{
			"config.yaml": "enableUserWorkload: false\n",
		},
	}
	c := newTestClients("k6-loadtest", existing)

	require.NoError(t, monitoring.EnableUserWorkloadMonitoring(c))

	enabled, err := monitoring.IsUserWorkloadMonitoringEnabled(c)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestIsUserWorkloadMonitoringEnabledDefaultsFalse(t *testing.T) {
	c := newTestClients("k6-loadtest")

	enabled, err := monitoring.IsUserWorkloadMonitoringEnabled(c)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestEnableRemoteWriteReceiver(t *testing.T) {
	c := newTestClients("k6-loadtest")

	err := monitoring.EnableRemoteWriteReceiver(c)
	require.NoError(t, err)

	cm, err := c.Client().CoreV1().ConfigMaps("openshift-monitoring").Get(c.Context(), monitoring.UserWorkloadConfigMapName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["config.yaml"], "enableRemoteWriteReceiver: true")

	// Re-enabling is a no-op, not an error.
	assert.NoError(t, monitoring.EnableRemoteWriteReceiver(c))
}

func TestRemoteWriteURL(t *testing.T) {
	assert.Equal(t,
		"http://prometheus-user-workload.openshift-user-workload-monitoring.svc:9091/api/v1/write",
		monitoring.RemoteWriteURL())
}

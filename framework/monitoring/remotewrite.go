package monitoring

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	// UserWorkloadMonitoringNamespace hosts the user workload Prometheus
	UserWorkloadMonitoringNamespace = "openshift-user-workload-monitoring"

	// UserWorkloadConfigMapName configures the user workload monitoring stack
	UserWorkloadConfigMapName = "user-workload-monitoring-config"
)

// RemoteWriteURL returns the user workload Prometheus remote write endpoint
// k6 runners push their metrics to
func RemoteWriteURL() string {
	return fmt.Sprintf("http://prometheus-user-workload.%s.svc:9091/api/v1/write", UserWorkloadMonitoringNamespace)
}

// EnableRemoteWriteReceiver turns on the remote write receiver in the user
// workload monitoring configuration so k6 can push metrics directly to
// Prometheus. Prometheus may take a few minutes to reload afterwards.
func EnableRemoteWriteReceiver(c Clients) error {
	ctx := c.Context()
	client := c.Client().CoreV1().ConfigMaps(clusterMonitoringNamespace)

	cm, err := client.Get(ctx, UserWorkloadConfigMapName, metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to get %s: %w", UserWorkloadConfigMapName, err)
		}

		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      UserWorkloadConfigMapName,
				Namespace: clusterMonitoringNamespace,
			},
			Data: map[string]string{
				monitoringConfigKey: "prometheus:\n  enableRemoteWriteReceiver: true\n",
			},
		}
		if _, err := client.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create %s: %w", UserWorkloadConfigMapName, err)
		}
		c.Logger().Info("Created user-workload-monitoring-config with remote write receiver enabled")
		return nil
	}

	configYAML := cm.Data[monitoringConfigKey]
	if configYAML == "" {
		configYAML = "{}"
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal([]byte(configYAML), &config); err != nil {
		return fmt.Errorf("failed to parse %s: %w", UserWorkloadConfigMapName, err)
	}

	prometheusConfig, ok := config["prometheus"].(map[string]interface{})
	if !ok {
		prometheusConfig = make(map[string]interface{})
		config["prometheus"] = prometheusConfig
	}

	if enabled, ok := prometheusConfig["enableRemoteWriteReceiver"].(bool); ok && enabled {
		c.Logger().Debug("Prometheus remote write receiver is already enabled")
		return nil
	}
	prometheusConfig["enableRemoteWriteReceiver"] = true

	updated, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal updated config: %w", err)
	}

	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}
	cm.Data[monitoringConfigKey] = string(updated)

	if _, err := client.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update %s: %w", UserWorkloadConfigMapName, err)
	}

	c.Logger().Info("Enabled Prometheus remote write receiver in user workload monitoring")
	return nil
}

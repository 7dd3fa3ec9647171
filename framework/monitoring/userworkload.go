package monitoring

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	clusterMonitoringNamespace = "openshift-monitoring"
	clusterMonitoringConfigMap = "cluster-monitoring-config"
	monitoringConfigKey        = "config.yaml"
)

// ClusterMonitoringConfig is the subset of the OpenShift cluster monitoring
// configuration this tool cares about
type ClusterMonitoringConfig struct {
	EnableUserWorkload bool `json:"enableUserWorkload,omitempty"`
}

// EnableUserWorkloadMonitoring enables user workload monitoring by creating
// or updating the cluster-monitoring-config ConfigMap. On clusters without
// the openshift-monitoring namespace this returns a NotFound error the
// caller should treat as non-fatal.
func EnableUserWorkloadMonitoring(c Clients) error {
	ctx := c.Context()
	client := c.Client().CoreV1().ConfigMaps(clusterMonitoringNamespace)

	existing, err := client.Get(ctx, clusterMonitoringConfigMap, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return createMonitoringConfigMap(ctx, c)
		}
		return fmt.Errorf("failed to get %s: %w", clusterMonitoringConfigMap, err)
	}

	return updateMonitoringConfigMap(ctx, c, existing)
}

func createMonitoringConfigMap(ctx context.Context, c Clients) error {
	configYAML, err := yaml.Marshal(ClusterMonitoringConfig{EnableUserWorkload: true})
	if err != nil {
		return fmt.Errorf("failed to marshal monitoring config: %w", err)
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      clusterMonitoringConfigMap,
			Namespace: clusterMonitoringNamespace,
		},
		Data: map[string]string{
			monitoringConfigKey: string(configYAML),
		},
	}

	if _, err := c.Client().CoreV1().ConfigMaps(clusterMonitoringNamespace).Create(ctx, cm, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create %s: %w", clusterMonitoringConfigMap, err)
	}

	c.Logger().Info("Created cluster-monitoring-config with user workload monitoring enabled")
	return nil
}

func updateMonitoringConfigMap(ctx context.Context, c Clients, cm *corev1.ConfigMap) error {
	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}

	var config ClusterMonitoringConfig
	if existing, ok := cm.Data[monitoringConfigKey]; ok && existing != "" {
		if err := yaml.Unmarshal([]byte(existing), &config); err != nil {
			c.Logger().Warn("Could not parse existing monitoring config, overwriting")
			config = ClusterMonitoringConfig{}
		}
	}

	if config.EnableUserWorkload {
		c.Logger().Debug("User workload monitoring is already enabled")
		return nil
	}

	config.EnableUserWorkload = true
	configYAML, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal monitoring config: %w", err)
	}
	cm.Data[monitoringConfigKey] = string(configYAML)

	if _, err := c.Client().CoreV1().ConfigMaps(clusterMonitoringNamespace).Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update %s: %w", clusterMonitoringConfigMap, err)
	}

	c.Logger().Info("Updated cluster-monitoring-config to enable user workload monitoring")
	return nil
}

// IsUserWorkloadMonitoringEnabled reports whether user workload monitoring
// is turned on in the cluster monitoring configuration
func IsUserWorkloadMonitoringEnabled(c Clients) (bool, error) {
	cm, err := c.Client().CoreV1().ConfigMaps(clusterMonitoringNamespace).Get(c.Context(), clusterMonitoringConfigMap, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", clusterMonitoringConfigMap, err)
	}

	var config ClusterMonitoringConfig
	if data, ok := cm.Data[monitoringConfigKey]; ok && data != "" {
		if err := yaml.Unmarshal([]byte(data), &config); err != nil {
			return false, fmt.Errorf("failed to parse monitoring config: %w", err)
		}
	}
	return config.EnableUserWorkload, nil
}

package k6

import (
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DefaultScriptPath is the on-disk location of the k6 script payload shipped
// with the tool
const DefaultScriptPath = "scripts/loadtest.js"

// ApplyScriptConfigMap loads the k6 script payload from disk and creates (or
// replaces) the scripts ConfigMap in the test namespace. The script is stored
// under the ScriptFile key regardless of the file's on-disk name, so TestRun
// manifests never depend on the local layout.
func ApplyScriptConfigMap(c Clients, scriptPath string) error {
	if scriptPath == "" {
		scriptPath = DefaultScriptPath
	}

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", scriptPath, err)
	}
	if len(content) == 0 {
		return fmt.Errorf("script %s is empty", scriptPath)
	}

	namespace := c.Namespace()

	configMap := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ScriptsConfigMap,
			Namespace: namespace,
			Labels:    ManagedLabels("scripts"),
		},
		Data: map[string]string{
			ScriptFile: string(content),
		},
	}

	// Replace any previous payload so reruns always push the current script
	_ = c.Client().CoreV1().ConfigMaps(namespace).Delete(c.Context(), ScriptsConfigMap, metav1.DeleteOptions{})

	_, err = c.Client().CoreV1().ConfigMaps(namespace).Create(c.Context(), configMap, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create ConfigMap %s: %w", ScriptsConfigMap, err)
	}

	c.Logger().WithField("configmap", ScriptsConfigMap).Infof("applied k6 script payload from %s", filepath.Clean(scriptPath))
	return nil
}

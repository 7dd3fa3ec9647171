package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// Clients provides access to Kubernetes clients needed for wait operations
type Clients interface {
	Client() kubernetes.Interface
	Context() context.Context
	Logger() logrus.FieldLogger
}

// ForDeploymentReady waits for a deployment in the given namespace to have all
// replicas ready
func ForDeploymentReady(c Clients, namespace, name string, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		deployment, err := c.Client().AppsV1().Deployments(namespace).Get(c.Context(), name, metav1.GetOptions{})
		if err != nil {
			// The deployment may not be visible yet right after apply
			time.Sleep(interval)
			continue
		}

		if deployment.Status.ReadyReplicas == deployment.Status.Replicas &&
			deployment.Status.ReadyReplicas > 0 {
			return nil
		}

		c.Logger().WithFields(logrus.Fields{
			"deployment": name,
			"ready":      deployment.Status.ReadyReplicas,
			"desired":    deployment.Status.Replicas,
		}).Debug("waiting for deployment")

		time.Sleep(interval)
	}

	return fmt.Errorf("deployment %s/%s not ready after %v", namespace, name, timeout)
}

// ForPodsReady waits for pods matching the selector to be ready
func ForPodsReady(c Clients, namespace string, selector labels.Selector, timeout time.Duration, minReady int) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		pods, err := c.Client().CoreV1().Pods(namespace).List(c.Context(), metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to list pods: %w", err)
		}

		readyCount := 0
		for _, pod := range pods.Items {
			if IsPodReady(&pod) {
				readyCount++
			}
		}

		if readyCount >= minReady && len(pods.Items) > 0 {
			return nil
		}

		time.Sleep(5 * time.Second)
	}

	return fmt.Errorf("pods not ready after %v (expected at least %d ready)", timeout, minReady)
}

// ForNamespaceGone waits for a namespace to be fully deleted
func ForNamespaceGone(c Clients, namespace string, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		_, err := c.Client().CoreV1().Namespaces().Get(c.Context(), namespace, metav1.GetOptions{})
		if err != nil {
			return nil
		}

		time.Sleep(interval)
	}

	return fmt.Errorf("namespace %s deletion timed out after %v", namespace, timeout)
}

// IsPodReady checks if a pod is in Ready state
func IsPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}

	return false
}

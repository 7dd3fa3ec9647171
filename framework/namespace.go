package framework

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/redhat/tempo-loadgen/framework/k6"
	"github.com/redhat/tempo-loadgen/framework/wait"
)

// EnsureNamespace creates the test namespace if it doesn't exist
func (f *Framework) EnsureNamespace() error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   f.namespace,
			Labels: k6.ManagedLabels("namespace"),
		},
	}

	_, err := f.client.CoreV1().Namespaces().Create(f.ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace %s: %w", f.namespace, err)
	}
	return nil
}

// DeleteNamespace deletes the test namespace and waits for it to be gone
func (f *Framework) DeleteNamespace() error {
	err := f.client.CoreV1().Namespaces().Delete(f.ctx, f.namespace, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete namespace %s: %w", f.namespace, err)
	}

	return wait.ForNamespaceGone(f, f.namespace, f.config.NamespaceTimeout, f.config.NamespacePollInterval)
}

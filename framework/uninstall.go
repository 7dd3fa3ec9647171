package framework

import (
	"context"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/redhat/tempo-loadgen/framework/concurrent"
	"github.com/redhat/tempo-loadgen/framework/gvr"
	"github.com/redhat/tempo-loadgen/framework/k6"
)

// Uninstall removes everything this tool created: managed custom resources,
// the script ConfigMap, the test namespace, and finally the k6 operator.
// Cleanup is best-effort: every phase runs even when an earlier one failed,
// failures are logged as warnings, and an error is returned only when no
// phase succeeded. Missing resources are not an error.
func (f *Framework) Uninstall() error {
	f.logger.WithField("namespace", f.namespace).Info("starting uninstall")

	phases := []struct {
		name string
		run  func() error
	}{
		{"custom resources", f.deleteManagedCRs},
		{"configmaps", f.deleteScriptConfigMap},
		{"namespace", f.DeleteNamespace},
		{"operator", func() error { return k6.UninstallOperator(f) }},
	}

	var errs []error
	for _, phase := range phases {
		if err := phase.run(); err != nil {
			f.logger.WithError(err).Warnf("cleanup of %s failed, continuing", phase.name)
			errs = append(errs, NewCleanupError(phase.name, err))
		}
	}

	if len(errs) == len(phases) {
		return fmt.Errorf("uninstall removed nothing: %w", errors.Join(errs...))
	}

	if len(errs) > 0 {
		f.logger.Warnf("uninstall completed, %d of %d cleanup phases failed", len(errs), len(phases))
		return nil
	}

	f.logger.Info("uninstall completed")
	return nil
}

// deleteManagedCRs finds and deletes managed custom resources across all the
// resource types this tool creates, in parallel
func (f *Framework) deleteManagedCRs() error {
	labelSelector := fmt.Sprintf("%s=%s", k6.LabelManagedBy, k6.LabelManagedByValue)

	return concurrent.ForEachWithLimit(f.ctx, gvr.AllManagedCRs(), 2, func(ctx context.Context, resource schema.GroupVersionResource) error {
		list, err := f.dynamicClient.Resource(resource).Namespace(f.namespace).List(ctx, metav1.ListOptions{
			LabelSelector: labelSelector,
		})
		if err != nil {
			if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
				return nil
			}
			return fmt.Errorf("failed to list %s: %w", resource.Resource, err)
		}

		for _, item := range list.Items {
			f.logger.WithFields(map[string]interface{}{
				"resource": resource.Resource,
				"name":     item.GetName(),
			}).Debug("deleting managed resource")

			err := f.dynamicClient.Resource(resource).Namespace(f.namespace).Delete(ctx, item.GetName(), metav1.DeleteOptions{})
			if err != nil && !apierrors.IsNotFound(err) {
				return fmt.Errorf("failed to delete %s/%s: %w", resource.Resource, item.GetName(), err)
			}
		}
		return nil
	})
}

func (f *Framework) deleteScriptConfigMap() error {
	err := f.client.CoreV1().ConfigMaps(f.namespace).Delete(f.ctx, k6.ScriptsConfigMap, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ConfigMap %s: %w", k6.ScriptsConfigMap, err)
	}
	return nil
}

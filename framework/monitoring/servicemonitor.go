package monitoring

import (
	"context"
	"fmt"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	monitoringclientset "github.com/prometheus-operator/prometheus-operator/pkg/client/versioned"
	"github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/redhat/tempo-loadgen/framework/k6"
	"github.com/redhat/tempo-loadgen/framework/retry"
)

// RunnerServiceMonitor is the name of the ServiceMonitor scraping k6 runners
const RunnerServiceMonitor = "k6-runners"

// Clients provides access to the clients needed for monitoring wiring
type Clients interface {
	Client() kubernetes.Interface
	MonitoringClient() monitoringclientset.Interface
	Context() context.Context
	Namespace() string
	Logger() logrus.FieldLogger
}

// EnsureServiceMonitor creates or updates the ServiceMonitor that scrapes k6
// runner pods. Conflicting updates are retried; anything else bubbles up so
// the caller can downgrade it to a warning.
func EnsureServiceMonitor(c Clients) error {
	namespace := c.Namespace()

	desired := &monitoringv1.ServiceMonitor{
		ObjectMeta: metav1.ObjectMeta{
			Name:      RunnerServiceMonitor,
			Namespace: namespace,
			Labels:    k6.ManagedLabels("monitoring"),
		},
		Spec: monitoringv1.ServiceMonitorSpec{
			Selector: metav1.LabelSelector{
				MatchLabels: map[string]string{
					k6.LabelManagedBy: k6.LabelManagedByValue,
				},
			},
			NamespaceSelector: monitoringv1.NamespaceSelector{
				MatchNames: []string{namespace},
			},
			Endpoints: []monitoringv1.Endpoint{
				{
					Port:     "metrics",
					Path:     "/metrics",
					Interval: "15s",
				},
			},
		},
	}

	smClient := c.MonitoringClient().MonitoringV1().ServiceMonitors(namespace)

	err := retry.Do(c.Context(), func(ctx context.Context) error {
		_, err := smClient.Create(ctx, desired, metav1.CreateOptions{})
		if err == nil {
			return nil
		}
		if !apierrors.IsAlreadyExists(err) {
			return err
		}

		existing, err := smClient.Get(ctx, RunnerServiceMonitor, metav1.GetOptions{})
		if err != nil {
			return err
		}

		existing.Labels = desired.Labels
		existing.Spec = desired.Spec
		_, err = smClient.Update(ctx, existing, metav1.UpdateOptions{})
		return err
	}, retry.WithRetryIf(func(err error) bool {
		return apierrors.IsConflict(err) || apierrors.IsAlreadyExists(err)
	}))
	if err != nil {
		return fmt.Errorf("failed to ensure ServiceMonitor %s: %w", RunnerServiceMonitor, err)
	}

	c.Logger().WithField("servicemonitor", RunnerServiceMonitor).Info("metrics scraping wired")
	return nil
}

// DeleteServiceMonitor removes the runner ServiceMonitor; NotFound is ignored
func DeleteServiceMonitor(c Clients) error {
	err := c.MonitoringClient().MonitoringV1().ServiceMonitors(c.Namespace()).Delete(c.Context(), RunnerServiceMonitor, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ServiceMonitor %s: %w", RunnerServiceMonitor, err)
	}
	return nil
}

package k6

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/redhat/tempo-loadgen/framework/gvr"
	"github.com/redhat/tempo-loadgen/framework/retry"
)

// Apply creates a TestRun from the given object, replacing any previous run
// with the same name. The operator picks the object up and schedules runner
// pods for it.
func Apply(c Clients, obj *unstructured.Unstructured) error {
	namespace := c.Namespace()
	name := obj.GetName()
	client := c.DynamicClient().Resource(gvr.TestRun).Namespace(namespace)

	// Remove the previous run so the operator starts fresh
	policy := metav1.DeletePropagationBackground
	err := client.Delete(c.Context(), name, metav1.DeleteOptions{PropagationPolicy: &policy})
	if err == nil {
		// Give the operator a moment to tear down the old runner jobs
		if err := waitForTestRunGone(c, name, 30*time.Second); err != nil {
			c.Logger().WithError(err).Warn("previous TestRun not fully removed, creating anyway")
		}
	} else if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete previous TestRun %s: %w", name, err)
	}

	if obj.GetNamespace() == "" {
		obj.SetNamespace(namespace)
	}

	if _, err := client.Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create TestRun %s: %w", name, err)
	}

	c.Logger().WithField("testrun", name).Info("created TestRun")
	return nil
}

// Delete removes a TestRun; NotFound is not an error
func Delete(c Clients, name string) error {
	err := c.DynamicClient().Resource(gvr.TestRun).Namespace(c.Namespace()).Delete(c.Context(), name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete TestRun %s: %w", name, err)
	}
	return nil
}

// GetStage reads the TestRun's status.stage field once
func GetStage(c Clients, name string) (Stage, error) {
	obj, err := c.DynamicClient().Resource(gvr.TestRun).Namespace(c.Namespace()).Get(c.Context(), name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get TestRun %s: %w", name, err)
	}

	stage, _, err := unstructured.NestedString(obj.Object, "status", "stage")
	if err != nil {
		return "", fmt.Errorf("failed to read status.stage of TestRun %s: %w", name, err)
	}

	return Stage(stage), nil
}

// WaitForCompletion polls the TestRun's stage until it reaches a terminal
// value or the timeout expires. Returns the last observed stage.
func WaitForCompletion(c Clients, name string, timeout, interval time.Duration) (Stage, error) {
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	var last Stage

	err := wait.PollUntilContextCancel(ctx, interval, true, func(ctx context.Context) (bool, error) {
		obj, err := c.DynamicClient().Resource(gvr.TestRun).Namespace(c.Namespace()).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}

		stage, _, _ := unstructured.NestedString(obj.Object, "status", "stage")
		last = Stage(stage)

		if last.Terminal() {
			return true, nil
		}

		c.Logger().WithField("testrun", name).Debugf("stage: %s", orPending(last))
		return false, nil
	})
	if err != nil {
		return last, fmt.Errorf("waiting for TestRun %s: %w", name, err)
	}

	return last, nil
}

func orPending(s Stage) string {
	if s == "" {
		return "(pending)"
	}
	return string(s)
}

func waitForTestRunGone(c Clients, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := c.DynamicClient().Resource(gvr.TestRun).Namespace(c.Namespace())

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		_, err := client.Get(c.Context(), name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return nil
		}

		time.Sleep(2 * time.Second)
	}

	return fmt.Errorf("TestRun %s still present after %v", name, timeout)
}

// RunnerLogs retrieves the logs of the first runner pod of a TestRun. The
// operator labels runner pods with k6_cr=<testrun name>.
func RunnerLogs(c Clients, name string) (string, error) {
	namespace := c.Namespace()
	client := c.Client()

	// Runner pods can lag behind the TestRun, retry the lookup briefly
	pods, err := retry.DoWithData(c.Context(), func(ctx context.Context) (*corev1.PodList, error) {
		list, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: fmt.Sprintf("k6_cr=%s", name),
		})
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to list runner pods: %w", err))
		}
		if len(list.Items) == 0 {
			return nil, fmt.Errorf("no runner pods found for TestRun %s", name)
		}
		return list, nil
	}, retry.WithMaxAttempts(3))
	if err != nil {
		return "", err
	}

	podName := pods.Items[0].Name

	req := client.CoreV1().Pods(namespace).GetLogs(podName, &corev1.PodLogOptions{})
	stream, err := req.Stream(c.Context())
	if err != nil {
		return "", fmt.Errorf("failed to stream logs of pod %s: %w", podName, err)
	}
	defer stream.Close()

	var logs strings.Builder
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		logs.WriteString(scanner.Text())
		logs.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return logs.String(), fmt.Errorf("error reading logs: %w", err)
	}

	return logs.String(), nil
}

// ListManaged returns the names of all TestRuns carrying the managed label
func ListManaged(c Clients) ([]string, error) {
	list, err := c.DynamicClient().Resource(gvr.TestRun).Namespace(c.Namespace()).List(c.Context(), metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", LabelManagedBy, LabelManagedByValue),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list TestRuns: %w", err)
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}
	return names, nil
}

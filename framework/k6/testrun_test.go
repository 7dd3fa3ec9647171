package k6

import (
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/redhat/tempo-loadgen/framework/gvr"
)

func testRunObject(t *testing.T, name, namespace string, stage Stage) *unstructured.Unstructured {
	t.Helper()

	obj := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "k6.io/v1alpha1",
			"kind":       "TestRun",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
				"labels": map[string]interface{}{
					LabelManagedBy: LabelManagedByValue,
				},
			},
		},
	}
	if stage != "" {
		obj.Object["status"] = map[string]interface{}{"stage": string(stage)}
	}
	return obj
}

func TestApplyCreatesTestRun(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-distributor", "k6-loadtest", "")

	if err := Apply(c, obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Get(c.Context(), "k6-distributor", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("expected TestRun to exist: %v", err)
	}
	if got.GetName() != "k6-distributor" {
		t.Errorf("unexpected name %s", got.GetName())
	}
}

func TestApplyReplacesPreviousRun(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")

	if err := Apply(c, testRunObject(t, "k6-querier", "k6-loadtest", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Apply(c, testRunObject(t, "k6-querier", "k6-loadtest", "")); err != nil {
		t.Fatalf("unexpected error on re-apply: %v", err)
	}
}

func TestApplySetsNamespaceWhenMissing(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-gateway", "", "")

	if err := Apply(c, obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Get(c.Context(), "k6-gateway", metav1.GetOptions{}); err != nil {
		t.Fatalf("expected TestRun in the client namespace: %v", err)
	}
}

func TestDeleteToleratesNotFound(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	if err := Delete(c, "never-existed"); err != nil {
		t.Errorf("expected NotFound to be tolerated, got %v", err)
	}
}

func TestGetStage(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-compactor", "k6-loadtest", StageFinished)
	if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	stage, err := GetStage(c, "k6-compactor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != StageFinished {
		t.Errorf("expected stage finished, got %q", stage)
	}
}

func TestGetStageMissingStatus(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-ingester", "k6-loadtest", "")
	if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	stage, err := GetStage(c, "k6-ingester")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != "" {
		t.Errorf("expected empty stage for missing status, got %q", stage)
	}
}

func TestGetStageNotFound(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	if _, err := GetStage(c, "absent"); err == nil {
		t.Error("expected error for missing TestRun")
	}
}

func TestWaitForCompletionAlreadyTerminal(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-distributor", "k6-loadtest", StageError)
	if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	stage, err := WaitForCompletion(c, "k6-distributor", 5*time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != StageError {
		t.Errorf("expected stage error, got %q", stage)
	}
}

func TestWaitForCompletionTimesOut(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	obj := testRunObject(t, "k6-querier", "k6-loadtest", StageStarted)
	if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	stage, err := WaitForCompletion(c, "k6-querier", 50*time.Millisecond, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if stage != StageStarted {
		t.Errorf("expected last observed stage started, got %q", stage)
	}
}

func TestListManaged(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")
	for _, name := range []string{"k6-distributor", "k6-querier"} {
		obj := testRunObject(t, name, "k6-loadtest", "")
		if _, err := c.DynamicClient().Resource(gvr.TestRun).Namespace("k6-loadtest").Create(c.Context(), obj, metav1.CreateOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	names, err := ListManaged(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 managed TestRuns, got %d (%v)", len(names), names)
	}
}

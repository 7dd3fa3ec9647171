package k6

import (
	"errors"
	"strings"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/redhat/tempo-loadgen/framework/config"
)

func establishedTestRunCRD() *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: TestRunCRDName},
		Status: apiextensionsv1.CustomResourceDefinitionStatus{
			Conditions: []apiextensionsv1.CustomResourceDefinitionCondition{
				{Type: apiextensionsv1.Established, Status: apiextensionsv1.ConditionTrue},
			},
		},
	}
}

func readyControllerDeployment() *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      OperatorDeployment,
			Namespace: OperatorNamespace,
		},
		Status: appsv1.DeploymentStatus{
			Replicas:      1,
			ReadyReplicas: 1,
		},
	}
}

func TestManagedLabels(t *testing.T) {
	labels := ManagedLabels("operator")
	if labels[LabelManagedBy] != LabelManagedByValue {
		t.Errorf("expected managed-by label %s, got %s", LabelManagedByValue, labels[LabelManagedBy])
	}
	if labels[LabelComponent] != "operator" {
		t.Errorf("expected component label operator, got %s", labels[LabelComponent])
	}
}

func TestInstallOperatorIdempotent(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest", readyControllerDeployment())

	// Simulate a previous install: the CRD already exists and is established.
	if _, err := c.APIExtensionsClient().ApiextensionsV1().CustomResourceDefinitions().Create(c.Context(), establishedTestRunCRD(), metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	if err := InstallOperator(c, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second install over existing resources must also succeed.
	if err := InstallOperator(c, cfg); err != nil {
		t.Fatalf("unexpected error on re-install: %v", err)
	}

	if _, err := c.Client().CoreV1().Namespaces().Get(c.Context(), OperatorNamespace, metav1.GetOptions{}); err != nil {
		t.Errorf("expected operator namespace to exist: %v", err)
	}
	if _, err := c.Client().RbacV1().ClusterRoles().Get(c.Context(), OperatorClusterRole, metav1.GetOptions{}); err != nil {
		t.Errorf("expected ClusterRole to exist: %v", err)
	}
	if _, err := c.Client().CoreV1().ServiceAccounts(OperatorNamespace).Get(c.Context(), OperatorServiceAccount, metav1.GetOptions{}); err != nil {
		t.Errorf("expected ServiceAccount to exist: %v", err)
	}
}

func TestInstallOperatorCRDNotEstablished(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")

	cfg := config.Default()
	cfg.CRDEstablishedTimeout = 50 * time.Millisecond
	cfg.CRDEstablishedPollInterval = 10 * time.Millisecond

	err := InstallOperator(c, cfg)
	if err == nil {
		t.Fatal("expected error when the CRD never becomes established")
	}
	if !errors.Is(err, ErrCRDNotEstablished) {
		t.Errorf("expected ErrCRDNotEstablished, got: %v", err)
	}
	if !strings.Contains(err.Error(), TestRunCRDName) {
		t.Errorf("error should name the CRD, got: %v", err)
	}
}

func TestUninstallOperatorEmptyCluster(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest")

	// Nothing exists; every delete hits NotFound and must be tolerated.
	if err := UninstallOperator(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUninstallOperatorRemovesResources(t *testing.T) {
	c := newFakeClients(t, "k6-loadtest", readyControllerDeployment())
	if _, err := c.APIExtensionsClient().ApiextensionsV1().CustomResourceDefinitions().Create(c.Context(), establishedTestRunCRD(), metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := UninstallOperator(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Client().AppsV1().Deployments(OperatorNamespace).Get(c.Context(), OperatorDeployment, metav1.GetOptions{}); err == nil {
		t.Error("expected operator deployment to be deleted")
	}
	if _, err := c.APIExtensionsClient().ApiextensionsV1().CustomResourceDefinitions().Get(c.Context(), TestRunCRDName, metav1.GetOptions{}); err == nil {
		t.Error("expected TestRun CRD to be deleted")
	}
}

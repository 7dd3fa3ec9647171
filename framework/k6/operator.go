package k6

import (
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/redhat/tempo-loadgen/framework/config"
	"github.com/redhat/tempo-loadgen/framework/wait"
)

// ErrCRDNotEstablished indicates the TestRun CRD never reached the
// Established condition after install
var ErrCRDNotEstablished = errors.New("CRD not established")

// Labels applied to every resource the installer creates
const (
	LabelManagedBy      = "app.kubernetes.io/managed-by"
	LabelManagedByValue = "tempo-loadgen"
	LabelComponent      = "app.kubernetes.io/component"
)

// ManagedLabels returns the labels stamped on all installer-owned resources
func ManagedLabels(component string) map[string]string {
	return map[string]string{
		LabelManagedBy: LabelManagedByValue,
		LabelComponent: component,
	}
}

// InstallOperator installs the k6 operator: namespace, TestRun CRD, RBAC and
// the controller deployment. The install is idempotent; existing resources are
// left in place.
func InstallOperator(c Clients, cfg *config.Config) error {
	log := c.Logger().WithField("namespace", OperatorNamespace)
	log.Info("installing k6 operator")

	if err := createOperatorNamespace(c); err != nil {
		return fmt.Errorf("failed to create operator namespace: %w", err)
	}

	if err := createTestRunCRD(c, cfg); err != nil {
		return fmt.Errorf("failed to create TestRun CRD: %w", err)
	}

	if err := createOperatorRBAC(c); err != nil {
		return fmt.Errorf("failed to create operator RBAC: %w", err)
	}

	if err := createControllerDeployment(c); err != nil {
		return fmt.Errorf("failed to create controller deployment: %w", err)
	}

	log.Info("waiting for operator controller to become ready")
	if err := wait.ForDeploymentReady(c, OperatorNamespace, OperatorDeployment, cfg.OperatorReadyTimeout, cfg.OperatorReadyPollInterval); err != nil {
		return fmt.Errorf("k6 operator did not become ready: %w", err)
	}

	log.Info("k6 operator installed")
	return nil
}

// UninstallOperator removes the operator deployment, RBAC, CRD and namespace.
// Deletion is best-effort; NotFound errors are ignored.
func UninstallOperator(c Clients) error {
	ctx := c.Context()
	client := c.Client()
	log := c.Logger()

	var errs []error

	if err := client.AppsV1().Deployments(OperatorNamespace).Delete(ctx, OperatorDeployment, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete operator deployment: %w", err))
	}

	if err := client.RbacV1().ClusterRoleBindings().Delete(ctx, OperatorClusterRoleBinding, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete ClusterRoleBinding: %w", err))
	}

	if err := client.RbacV1().ClusterRoles().Delete(ctx, OperatorClusterRole, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete ClusterRole: %w", err))
	}

	if err := client.CoreV1().ServiceAccounts(OperatorNamespace).Delete(ctx, OperatorServiceAccount, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete ServiceAccount: %w", err))
	}

	// Deleting the CRD cascades to any remaining TestRun objects
	if err := c.APIExtensionsClient().ApiextensionsV1().CustomResourceDefinitions().Delete(ctx, TestRunCRDName, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete TestRun CRD: %w", err))
	}

	if err := client.CoreV1().Namespaces().Delete(ctx, OperatorNamespace, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete operator namespace: %w", err))
	}

	for _, err := range errs {
		log.WithError(err).Warn("operator uninstall step failed")
	}

	// Six deletes are attempted; give up only when every one of them failed
	if len(errs) == 6 {
		return fmt.Errorf("no operator resources could be removed")
	}

	return nil
}

func createOperatorNamespace(c Clients) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   OperatorNamespace,
			Labels: ManagedLabels("operator"),
		},
	}

	_, err := c.Client().CoreV1().Namespaces().Create(c.Context(), ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// createTestRunCRD registers the TestRun CRD and waits until it is established.
// The schema is pragmatic: spec and status preserve unknown fields so the CRD
// stays compatible across operator versions.
func createTestRunCRD(c Clients, cfg *config.Config) error {
	preserveUnknown := true

	crd := &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{
			Name:   TestRunCRDName,
			Labels: ManagedLabels("operator"),
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: "k6.io",
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     "TestRun",
				ListKind: "TestRunList",
				Plural:   "testruns",
				Singular: "testrun",
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				{
					Name:    "v1alpha1",
					Served:  true,
					Storage: true,
					Subresources: &apiextensionsv1.CustomResourceSubresources{
						Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
					},
					Schema: &apiextensionsv1.CustomResourceValidation{
						OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
							Type: "object",
							Properties: map[string]apiextensionsv1.JSONSchemaProps{
								"spec": {
									Type:                   "object",
									XPreserveUnknownFields: &preserveUnknown,
								},
								"status": {
									Type:                   "object",
									XPreserveUnknownFields: &preserveUnknown,
								},
							},
						},
					},
				},
			},
		},
	}

	crdClient := c.APIExtensionsClient().ApiextensionsV1().CustomResourceDefinitions()

	_, err := crdClient.Create(c.Context(), crd, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}

	// Wait for the Established condition before TestRuns can be created
	deadline := time.Now().Add(cfg.CRDEstablishedTimeout)
	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		current, err := crdClient.Get(c.Context(), TestRunCRDName, metav1.GetOptions{})
		if err == nil && isCRDEstablished(current) {
			return nil
		}

		time.Sleep(cfg.CRDEstablishedPollInterval)
	}

	return fmt.Errorf("%w: %s did not become established after %v", ErrCRDNotEstablished, TestRunCRDName, cfg.CRDEstablishedTimeout)
}

func isCRDEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
			return true
		}
	}
	return false
}

func createOperatorRBAC(c Clients) error {
	ctx := c.Context()
	client := c.Client()

	sa := &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      OperatorServiceAccount,
			Namespace: OperatorNamespace,
			Labels:    ManagedLabels("operator"),
		},
	}
	if _, err := client.CoreV1().ServiceAccounts(OperatorNamespace).Create(ctx, sa, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create ServiceAccount: %w", err)
	}

	clusterRole := &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{
			Name:   OperatorClusterRole,
			Labels: ManagedLabels("operator"),
		},
		Rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{"k6.io"},
				Resources: []string{"testruns", "testruns/status", "testruns/finalizers"},
				Verbs:     []string{"get", "list", "watch", "create", "update", "patch", "delete"},
			},
			{
				APIGroups: []string{"batch"},
				Resources: []string{"jobs"},
				Verbs:     []string{"get", "list", "watch", "create", "update", "patch", "delete"},
			},
			{
				APIGroups: []string{""},
				Resources: []string{"pods", "pods/log", "services", "configmaps", "secrets", "serviceaccounts"},
				Verbs:     []string{"get", "list", "watch", "create", "update", "patch", "delete"},
			},
			{
				APIGroups: []string{"coordination.k8s.io"},
				Resources: []string{"leases"},
				Verbs:     []string{"get", "list", "watch", "create", "update", "patch", "delete"},
			},
		},
	}
	if _, err := client.RbacV1().ClusterRoles().Create(ctx, clusterRole, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create ClusterRole: %w", err)
	}

	clusterRoleBinding := &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:   OperatorClusterRoleBinding,
			Labels: ManagedLabels("operator"),
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: "rbac.authorization.k8s.io",
			Kind:     "ClusterRole",
			Name:     OperatorClusterRole,
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:      "ServiceAccount",
				Name:      OperatorServiceAccount,
				Namespace: OperatorNamespace,
			},
		},
	}
	if _, err := client.RbacV1().ClusterRoleBindings().Create(ctx, clusterRoleBinding, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create ClusterRoleBinding: %w", err)
	}

	return nil
}

func createControllerDeployment(c Clients) error {
	replicas := int32(1)

	labels := ManagedLabels("operator")
	labels["control-plane"] = "controller-manager"

	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      OperatorDeployment,
			Namespace: OperatorNamespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{
					"control-plane": "controller-manager",
				},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{
						"control-plane": "controller-manager",
					},
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: OperatorServiceAccount,
					Containers: []corev1.Container{
						{
							Name:    "manager",
							Image:   OperatorImage,
							Command: []string{"/manager"},
							Args:    []string{"--leader-elect"},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("100m"),
									corev1.ResourceMemory: resource.MustParse("128Mi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("500m"),
									corev1.ResourceMemory: resource.MustParse("256Mi"),
								},
							},
						},
					},
				},
			},
		},
	}

	_, err := c.Client().AppsV1().Deployments(OperatorNamespace).Create(c.Context(), deployment, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

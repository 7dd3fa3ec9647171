package framework

import (
	"errors"
	"testing"
)

func TestResourceError(t *testing.T) {
	baseErr := errors.New("base error")
	resErr := NewResourceError("ConfigMap", "k6-loadtest", "k6-scripts", baseErr)

	expected := "ConfigMap k6-loadtest/k6-scripts: base error"
	if resErr.Error() != expected {
		t.Errorf("expected %q, got %q", expected, resErr.Error())
	}

	if !errors.Is(resErr, baseErr) {
		t.Error("expected ResourceError to wrap base error")
	}
}

func TestResourceError_ClusterScoped(t *testing.T) {
	baseErr := errors.New("base error")
	resErr := NewResourceError("ClusterRole", "", "k6-operator-manager-role", baseErr)

	expected := "ClusterRole k6-operator-manager-role: base error"
	if resErr.Error() != expected {
		t.Errorf("expected %q, got %q", expected, resErr.Error())
	}
}

func TestPrerequisiteError(t *testing.T) {
	baseErr := errors.New("CRD not found")
	preErr := NewPrerequisiteError("tempo-operator", baseErr)

	expected := "prerequisite check failed for tempo-operator: CRD not found"
	if preErr.Error() != expected {
		t.Errorf("expected %q, got %q", expected, preErr.Error())
	}

	if !errors.Is(preErr, baseErr) {
		t.Error("expected PrerequisiteError to wrap base error")
	}
}

func TestCleanupError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	cleanupErr := NewCleanupError("custom resources", err1, err2)

	if cleanupErr.Phase != "custom resources" {
		t.Errorf("expected phase 'custom resources', got %q", cleanupErr.Phase)
	}

	if !errors.Is(cleanupErr, err1) || !errors.Is(cleanupErr, err2) {
		t.Error("expected CleanupError to wrap both errors")
	}
}

func TestIsNotFound(t *testing.T) {
	wrapped := NewResourceError("TestRun", "k6-loadtest", "k6-distributor", ErrResourceNotFound)
	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound to match wrapped ErrResourceNotFound")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("expected IsNotFound to reject unrelated error")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(ErrContextCancelled) {
		t.Error("expected IsCancelled to match ErrContextCancelled")
	}
	if IsCancelled(ErrClusterConnection) {
		t.Error("expected IsCancelled to reject unrelated error")
	}
}

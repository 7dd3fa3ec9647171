package framework

import (
	"errors"
	"fmt"
)

// Sentinel errors for framework operations
var (
	// ErrNamespaceRequired indicates that a namespace was not provided
	ErrNamespaceRequired = errors.New("namespace is required")

	// ErrClusterConnection indicates failure to connect to the cluster
	ErrClusterConnection = errors.New("failed to connect to cluster")

	// ErrOperatorNotInstalled indicates that the k6 operator is not installed
	ErrOperatorNotInstalled = errors.New("k6 operator not installed")

	// ErrUnknownService indicates a service name outside the supported backends
	ErrUnknownService = errors.New("unknown service")

	// ErrPrerequisitesNotMet indicates that prerequisite checks failed
	ErrPrerequisitesNotMet = errors.New("prerequisites not met")

	// ErrResourceNotFound indicates that a resource was not found
	ErrResourceNotFound = errors.New("resource not found")

	// ErrContextCancelled indicates the operation was cancelled
	ErrContextCancelled = errors.New("operation cancelled")
)

// ResourceError represents an error related to a specific resource
type ResourceError struct {
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Kind, e.Namespace, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(kind, namespace, name string, err error) *ResourceError {
	return &ResourceError{
		Kind:      kind,
		Namespace: namespace,
		Name:      name,
		Err:       err,
	}
}

// PrerequisiteError represents an error when checking prerequisites
type PrerequisiteError struct {
	Component string
	Err       error
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite check failed for %s: %v", e.Component, e.Err)
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// NewPrerequisiteError creates a new PrerequisiteError
func NewPrerequisiteError(component string, err error) *PrerequisiteError {
	return &PrerequisiteError{
		Component: component,
		Err:       err,
	}
}

// CleanupError represents errors during cleanup operations
type CleanupError struct {
	Phase string
	Errs  []error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed during %s phase: %v", e.Phase, errors.Join(e.Errs...))
}

func (e *CleanupError) Unwrap() error {
	return errors.Join(e.Errs...)
}

// NewCleanupError creates a new CleanupError
func NewCleanupError(phase string, errs ...error) *CleanupError {
	return &CleanupError{
		Phase: phase,
		Errs:  errs,
	}
}

// IsNotFound returns true if the error indicates a resource was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsCancelled returns true if the error indicates cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrContextCancelled)
}

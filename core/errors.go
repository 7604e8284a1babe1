package core

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

var (
	ErrUnknownEventType = errors.New("unknown watch event type")
	ErrStaleEvent       = errors.New("stale watch event")
	ErrMissingObject    = errors.New("watch event without object")
)

// TransportError carries the status of a watch ERROR event.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("watch error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// statusErrorFromObject decodes the metav1.Status an API server sends with ERROR events.
func statusErrorFromObject(obj *unstructured.Unstructured) error {
	if obj == nil {
		return errors.New("watch error without status")
	}
	status := &metav1.Status{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, status); err != nil {
		return fmt.Errorf("decode watch error status: %w", err)
	}
	if status.Status == "" {
		status.Status = metav1.StatusFailure
	}
	return &apierrors.StatusError{ErrStatus: *status}
}

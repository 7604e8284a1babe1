package domain

import (
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ResourceObject represents a ResourceObject model.
type ResourceObject struct {
	Kind              string
	Namespace         string
	Name              string
	UID               string
	ResourceVersion   string
	CreationTimestamp time.Time
	Checksum          string
	// Fields holds kind specific values projected by the constructor, e.g. a pod phase.
	Fields map[string]string
	Object *unstructured.Unstructured
}

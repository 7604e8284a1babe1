package domain

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
)

// WatchEvent represents a WatchEvent model.
type WatchEvent struct {
	Type   watch.EventType
	Object *unstructured.Unstructured
}

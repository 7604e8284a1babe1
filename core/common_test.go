package core

import (
	"github.com/CloudEngineHub/headlamp/domain"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
)

var podsScope = domain.KindScope{
	Kind:      &domain.Kind{Version: "v1", Resource: "pods"},
	Namespace: "default",
}

func newPod(uid, resourceVersion, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"status": map[string]interface{}{
			"phase": "Running",
		},
	}}
	obj.SetName(name)
	obj.SetNamespace("default")
	obj.SetUID(types.UID(uid))
	obj.SetResourceVersion(resourceVersion)
	return obj
}

func event(t watch.EventType, obj *unstructured.Unstructured) domain.WatchEvent {
	return domain.WatchEvent{Type: t, Object: obj}
}

func listOf(resourceVersion string, objs ...*unstructured.Unstructured) domain.ResourceList {
	list := domain.ResourceList{Kind: podsScope.Kind, ResourceVersion: resourceVersion}
	for _, obj := range objs {
		list.Items = append(list.Items, DefaultConstructor(obj))
	}
	return list
}

type uidVersion struct {
	UID             string
	ResourceVersion string
}

func versions(list domain.ResourceList) []uidVersion {
	out := make([]uidVersion, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, uidVersion{UID: item.UID, ResourceVersion: item.ResourceVersion})
	}
	return out
}

package core

import (
	"strconv"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Constructor turns a raw API object into the domain object kept in lists.
type Constructor func(obj *unstructured.Unstructured) domain.ResourceObject

// Constructors resolves the constructor of a kind; kinds without one use DefaultConstructor.
type Constructors struct {
	byKind maps.SafeMap[string, Constructor]
}

func NewConstructors() *Constructors {
	c := &Constructors{}
	c.Register("", "pods", PodConstructor)
	c.Register("apps", "deployments", DeploymentConstructor)
	return c
}

func constructorKey(group, resource string) string {
	return group + "/" + resource
}

// Register sets the constructor of group/resource, for every version.
func (c *Constructors) Register(group, resource string, fn Constructor) {
	c.byKind.Set(constructorKey(group, resource), fn)
}

func (c *Constructors) For(kind *domain.Kind) Constructor {
	if kind == nil {
		return DefaultConstructor
	}
	if fn, ok := c.byKind.Load(constructorKey(kind.Group, kind.Resource)); ok {
		return fn
	}
	return DefaultConstructor
}

// DefaultConstructor keeps metadata and a canonical checksum of the object.
func DefaultConstructor(obj *unstructured.Unstructured) domain.ResourceObject {
	obj = obj.DeepCopy()
	utils.RemoveManagedFields(obj)
	resource := domain.ResourceObject{
		Kind:              obj.GetKind(),
		Namespace:         obj.GetNamespace(),
		Name:              obj.GetName(),
		UID:               string(obj.GetUID()),
		ResourceVersion:   obj.GetResourceVersion(),
		CreationTimestamp: obj.GetCreationTimestamp().Time,
		Fields:            map[string]string{},
		Object:            obj,
	}
	b, err := obj.MarshalJSON()
	if err != nil {
		logger.L().Debug("cannot marshal object", helpers.Error(err), helpers.String("name", resource.Name))
		return resource
	}
	checksum, err := utils.CanonicalHash(b)
	if err != nil {
		logger.L().Debug("cannot hash object", helpers.Error(err), helpers.String("name", resource.Name))
		return resource
	}
	resource.Checksum = checksum
	return resource
}

func PodConstructor(obj *unstructured.Unstructured) domain.ResourceObject {
	resource := DefaultConstructor(obj)
	if phase, ok, _ := unstructured.NestedString(obj.Object, "status", "phase"); ok {
		resource.Fields["phase"] = phase
	}
	if node, ok, _ := unstructured.NestedString(obj.Object, "spec", "nodeName"); ok {
		resource.Fields["node"] = node
	}
	statuses, _, _ := unstructured.NestedSlice(obj.Object, "status", "containerStatuses")
	var restarts, ready int64
	for _, s := range statuses {
		status, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		if count, ok, _ := unstructured.NestedInt64(status, "restartCount"); ok {
			restarts += count
		}
		if isReady, ok, _ := unstructured.NestedBool(status, "ready"); ok && isReady {
			ready++
		}
	}
	resource.Fields["restarts"] = strconv.FormatInt(restarts, 10)
	resource.Fields["ready"] = strconv.FormatInt(ready, 10) + "/" + strconv.Itoa(len(statuses))
	return resource
}

func DeploymentConstructor(obj *unstructured.Unstructured) domain.ResourceObject {
	resource := DefaultConstructor(obj)
	replicas, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	readyReplicas, _, _ := unstructured.NestedInt64(obj.Object, "status", "readyReplicas")
	resource.Fields["replicas"] = strconv.FormatInt(replicas, 10)
	resource.Fields["ready"] = strconv.FormatInt(readyReplicas, 10) + "/" + strconv.FormatInt(replicas, 10)
	return resource
}

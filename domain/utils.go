package domain

import (
	"context"
	"strings"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// String returns group/version/resource as a string.
func (k Kind) String() string {
	return strings.Join([]string{k.Group, k.Version, k.Resource}, "/")
}

// GroupVersionResource converts the kind for use with the dynamic client.
func (k Kind) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: k.Group, Version: k.Version, Resource: k.Resource}
}

func KindFromString(ctx context.Context, kind string) *Kind {
	parts := strings.Split(kind, "/")
	if len(parts) != 3 {
		logger.L().Ctx(ctx).Error("failed creating kind from string", helpers.String("kind", kind))
		return nil
	}
	return &Kind{
		Group:    parts[0],
		Version:  parts[1],
		Resource: parts[2],
	}
}

func KindFromGroupVersionResource(gvr schema.GroupVersionResource) *Kind {
	return &Kind{
		Group:    gvr.Group,
		Version:  gvr.Version,
		Resource: gvr.Resource,
	}
}

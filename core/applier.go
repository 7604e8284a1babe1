package core

import (
	"fmt"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/utils"
	"k8s.io/apimachinery/pkg/watch"
)

type applyOptions struct {
	monotonic bool
}

type ApplyOption func(*applyOptions)

// WithMonotonicVersions rejects updates older than the stored item and keeps the list
// resourceVersion from moving backwards. Opaque (non numeric) versions are always accepted.
func WithMonotonicVersions() ApplyOption {
	return func(o *applyOptions) {
		o.monotonic = true
	}
}

// ApplyUpdate folds one watch event into list and returns the resulting list.
// list is never modified. ERROR and unknown events return list unchanged together with an error.
func ApplyUpdate(list domain.ResourceList, event domain.WatchEvent, construct Constructor, opts ...ApplyOption) (domain.ResourceList, error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch event.Type {
	case watch.Added, watch.Modified, watch.Deleted:
	case watch.Error:
		return list, &TransportError{Err: statusErrorFromObject(event.Object)}
	default:
		return list, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}
	if event.Object == nil {
		return list, fmt.Errorf("%s: %w", event.Type, ErrMissingObject)
	}

	uid := string(event.Object.GetUID())
	resourceVersion := event.Object.GetResourceVersion()
	idx := list.IndexOf(uid)

	next := domain.ResourceList{
		Kind:            list.Kind,
		ResourceVersion: resourceVersion,
		Items:           list.Items,
	}
	if o.monotonic {
		if cmp, ok := utils.CompareResourceVersions(resourceVersion, list.ResourceVersion); ok && cmp < 0 {
			next.ResourceVersion = list.ResourceVersion
		}
	}

	switch event.Type {
	case watch.Added, watch.Modified:
		if o.monotonic && idx >= 0 {
			current := list.Items[idx].ResourceVersion
			if cmp, ok := utils.CompareResourceVersions(resourceVersion, current); ok && cmp < 0 {
				return list, fmt.Errorf("%w: uid %s at %s, cached at %s", ErrStaleEvent, uid, resourceVersion, current)
			}
		}
		item := construct(event.Object)
		if idx >= 0 {
			items := make([]domain.ResourceObject, len(list.Items))
			copy(items, list.Items)
			items[idx] = item
			next.Items = items
		} else {
			items := make([]domain.ResourceObject, len(list.Items), len(list.Items)+1)
			copy(items, list.Items)
			next.Items = append(items, item)
		}
	case watch.Deleted:
		if idx >= 0 {
			items := make([]domain.ResourceObject, 0, len(list.Items)-1)
			items = append(items, list.Items[:idx]...)
			next.Items = append(items, list.Items[idx+1:]...)
		}
	}
	return next, nil
}

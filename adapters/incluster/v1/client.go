package incluster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
)

const listPageSize = 500

// resourceVersionGetter is an interface used to get resource version from events.
type resourceVersionGetter interface {
	GetResourceVersion() string
}

var errWatchClosed = errors.New("watch channel closed")

// Client lists and watches one configured resource and feeds the results into the cache.
type Client struct {
	client   dynamic.Interface
	cache    *core.ResourceCache
	resource config.Resource
	scope    domain.KindScope
	res      schema.GroupVersionResource
	resync   chan struct{}

	mu           sync.Mutex
	subscription *core.Subscription

	// only touched by the Run goroutine
	resourceVersion string
	needList        bool
}

func NewClient(client dynamic.Interface, cache *core.ResourceCache, r config.Resource) *Client {
	return &Client{
		client:   client,
		cache:    cache,
		resource: r,
		scope:    r.Scope(),
		res:      r.Kind().GroupVersionResource(),
		resync:   make(chan struct{}, 1),
		needList: true,
	}
}

func (c *Client) Scope() domain.KindScope {
	return c.scope
}

// Start makes the scope known to the cache, so projection clients can subscribe before the first listing lands.
func (c *Client) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscription != nil {
		return fmt.Errorf("client for %s already started", c.scope)
	}
	c.subscription = c.cache.Subscribe(c.scope, func(domain.ResourceList) {})
	return nil
}

// Run lists and watches until ctx is done, relisting after watch errors and resync requests.
func (c *Client) Run(ctx context.Context) error {
	defer c.stop()
	notify := func(err error, d time.Duration) {
		if !errors.Is(err, errWatchClosed) {
			logger.L().Ctx(ctx).Warning("watch", helpers.Error(err),
				helpers.String("resource", c.res.Resource),
				helpers.String("retry in", d.String()))
		}
	}
	for {
		err := backoff.RetryNotify(func() error {
			return c.listAndWatch(ctx)
		}, backoff.WithContext(utils.NewBackOff(), ctx), notify)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.L().Ctx(ctx).Error("giving up watch", helpers.Error(err),
				helpers.String("resource", c.res.Resource))
			return err
		}
	}
}

// Resync asks the running client to relist. Requests made while one is pending are merged.
func (c *Client) Resync() {
	select {
	case c.resync <- struct{}{}:
	default:
	}
}

func (c *Client) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscription != nil {
		c.subscription.Close()
		c.subscription = nil
	}
}

// listAndWatch returns nil only when a resync was requested.
func (c *Client) listAndWatch(ctx context.Context) error {
	if c.needList {
		if err := c.list(ctx); err != nil {
			return err
		}
		c.needList = false
	}
	watcher, err := c.client.Resource(c.res).Namespace(c.resource.Namespace).Watch(ctx, metav1.ListOptions{
		ResourceVersion:     c.resourceVersion,
		AllowWatchBookmarks: true,
	})
	if err != nil {
		return fmt.Errorf("client resource: %w", err)
	}
	defer watcher.Stop()
	logger.L().Info("starting watch", helpers.String("resource", c.res.Resource),
		helpers.String("resourceVersion", c.resourceVersion))
	for {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case <-c.resync:
			logger.L().Ctx(ctx).Debug("resync requested", helpers.String("resource", c.res.Resource))
			c.needList = true
			return nil
		case event, chanActive := <-watcher.ResultChan():
			if !chanActive {
				return errWatchClosed
			}
			if err := c.handleEvent(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event watch.Event) error {
	if event.Type == watch.Error {
		obj, err := toUnstructured(event.Object)
		if err != nil {
			return fmt.Errorf("decode watch error: %w", err)
		}
		// the resource version is unusable after an error, start over from a fresh listing
		c.needList = true
		c.resourceVersion = ""
		if err := c.cache.OnEvent(ctx, c.scope, domain.WatchEvent{Type: watch.Error, Object: obj}); err != nil {
			return err
		}
		return errors.New("watch error")
	}
	// set resource version to resume watch from
	// inspired by https://github.com/kubernetes/client-go/blob/5a0a4247921dd9e72d158aaa6c1ee124aba1da80/tools/watch/retrywatcher.go#L157
	if metaObject, ok := event.Object.(resourceVersionGetter); ok {
		c.resourceVersion = metaObject.GetResourceVersion()
	}
	if event.Type == watch.Bookmark {
		return nil
	}
	obj, err := toUnstructured(event.Object)
	if err != nil {
		logger.L().Ctx(ctx).Warning("skipping undecodable watch event", helpers.Error(err),
			helpers.String("resource", c.res.Resource))
		return nil
	}
	utils.RemoveManagedFields(obj)
	return c.cache.OnEvent(ctx, c.scope, domain.WatchEvent{Type: event.Type, Object: obj})
}

func (c *Client) list(ctx context.Context) error {
	var objects []*unstructured.Unstructured
	var resourceVersion string
	opts := metav1.ListOptions{Limit: listPageSize}
	for {
		list, err := c.client.Resource(c.res).Namespace(c.resource.Namespace).List(ctx, opts)
		if err != nil {
			return fmt.Errorf("list resources: %w", err)
		}
		for i := range list.Items {
			obj := &list.Items[i]
			utils.RemoveManagedFields(obj)
			objects = append(objects, obj)
		}
		resourceVersion = list.GetResourceVersion()
		if list.GetContinue() == "" {
			break
		}
		opts.Continue = list.GetContinue()
	}
	logger.L().Ctx(ctx).Debug("listed resources", helpers.String("resource", c.res.Resource),
		helpers.Int("items", len(objects)))
	c.cache.Replace(ctx, c.scope, objects, resourceVersion)
	c.resourceVersion = resourceVersion
	return nil
}

func toUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	if obj == nil {
		return nil, errors.New("missing object")
	}
	if u, ok := obj.(*unstructured.Unstructured); ok {
		return u, nil
	}
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}
	return &unstructured.Unstructured{Object: content}, nil
}

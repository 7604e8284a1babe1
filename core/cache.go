package core

import (
	"context"
	"errors"
	"sync"

	"github.com/CloudEngineHub/headlamp/domain"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
)

// SnapshotFunc receives complete list snapshots. Snapshots are never modified after delivery.
type SnapshotFunc func(list domain.ResourceList)

type subscriber struct {
	id string
	fn SnapshotFunc
}

// entry is the single-writer state of one scope.
type entry struct {
	mu          sync.Mutex
	scope       domain.KindScope
	list        domain.ResourceList
	construct   Constructor
	subscribers []subscriber
	closed      bool
}

// ResourceCache keeps one list per subscribed scope and republishes it after every change.
type ResourceCache struct {
	mu           sync.Mutex // guards entry creation and removal
	entries      maps.SafeMap[string, *entry]
	constructors *Constructors
	reporter     ErrorReporter
	applyOpts    []ApplyOption
}

type CacheOption func(*ResourceCache)

func WithConstructors(constructors *Constructors) CacheOption {
	return func(c *ResourceCache) {
		c.constructors = constructors
	}
}

func WithApplyOptions(opts ...ApplyOption) CacheOption {
	return func(c *ResourceCache) {
		c.applyOpts = append(c.applyOpts, opts...)
	}
}

func NewResourceCache(reporter ErrorReporter, opts ...CacheOption) *ResourceCache {
	c := &ResourceCache{
		constructors: NewConstructors(),
		reporter:     reporter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscription ties a subscriber to a scope; closing the last one discards the list.
type Subscription struct {
	id    string
	scope domain.KindScope
	cache *ResourceCache
	once  sync.Once
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) Scope() domain.KindScope {
	return s.scope
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.unsubscribe(s.scope, s.id)
	})
}

// Subscribe registers fn for scope and immediately hands it the current snapshot.
func (c *ResourceCache) Subscribe(scope domain.KindScope, fn SnapshotFunc) *Subscription {
	c.mu.Lock()
	key := scope.String()
	e, ok := c.entries.Load(key)
	if !ok {
		e = &entry{
			scope:     scope,
			list:      domain.ResourceList{Kind: scope.Kind},
			construct: c.constructors.For(scope.Kind),
		}
		c.entries.Set(key, e)
		cachedScopesGauge.Inc()
		logger.L().Debug("created cached list", helpers.String("scope", key))
	}
	sub := &Subscription{id: uuid.NewString(), scope: scope, cache: c}
	// lock the entry before releasing c.mu; delivery holds only the entry lock
	e.mu.Lock()
	c.mu.Unlock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, subscriber{id: sub.id, fn: fn})
	deliver(e, subscriber{id: sub.id, fn: fn})
	return sub
}

func (c *ResourceCache) unsubscribe(scope domain.KindScope, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := scope.String()
	e, ok := c.entries.Load(key)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subscribers {
		if s.id == id {
			e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
			break
		}
	}
	if len(e.subscribers) == 0 {
		e.closed = true
		c.entries.Delete(key)
		cachedScopesGauge.Dec()
		logger.L().Debug("discarded cached list", helpers.String("scope", key))
	}
}

// CurrentSnapshot returns the published list of scope, if anyone subscribed to it.
func (c *ResourceCache) CurrentSnapshot(scope domain.KindScope) (domain.ResourceList, bool) {
	e, ok := c.entries.Load(scope.String())
	if !ok {
		return domain.ResourceList{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list, true
}

// Scopes lists the scopes that currently have subscribers.
func (c *ResourceCache) Scopes() []domain.KindScope {
	var scopes []domain.KindScope
	c.entries.Range(func(_ string, e *entry) bool {
		scopes = append(scopes, e.scope)
		return true
	})
	return scopes
}

// OnEvent applies one watch event to the list of scope.
// Only transport errors are returned; the caller decides whether to relist.
func (c *ResourceCache) OnEvent(ctx context.Context, scope domain.KindScope, event domain.WatchEvent) error {
	e, ok := c.entries.Load(scope.String())
	if !ok {
		logger.L().Debug("dropping event for unsubscribed scope", helpers.String("scope", scope.String()))
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	watchEventsCounter.WithLabelValues(kindLabel(scope), string(event.Type)).Inc()

	next, err := ApplyUpdate(e.list, event, e.construct, c.applyOpts...)
	if err != nil {
		var transportErr *TransportError
		switch {
		case errors.As(err, &transportErr):
			c.reporter.ReportError(ctx, scope, err)
			return err
		case errors.Is(err, ErrStaleEvent):
			staleEventsCounter.WithLabelValues(kindLabel(scope)).Inc()
			logger.L().Ctx(ctx).Debug("skipping stale event", helpers.Error(err), helpers.String("scope", scope.String()))
		default:
			logger.L().Ctx(ctx).Warning("ignoring watch event", helpers.Error(err), helpers.String("scope", scope.String()))
		}
		return nil
	}
	if event.Type != watch.Deleted && unchanged(e.list, next, string(event.Object.GetUID())) {
		return nil
	}
	e.list = next
	publish(e)
	return nil
}

// Replace installs a full listing of scope, as returned by a list or resync.
// Items that survive keep their position, new items are appended and vanished ones are dropped.
func (c *ResourceCache) Replace(ctx context.Context, scope domain.KindScope, objects []*unstructured.Unstructured, resourceVersion string) {
	e, ok := c.entries.Load(scope.String())
	if !ok {
		logger.L().Debug("dropping listing for unsubscribed scope", helpers.String("scope", scope.String()))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	previous := mapset.NewSet[string](e.list.UIDs()...)
	incoming := make(map[string]*unstructured.Unstructured, len(objects))
	for _, obj := range objects {
		incoming[string(obj.GetUID())] = obj
	}
	current := mapset.NewSet[string]()
	for uid := range incoming {
		current.Add(uid)
	}

	items := make([]domain.ResourceObject, 0, len(incoming))
	for _, item := range e.list.Items {
		if obj, ok := incoming[item.UID]; ok {
			items = append(items, e.construct(obj))
		}
	}
	added := current.Difference(previous)
	for _, obj := range objects {
		uid := string(obj.GetUID())
		if added.Contains(uid) {
			items = append(items, e.construct(obj))
			added.Remove(uid)
		}
	}

	removed := previous.Difference(current)
	logger.L().Ctx(ctx).Debug("replaced cached list",
		helpers.String("scope", scope.String()),
		helpers.Int("items", len(items)),
		helpers.Int("removed", removed.Cardinality()))
	e.list = domain.ResourceList{Kind: e.list.Kind, ResourceVersion: resourceVersion, Items: items}
	publish(e)
}

// Close discards every list; subscriptions closed afterwards are no-ops.
func (c *ResourceCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	c.entries.Range(func(key string, e *entry) bool {
		e.mu.Lock()
		e.closed = true
		e.subscribers = nil
		e.mu.Unlock()
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		c.entries.Delete(key)
	}
	cachedScopesGauge.Set(0)
}

func publish(e *entry) {
	snapshotsPublishedCounter.WithLabelValues(kindLabel(e.scope)).Inc()
	for _, s := range e.subscribers {
		deliver(e, s)
	}
}

func deliver(e *entry, s subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("snapshot subscriber panicked",
				helpers.String("scope", e.scope.String()),
				helpers.String("subscription", s.id),
				helpers.Interface("panic", r))
		}
	}()
	s.fn(e.list)
}

// unchanged reports whether an ADDED/MODIFIED event only repeated what is already cached.
func unchanged(previous, next domain.ResourceList, uid string) bool {
	if previous.ResourceVersion != next.ResourceVersion || len(previous.Items) != len(next.Items) {
		return false
	}
	idx := previous.IndexOf(uid)
	if idx < 0 {
		return false
	}
	before, after := previous.Items[idx], next.Items[idx]
	return before.Checksum != "" &&
		before.Checksum == after.Checksum &&
		before.ResourceVersion == after.ResourceVersion
}

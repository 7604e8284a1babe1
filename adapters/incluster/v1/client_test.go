package incluster

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"
)

var (
	podsResource = config.Resource{Version: "v1", Resource: "pods", Strategy: domain.CopyStrategy}
	podsGVR      = schema.GroupVersionResource{Version: "v1", Resource: "pods"}
)

func pod(uid string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":      "pod-" + uid,
			"namespace": "default",
			"uid":       uid,
		},
	}}
}

// newFakeClient returns a dynamic client whose watches are handed to the test through the returned channel.
func newFakeClient(objects ...runtime.Object) (*dynamicfake.FakeDynamicClient, chan *watch.FakeWatcher) {
	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{podsGVR: "PodList"}, objects...)
	watchers := make(chan *watch.FakeWatcher, 10)
	client.PrependWatchReactor("pods", func(clienttesting.Action) (bool, watch.Interface, error) {
		w := watch.NewFake()
		watchers <- w
		return true, w, nil
	})
	return client, watchers
}

func nextWatcher(t *testing.T, watchers chan *watch.FakeWatcher) *watch.FakeWatcher {
	t.Helper()
	select {
	case w := <-watchers:
		return w
	case <-time.After(5 * time.Second):
		t.Fatal("no watch started")
		return nil
	}
}

func cachedUIDs(cache *core.ResourceCache, scope domain.KindScope) func() []string {
	return func() []string {
		list, _ := cache.CurrentSnapshot(scope)
		return list.UIDs()
	}
}

func TestClient_ListAndWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var reported atomic.Int32
	cache := core.NewResourceCache(core.ErrorReporterFunc(func(context.Context, domain.KindScope, error) {
		reported.Add(1)
	}))
	dynClient, watchers := newFakeClient(pod("1"))
	client := NewClient(dynClient, cache, podsResource)
	require.NoError(t, client.Start(ctx))
	assert.Error(t, client.Start(ctx))

	done := make(chan error)
	go func() {
		done <- client.Run(ctx)
	}()
	uids := cachedUIDs(cache, client.Scope())

	// initial listing, then a watched addition
	w := nextWatcher(t, watchers)
	assert.Equal(t, []string{"1"}, uids())
	w.Add(pod("2"))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"1", "2"}, uids())
	}, time.Second, 10*time.Millisecond)

	// an expired watch is reported and followed by a relist; pod 2 never reached the api server
	w.Error(&metav1.Status{
		Status:  metav1.StatusFailure,
		Message: "too old resource version",
		Reason:  metav1.StatusReasonExpired,
		Code:    410,
	})
	w = nextWatcher(t, watchers)
	assert.Equal(t, int32(1), reported.Load())
	assert.Equal(t, []string{"1"}, uids())

	// resync picks up objects created since the last listing
	_, err := dynClient.Resource(podsGVR).Namespace("default").Create(ctx, pod("3"), metav1.CreateOptions{})
	require.NoError(t, err)
	client.Resync()
	nextWatcher(t, watchers)
	assert.Equal(t, []string{"1", "3"}, uids())
	assert.True(t, w.IsStopped())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("client did not stop")
	}
	_, ok := cache.CurrentSnapshot(client.Scope())
	assert.False(t, ok)
}

func TestClient_Bookmark(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := core.NewResourceCache(core.ErrorReporterFunc(func(context.Context, domain.KindScope, error) {}))
	dynClient, watchers := newFakeClient()
	client := NewClient(dynClient, cache, podsResource)
	require.NoError(t, client.Start(ctx))

	published := make(chan domain.ResourceList, 10)
	sub := cache.Subscribe(client.Scope(), func(list domain.ResourceList) {
		published <- list
	})
	defer sub.Close()
	<-published

	go func() {
		_ = client.Run(ctx)
	}()
	w := nextWatcher(t, watchers)
	<-published // listing

	bookmark := pod("")
	bookmark.SetResourceVersion("42")
	w.Action(watch.Bookmark, bookmark)
	w.Add(pod("1"))
	list := <-published
	assert.Equal(t, []string{"1"}, list.UIDs())
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	cache := core.NewResourceCache(core.ErrorReporterFunc(func(context.Context, domain.KindScope, error) {}))
	dynClient, watchers := newFakeClient(pod("1"))
	adapter := NewInClusterAdapter(config.InCluster{
		ResyncSchedule: "10m",
		Resources:      []config.Resource{podsResource},
	}, dynClient, cache)

	require.NoError(t, adapter.Start(ctx))
	assert.Error(t, adapter.Start(ctx))
	assert.Equal(t, []domain.KindScope{podsResource.Scope()}, adapter.Scopes())
	nextWatcher(t, watchers)
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"1"}, cachedUIDs(cache, podsResource.Scope())())
	}, time.Second, 10*time.Millisecond)

	assert.False(t, adapter.Resync(domain.KindScope{Kind: &domain.Kind{Version: "v1", Resource: "nodes"}}))
	assert.True(t, adapter.Resync(podsResource.Scope()))
	nextWatcher(t, watchers)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, adapter.Stop(stopCtx))
	assert.Empty(t, cache.Scopes())
}

func TestAdapter_NoResources(t *testing.T) {
	cache := core.NewResourceCache(core.ErrorReporterFunc(func(context.Context, domain.KindScope, error) {}))
	adapter := NewInClusterAdapter(config.InCluster{}, nil, cache)
	assert.NoError(t, adapter.Start(context.Background()))
	assert.NoError(t, adapter.Stop(context.Background()))
}

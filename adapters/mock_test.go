package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
)

var podsScope = domain.KindScope{Kind: &domain.Kind{Version: "v1", Resource: "pods"}}

func pod(uid, rv string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":            "pod-" + uid,
			"namespace":       "default",
			"uid":             uid,
			"resourceVersion": rv,
		},
	}}
}

func TestMockAdapter(t *testing.T) {
	ctx := context.Background()
	var reported []error
	cache := core.NewResourceCache(core.ErrorReporterFunc(func(_ context.Context, _ domain.KindScope, err error) {
		reported = append(reported, err)
	}))
	status := &unstructured.Unstructured{Object: map[string]interface{}{
		"kind":    "Status",
		"status":  "Failure",
		"message": "too old resource version",
		"reason":  "Expired",
		"code":    int64(410),
	}}
	m := NewMockAdapter(cache,
		ScriptedEvent{Scope: podsScope, Event: domain.WatchEvent{Type: watch.Added, Object: pod("1", "1")}},
		ScriptedEvent{Scope: podsScope, Event: domain.WatchEvent{Type: watch.Added, Object: pod("2", "2")}, Delay: 5 * time.Millisecond},
		ScriptedEvent{Scope: podsScope, Event: domain.WatchEvent{Type: watch.Error, Object: status}},
		ScriptedEvent{Scope: podsScope, Event: domain.WatchEvent{Type: watch.Deleted, Object: pod("1", "3")}},
	)
	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.Start(ctx))

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("script not replayed")
	}
	list, ok := cache.CurrentSnapshot(podsScope)
	require.True(t, ok)
	assert.Equal(t, []string{"2"}, list.UIDs())
	assert.Equal(t, "3", list.ResourceVersion)
	assert.Len(t, m.Errors(), 1)
	assert.Len(t, reported, 1)

	require.NoError(t, m.Stop(ctx))
	_, ok = cache.CurrentSnapshot(podsScope)
	assert.False(t, ok)
}

func TestMockAdapter_StopBeforeEnd(t *testing.T) {
	cache := core.NewResourceCache(core.NewLogReporter(0))
	m := NewMockAdapter(cache,
		ScriptedEvent{Scope: podsScope, Event: domain.WatchEvent{Type: watch.Added, Object: pod("1", "1")}, Delay: time.Hour},
	)
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
	assert.Empty(t, cache.Scopes())
}

package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// ScriptedEvent is one step of a MockAdapter script.
type ScriptedEvent struct {
	Scope domain.KindScope
	Event domain.WatchEvent
	// Delay is waited before the event is delivered.
	Delay time.Duration
}

// MockAdapter replays a script of watch events into a cache, for tests and demos.
type MockAdapter struct {
	cache  *core.ResourceCache
	script []ScriptedEvent

	mu            sync.Mutex
	cancel        context.CancelFunc
	done          chan struct{}
	subscriptions []*core.Subscription
	errs          []error
}

func NewMockAdapter(cache *core.ResourceCache, script ...ScriptedEvent) *MockAdapter {
	return &MockAdapter{cache: cache, script: script}
}

var _ Adapter = (*MockAdapter)(nil)

func (m *MockAdapter) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return errors.New("mock adapter already started")
	}
	seen := map[string]bool{}
	for _, s := range m.script {
		if !seen[s.Scope.String()] {
			seen[s.Scope.String()] = true
			m.subscriptions = append(m.subscriptions, m.cache.Subscribe(s.Scope, func(domain.ResourceList) {}))
		}
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.replay(ctx)
	return nil
}

func (m *MockAdapter) replay(ctx context.Context) {
	defer close(m.done)
	for _, s := range m.script {
		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.Delay):
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := m.cache.OnEvent(ctx, s.Scope, s.Event); err != nil {
			logger.L().Ctx(ctx).Debug("scripted event failed", helpers.Error(err), helpers.String("scope", s.Scope.String()))
			m.mu.Lock()
			m.errs = append(m.errs, err)
			m.mu.Unlock()
		}
	}
}

// Done is closed once the whole script has been replayed.
func (m *MockAdapter) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Errors returns the transport errors returned by the cache while replaying.
func (m *MockAdapter) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

func (m *MockAdapter) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done, subs := m.cancel, m.done, m.subscriptions
	m.subscriptions = nil
	m.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	for _, s := range subs {
		s.Close()
	}
	return nil
}

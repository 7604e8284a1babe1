package ui

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/prefs"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"k8s.io/utils/ptr"
)

const DefaultTheme = "light"

// ThemeApplier makes a theme visible to users.
type ThemeApplier interface {
	ApplyTheme(ctx context.Context, theme domain.Theme) error
}

// ThemeApplierFunc adapts a function to ThemeApplier.
type ThemeApplierFunc func(ctx context.Context, theme domain.Theme) error

func (f ThemeApplierFunc) ApplyTheme(ctx context.Context, theme domain.Theme) error {
	return f(ctx, theme)
}

// State is a published UI snapshot. It must not be modified.
type State struct {
	Sidebar  domain.SidebarState
	Registry Registry
	Theme    domain.Theme
	Version  uint64
}

type StoreOption func(*Store)

func WithDefaultTheme(name string) StoreOption {
	return func(s *Store) {
		if name != "" {
			s.defaultTheme = name
		}
	}
}

func WithDefaultSidebarOpen(open bool) StoreOption {
	return func(s *Store) {
		s.defaultSidebarOpen = open
	}
}

func WithPipelines(p *Pipelines) StoreOption {
	return func(s *Store) {
		s.pipelines = p
	}
}

// Store is the single writer of the UI state. Dispatch applies one event at a time and publishes
// a new State; preference writes and theme application run afterwards on the effect loop.
type Store struct {
	mu                 sync.Mutex
	state              atomic.Pointer[State]
	listeners          maps.SafeMap[string, func(*State)]
	pipelines          *Pipelines
	effects            *effectLoop
	defaultTheme       string
	defaultSidebarOpen bool
	// last values handed to the preference store, guarded by mu
	persistedShrink *bool
	persistedTheme  string
}

// NewStore reads the persisted preferences and starts the effect loop. Close stops it.
func NewStore(ctx context.Context, store prefs.Store, applier ThemeApplier, opts ...StoreOption) *Store {
	s := &Store{
		defaultTheme:       DefaultTheme,
		defaultSidebarOpen: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipelines == nil {
		s.pipelines = NewPipelines()
	}

	if shrink, found, err := store.GetBool(ctx, prefs.SidebarKey); err != nil {
		logger.L().Ctx(ctx).Warning("cannot read sidebar preference", helpers.Error(err))
	} else if found {
		s.persistedShrink = &shrink
	}
	if theme, found, err := store.GetString(ctx, prefs.ThemeKey); err != nil {
		logger.L().Ctx(ctx).Warning("cannot read theme preference", helpers.Error(err))
	} else if found {
		s.persistedTheme = theme
	}

	s.state.Store(s.initialState(Registry{}, 0))
	s.effects = newEffectLoop(context.WithoutCancel(ctx), store, applier)
	return s
}

func (s *Store) initialState(registry Registry, version uint64) *State {
	open := s.defaultSidebarOpen
	if s.persistedShrink != nil {
		open = !*s.persistedShrink
	}
	theme := s.defaultTheme
	if s.persistedTheme != "" {
		theme = s.persistedTheme
	}
	return &State{
		Sidebar:  domain.SidebarState{IsSidebarOpen: open},
		Registry: registry,
		Theme:    domain.Theme{Name: theme},
		Version:  version,
	}
}

// State returns the current snapshot.
func (s *Store) State() *State {
	return s.state.Load()
}

func (s *Store) Pipelines() *Pipelines {
	return s.pipelines
}

// Subscribe registers fn for every new snapshot. Listeners run on the dispatching goroutine in
// publication order and must not call Dispatch.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	id := uuid.NewString()
	s.listeners.Set(id, fn)
	return func() {
		s.listeners.Delete(id)
	}
}

// Dispatch applies event and returns the published snapshot. Unknown events leave the state unchanged.
func (s *Store) Dispatch(ctx context.Context, event Event) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.Load()
	if event == nil {
		logger.L().Ctx(ctx).Warning("ignoring ui event", helpers.Error(ErrUnknownEvent))
		return current
	}
	next := *current
	switch e := event.(type) {
	case SetSidebarSelected:
		next.Sidebar.Selected = e.Name
		next.Sidebar.IsVisible = e.Name != ""
	case SetSidebarVisible:
		next.Sidebar.IsVisible = e.Visible
	case SetSidebarItem:
		next.Registry = current.Registry.WithSidebarEntry(e.Entry)
	case SetSidebarExpanded:
		next.Sidebar.IsSidebarOpen = e.Open
		next.Sidebar.IsSidebarOpenUserSelected = nil
		if e.UserSelected != nil {
			next.Sidebar.IsSidebarOpenUserSelected = ptr.To(*e.UserSelected)
		}
		if e.UserSelected != nil && *e.UserSelected {
			shrink := !e.Open
			s.persistedShrink = &shrink
			s.effects.persistSidebar(shrink)
		}
	case SetRoute:
		next.Registry = current.Registry.WithRoute(e.Route)
	case SetDetailsHeaderAction:
		next.Registry = current.Registry.WithDetailHeaderAction(e.Action)
	case SetDetailsViewSection:
		next.Registry = current.Registry.WithDetailSection(e.Section)
	case SetAppBarAction:
		next.Registry = current.Registry.WithAppBarAction(e.Name, e.Action)
	case SetTheme:
		next.Theme = e.Theme
		s.persistedTheme = e.Theme.Name
		s.effects.applyTheme(e.Theme)
	case ResetPluginViews:
		next = *s.initialState(current.Registry.Reset(), 0)
	default:
		logger.L().Ctx(ctx).Warning("ignoring ui event",
			helpers.Error(ErrUnknownEvent),
			helpers.Interface("type", event.Type().Value()))
		return current
	}
	next.Version = current.Version + 1
	published := &next
	s.state.Store(published)
	dispatchedEventsCounter.WithLabelValues(eventLabel(event)).Inc()

	s.listeners.Range(func(_ string, fn func(*State)) bool {
		s.notify(ctx, fn, published)
		return true
	})
	return published
}

func (s *Store) notify(ctx context.Context, fn func(*State), state *State) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Ctx(ctx).Warning("ui state listener panicked", helpers.Interface("panic", r))
		}
	}()
	fn(state)
}

// Close waits for pending effects to finish or ctx to expire.
func (s *Store) Close(ctx context.Context) error {
	return s.effects.close(ctx)
}

func eventLabel(event Event) string {
	if v, ok := event.Type().Value().(string); ok {
		return v
	}
	return "unknown"
}

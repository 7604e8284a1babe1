package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

type recordingApplier struct {
	mu     sync.Mutex
	themes []string
	err    error
}

func (r *recordingApplier) ApplyTheme(_ context.Context, theme domain.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes = append(r.themes, theme.Name)
	return r.err
}

func (r *recordingApplier) applied() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.themes...)
}

func newTestStore(t *testing.T, p prefs.Store, opts ...StoreOption) (*Store, *recordingApplier) {
	applier := &recordingApplier{}
	s := NewStore(context.Background(), p, applier, opts...)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s, applier
}

func TestNewStore_InitialState(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		seed     func(p prefs.Store)
		opts     []StoreOption
		wantOpen bool
		theme    string
	}{
		{
			name:     "defaults",
			seed:     func(prefs.Store) {},
			wantOpen: true,
			theme:    DefaultTheme,
		},
		{
			name:     "configured defaults",
			seed:     func(prefs.Store) {},
			opts:     []StoreOption{WithDefaultTheme("dark"), WithDefaultSidebarOpen(false)},
			wantOpen: false,
			theme:    "dark",
		},
		{
			name: "persisted preferences win",
			seed: func(p prefs.Store) {
				_ = p.SetBool(ctx, prefs.SidebarKey, true)
				_ = p.SetString(ctx, prefs.ThemeKey, "corporate")
			},
			opts:     []StoreOption{WithDefaultTheme("dark")},
			wantOpen: false,
			theme:    "corporate",
		},
		{
			name: "unreadable preference falls back to defaults",
			seed: func(p prefs.Store) {
				_ = p.SetString(ctx, prefs.SidebarKey, "yes")
			},
			wantOpen: true,
			theme:    DefaultTheme,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := prefs.NewMemoryStore()
			tt.seed(p)
			s, _ := newTestStore(t, p, tt.opts...)
			state := s.State()
			assert.Equal(t, tt.wantOpen, state.Sidebar.IsSidebarOpen)
			assert.Nil(t, state.Sidebar.IsSidebarOpenUserSelected)
			assert.False(t, state.Sidebar.IsVisible)
			assert.Equal(t, tt.theme, state.Theme.Name)
			assert.Equal(t, uint64(0), state.Version)
		})
	}
}

func TestStore_Dispatch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		events []Event
		check  func(t *testing.T, s *State)
	}{
		{
			name:   "selecting shows the sidebar",
			events: []Event{SetSidebarSelected{Name: "pods"}},
			check: func(t *testing.T, s *State) {
				assert.Equal(t, "pods", s.Sidebar.Selected)
				assert.True(t, s.Sidebar.IsVisible)
			},
		},
		{
			name:   "clearing the selection hides the sidebar",
			events: []Event{SetSidebarSelected{Name: "pods"}, SetSidebarSelected{}},
			check: func(t *testing.T, s *State) {
				assert.Equal(t, "", s.Sidebar.Selected)
				assert.False(t, s.Sidebar.IsVisible)
			},
		},
		{
			name:   "visibility is independent of the selection",
			events: []Event{SetSidebarSelected{Name: "pods"}, SetSidebarVisible{Visible: false}},
			check: func(t *testing.T, s *State) {
				assert.Equal(t, "pods", s.Sidebar.Selected)
				assert.False(t, s.Sidebar.IsVisible)
			},
		},
		{
			name:   "expanding records the user choice",
			events: []Event{SetSidebarExpanded{Open: false, UserSelected: ptr.To(true)}},
			check: func(t *testing.T, s *State) {
				assert.False(t, s.Sidebar.IsSidebarOpen)
				assert.Equal(t, ptr.To(true), s.Sidebar.IsSidebarOpenUserSelected)
			},
		},
		{
			name: "registrations upsert by key",
			events: []Event{
				SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods", Label: "Pods"}},
				SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods", Label: "Workloads/Pods"}},
				SetRoute{Route: domain.Route{Path: "/pods", Name: "pods"}},
				SetRoute{Route: domain.Route{Path: "/pods", Name: "workloads"}},
				SetDetailsHeaderAction{Action: domain.NewRegisteredAction("edit", nil)},
				SetDetailsHeaderAction{Action: domain.NewRegisteredAction("edit", domain.Element{Component: "Edit"})},
				SetAppBarAction{Name: "search", Action: domain.NewRegisteredAction("search", nil)},
				SetDetailsViewSection{Section: domain.DetailSection{ID: "logs"}},
				SetDetailsViewSection{Section: domain.DetailSection{ID: "logs"}},
			},
			check: func(t *testing.T, s *State) {
				entry, _ := s.Registry.SidebarEntry("pods")
				assert.Equal(t, "Workloads/Pods", entry.Label)
				assert.Equal(t, 1, s.Registry.Len(SidebarEntries))
				route, _ := s.Registry.Route("/pods")
				assert.Equal(t, "workloads", route.Name)
				assert.Equal(t, 1, s.Registry.Len(DetailHeaderActions))
				assert.Equal(t, domain.ActionElement, s.Registry.DetailHeaderActions()[0].Kind)
				assert.Equal(t, 1, s.Registry.Len(AppBarActions))
				assert.Equal(t, 2, s.Registry.Len(DetailSections))
				assert.Equal(t, uint64(9), s.Version)
			},
		},
		{
			name:   "theme is replaced wholesale",
			events: []Event{SetTheme{Theme: domain.Theme{Name: "dark"}}},
			check: func(t *testing.T, s *State) {
				assert.Equal(t, domain.Theme{Name: "dark"}, s.Theme)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, prefs.NewMemoryStore())
			var last *State
			for _, e := range tt.events {
				last = s.Dispatch(ctx, e)
			}
			assert.Same(t, last, s.State())
			tt.check(t, last)
		})
	}
}

type unknownEvent struct{}

func (unknownEvent) Type() domain.UIEventType { return domain.UIEventType(99) }

func TestStore_DispatchUnknown(t *testing.T) {
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	before := s.State()
	assert.Same(t, before, s.Dispatch(context.Background(), unknownEvent{}))
	assert.Same(t, before, s.Dispatch(context.Background(), nil))
}

func TestStore_SnapshotsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	first := s.Dispatch(ctx, SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods", Label: "Pods"}})
	second := s.Dispatch(ctx, SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods", Label: "Workloads/Pods"}})
	s.Dispatch(ctx, SetSidebarSelected{Name: "pods"})

	entry, _ := first.Registry.SidebarEntry("pods")
	assert.Equal(t, "Pods", entry.Label)
	assert.Equal(t, "", second.Sidebar.Selected)
	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, uint64(2), second.Version)
}

func TestStore_SidebarExpandedCopiesUserSelected(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	userSelected := true
	state := s.Dispatch(ctx, SetSidebarExpanded{Open: false, UserSelected: &userSelected})
	userSelected = false

	require.NotNil(t, state.Sidebar.IsSidebarOpenUserSelected)
	assert.True(t, *state.Sidebar.IsSidebarOpenUserSelected)
	assert.True(t, *s.State().Sidebar.IsSidebarOpenUserSelected)
}

func TestStore_ResetPluginViews(t *testing.T) {
	ctx := context.Background()
	p := prefs.NewMemoryStore()
	require.NoError(t, p.SetBool(ctx, prefs.SidebarKey, true))
	s, _ := newTestStore(t, p)

	s.Dispatch(ctx, SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods"}})
	s.Dispatch(ctx, SetRoute{Route: domain.Route{Path: "/pods"}})
	s.Dispatch(ctx, SetDetailsHeaderAction{Action: domain.NewRegisteredAction("edit", nil)})
	s.Dispatch(ctx, SetAppBarAction{Name: "search", Action: domain.NewRegisteredAction("search", nil)})
	s.Dispatch(ctx, SetDetailsViewSection{Section: domain.DetailSection{ID: "logs"}})
	s.Dispatch(ctx, SetSidebarSelected{Name: "pods"})
	s.Dispatch(ctx, SetSidebarExpanded{Open: true})
	before := s.State()
	assert.True(t, before.Sidebar.IsSidebarOpen)

	after := s.Dispatch(ctx, ResetPluginViews{})
	for _, c := range []Collection{SidebarEntries, Routes, DetailHeaderActions, AppBarActions, DetailSections} {
		assert.Equal(t, 0, after.Registry.Len(c), c.String())
	}
	// the persisted preference says shrunk, so the sidebar is closed again
	assert.False(t, after.Sidebar.IsSidebarOpen)
	assert.Nil(t, after.Sidebar.IsSidebarOpenUserSelected)
	assert.Equal(t, "", after.Sidebar.Selected)
	assert.Equal(t, before.Version+1, after.Version)
}

func TestStore_ResetKeepsUserToggle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	s.Dispatch(ctx, SetSidebarExpanded{Open: false, UserSelected: ptr.To(true)})
	s.Dispatch(ctx, SetTheme{Theme: domain.Theme{Name: "dark"}})

	after := s.Dispatch(ctx, ResetPluginViews{})
	assert.False(t, after.Sidebar.IsSidebarOpen)
	assert.Equal(t, "dark", after.Theme.Name)
}

func TestStore_Effects(t *testing.T) {
	ctx := context.Background()
	p := prefs.NewMemoryStore()
	applier := &recordingApplier{}
	s := NewStore(ctx, p, applier)

	s.Dispatch(ctx, SetSidebarExpanded{Open: false, UserSelected: ptr.To(true)})
	s.Dispatch(ctx, SetSidebarExpanded{Open: true})
	s.Dispatch(ctx, SetTheme{Theme: domain.Theme{Name: "dark"}})
	require.NoError(t, s.Close(ctx))

	shrink, found, err := p.GetBool(ctx, prefs.SidebarKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, shrink)
	theme, _, err := p.GetString(ctx, prefs.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	applied := applier.applied()
	require.NotEmpty(t, applied)
	assert.Equal(t, "dark", applied[len(applied)-1])
}

type failingPrefs struct {
	prefs.Store
}

func (failingPrefs) SetString(context.Context, string, string) error {
	return errors.New("read-only")
}

func TestStore_EffectFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{err: errors.New("no clients")}
	s := NewStore(ctx, failingPrefs{Store: prefs.NewMemoryStore()}, applier)
	state := s.Dispatch(ctx, SetTheme{Theme: domain.Theme{Name: "dark"}})
	assert.Equal(t, "dark", state.Theme.Name)
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, []string{"dark"}, applier.applied())
}

func TestStore_CloseHonorsContext(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	applier := ThemeApplierFunc(func(context.Context, domain.Theme) error {
		<-block
		return nil
	})
	s := NewStore(ctx, prefs.NewMemoryStore(), applier)
	s.Dispatch(ctx, SetTheme{Theme: domain.Theme{Name: "dark"}})

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(short), context.DeadlineExceeded)
	close(block)
	assert.NoError(t, s.Close(ctx))
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	var versions []uint64
	unsubscribe := s.Subscribe(func(state *State) {
		versions = append(versions, state.Version)
	})
	s.Subscribe(func(*State) { panic("listener bug") })

	s.Dispatch(ctx, SetSidebarVisible{Visible: true})
	s.Dispatch(ctx, SetSidebarVisible{Visible: false})
	unsubscribe()
	s.Dispatch(ctx, SetSidebarVisible{Visible: true})
	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestStore_Render(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, prefs.NewMemoryStore())
	require.NoError(t, s.Pipelines().Register(TableColumnsPipeline, "age", appendColumn("age")))
	require.NoError(t, s.Pipelines().Register(AppBarActionsPipeline, "drop-search",
		func(_ context.Context, in []domain.RegisteredAction) ([]domain.RegisteredAction, error) {
			var out []domain.RegisteredAction
			for _, a := range in {
				if a.ID != "search" {
					out = append(out, a)
				}
			}
			return out, nil
		}))
	s.Dispatch(ctx, SetAppBarAction{Name: "search", Action: domain.NewRegisteredAction("search", nil)})
	s.Dispatch(ctx, SetAppBarAction{Name: "notifications", Action: domain.NewRegisteredAction("notifications", nil)})
	s.Dispatch(ctx, SetSidebarItem{Entry: domain.SidebarEntry{Name: "pods"}})

	assert.Equal(t, []string{"name", "age"}, columnIDs(s.ProcessedColumns(ctx, "pods", columns("name"), false)))
	assert.Equal(t, []string{"name"}, columnIDs(s.ProcessedColumns(ctx, "pods", columns("name"), true)))

	actions := s.ProcessedAppBarActions(ctx)
	require.Len(t, actions, 1)
	assert.Equal(t, "notifications", actions[0].ID)

	view := s.View(ctx)
	assert.Len(t, view.AppBarActions, 1)
	assert.Len(t, view.SidebarTree, 1)
	assert.Equal(t, DefaultTheme, view.Theme.Name)
	assert.Equal(t, uint64(3), view.Version)
}

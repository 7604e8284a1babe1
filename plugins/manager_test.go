package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/prefs"
	"github.com/CloudEngineHub/headlamp/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type testPlugin struct {
	name     string
	version  string
	required string
	init     func(r *Registrar) error
	calls    int
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return p.version }

func (p *testPlugin) Initialize(r *Registrar) error {
	p.calls++
	if p.init == nil {
		return nil
	}
	return p.init(r)
}

type versionedPlugin struct {
	testPlugin
}

func (p *versionedPlugin) RequiredAPIVersion() string { return p.required }

func newManager(t *testing.T) (*Manager, *ui.Store) {
	store := ui.NewStore(context.Background(), prefs.NewMemoryStore(), nil)
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	m, err := NewManager(store, "v1.2.0")
	require.NoError(t, err)
	return m, store
}

func registerPods(label string) func(r *Registrar) error {
	return func(r *Registrar) error {
		r.RegisterSidebarEntry(domain.SidebarEntry{Name: "pods", Label: label})
		return nil
	}
}

func TestNewManager_InvalidVersion(t *testing.T) {
	_, err := NewManager(nil, "1.2")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name       string
		plugins    []Plugin
		wantLoaded []string
		wantErrs   []error
	}{
		{
			name: "compatible plugins",
			plugins: []Plugin{
				&testPlugin{name: "a", version: "v0.1.0"},
				&versionedPlugin{testPlugin{name: "b", version: "v2.0.0", required: "v1.1.0"}},
				&versionedPlugin{testPlugin{name: "c", version: "v1.0.0"}},
			},
			wantLoaded: []string{"a", "b", "c"},
		},
		{
			name: "rejections are aggregated",
			plugins: []Plugin{
				&testPlugin{name: "a", version: "v0.1.0"},
				&testPlugin{name: "a", version: "v0.2.0"},
				&testPlugin{name: "bad-version", version: "latest"},
				&versionedPlugin{testPlugin{name: "too-new", version: "v1.0.0", required: "v1.3.0"}},
				&versionedPlugin{testPlugin{name: "other-major", version: "v1.0.0", required: "v2.0.0"}},
				&testPlugin{name: "", version: "v1.0.0"},
			},
			wantLoaded: []string{"a"},
			wantErrs:   []error{ErrDuplicatePlugin, ErrInvalidVersion, ErrIncompatiblePlugin, ErrIncompatiblePlugin, ErrIncompatiblePlugin},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newManager(t)
			err := m.Load(context.Background(), tt.plugins...)
			assert.Equal(t, tt.wantLoaded, m.Loaded())
			errs := multierr.Errors(err)
			require.Len(t, errs, len(tt.wantErrs))
			for i, want := range tt.wantErrs {
				assert.ErrorIs(t, errs[i], want)
			}
		})
	}
}

func TestManager_FailingPluginsDoNotStopOthers(t *testing.T) {
	m, store := newManager(t)
	failing := &testPlugin{name: "failing", version: "v1.0.0", init: func(r *Registrar) error {
		r.RegisterRoute(domain.Route{Path: "/half"})
		return errors.New("half initialized")
	}}
	panicking := &testPlugin{name: "panicking", version: "v1.0.0", init: func(*Registrar) error {
		panic("plugin bug")
	}}
	healthy := &testPlugin{name: "healthy", version: "v1.0.0", init: registerPods("Pods")}

	require.NoError(t, m.Load(context.Background(), failing, panicking, healthy))
	state := store.State()
	assert.Equal(t, 1, state.Registry.Len(ui.SidebarEntries))
	assert.Equal(t, 1, state.Registry.Len(ui.Routes))
	assert.Equal(t, []string{"failing", "panicking", "healthy"}, m.Loaded())
}

func TestManager_LastRegistrationWins(t *testing.T) {
	m, store := newManager(t)
	require.NoError(t, m.Load(context.Background(),
		&testPlugin{name: "a", version: "v1.0.0", init: registerPods("Pods")},
		&testPlugin{name: "b", version: "v1.0.0", init: registerPods("Workloads/Pods")},
	))
	entry, ok := store.State().Registry.SidebarEntry("pods")
	require.True(t, ok)
	assert.Equal(t, "Workloads/Pods", entry.Label)
	assert.Equal(t, 1, store.State().Registry.Len(ui.SidebarEntries))
}

func TestManager_Reload(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	p := &testPlugin{name: "a", version: "v1.0.0", init: func(r *Registrar) error {
		r.RegisterDetailSection("logs", nil)
		return r.RegisterProcessor(ui.TableColumnsPipeline, "a", func(_ context.Context, in domain.ColumnSet) (domain.ColumnSet, error) {
			in.Columns = append(in.Columns, domain.TableColumn{ID: "extra"})
			return in, nil
		})
	}}
	require.NoError(t, m.Load(ctx, p))
	m.Reload(ctx)

	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 1, store.State().Registry.Len(ui.DetailSections))
	assert.Len(t, store.Pipelines().TableColumns.Entries(), 1)
	assert.Len(t, store.ProcessedColumns(ctx, "pods", nil, false), 1)
}

func TestManager_Replace(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	require.NoError(t, m.Load(ctx, &testPlugin{name: "a", version: "v1.0.0", init: registerPods("Pods")}))
	require.NoError(t, m.Replace(ctx,
		&testPlugin{name: "a", version: "v1.1.0", init: func(r *Registrar) error {
			r.RegisterRoute(domain.Route{Path: "/nodes"})
			return nil
		}},
	))
	assert.Equal(t, []string{"a"}, m.Loaded())
	assert.Equal(t, 0, store.State().Registry.Len(ui.SidebarEntries))
	assert.Equal(t, 1, store.State().Registry.Len(ui.Routes))
}

func TestRegistrar(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	p := &testPlugin{name: "all", version: "v1.0.0", init: func(r *Registrar) error {
		assert.Equal(t, "all", r.Plugin())
		r.RegisterHeaderAction("edit", domain.ActionFunc(func(res *domain.ResourceObject) *domain.Element {
			return &domain.Element{Component: "Edit", Props: map[string]interface{}{"name": res.Name}}
		}))
		r.RegisterAppBarAction("search", domain.Element{Component: "Search"})
		r.SetTheme("dark")
		if err := r.RegisterAppBarActionsProcessor("noop", func(_ context.Context, in []domain.RegisteredAction) ([]domain.RegisteredAction, error) {
			return in, nil
		}); err != nil {
			return err
		}
		return r.RegisterProcessor("unknown", "x", nil)
	}}
	require.NoError(t, m.Load(ctx, p))

	state := store.State()
	actions := state.Registry.DetailHeaderActions()
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionCallable, actions[0].Kind)
	assert.Equal(t, "Edit", actions[0].Render(&domain.ResourceObject{Name: "nginx"}).Component)
	assert.Equal(t, "dark", state.Theme.Name)
	assert.Len(t, store.ProcessedAppBarActions(ctx), 1)
}

package plugins

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/CloudEngineHub/headlamp/ui"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.uber.org/multierr"
	"golang.org/x/mod/semver"
)

var (
	ErrIncompatiblePlugin = errors.New("incompatible plugin")
	ErrDuplicatePlugin    = errors.New("duplicate plugin")
	ErrInvalidVersion     = errors.New("invalid version")
)

// Manager validates and initializes plugins against a UI store.
type Manager struct {
	mu         sync.Mutex
	store      *ui.Store
	apiVersion string
	names      mapset.Set[string]
	loaded     []Plugin
}

// NewManager creates a manager that accepts plugins requiring at most apiVersion.
func NewManager(store *ui.Store, apiVersion string) (*Manager, error) {
	if !semver.IsValid(apiVersion) {
		return nil, fmt.Errorf("%w: plugin API %q", ErrInvalidVersion, apiVersion)
	}
	return &Manager{
		store:      store,
		apiVersion: apiVersion,
		names:      mapset.NewThreadUnsafeSet[string](),
	}, nil
}

// Load validates and initializes plugins in order. Rejected plugins are reported in the returned
// error; a plugin whose Initialize fails stays loaded with whatever it registered before failing.
func (m *Manager) Load(ctx context.Context, plugins ...Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx, plugins)
}

// Replace drops every loaded plugin and its contributions, then loads plugins.
func (m *Manager) Replace(ctx context.Context, plugins ...Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked(ctx)
	m.names.Clear()
	m.loaded = nil
	pluginsLoadedGauge.Set(0)
	return m.loadLocked(ctx, plugins)
}

func (m *Manager) loadLocked(ctx context.Context, plugins []Plugin) error {
	var err error
	for _, p := range plugins {
		if verr := m.validate(p); verr != nil {
			logger.L().Ctx(ctx).Warning("rejecting plugin", helpers.Error(verr), helpers.String("plugin", p.Name()))
			err = multierr.Append(err, verr)
			continue
		}
		m.names.Add(p.Name())
		m.loaded = append(m.loaded, p)
		pluginsLoadedGauge.Set(float64(len(m.loaded)))
		m.initialize(ctx, p)
	}
	return err
}

func (m *Manager) validate(p Plugin) error {
	if p.Name() == "" {
		return fmt.Errorf("%w: plugin has no name", ErrIncompatiblePlugin)
	}
	if m.names.Contains(p.Name()) {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
	}
	if !semver.IsValid(p.Version()) {
		return fmt.Errorf("%w: %s has version %q", ErrInvalidVersion, p.Name(), p.Version())
	}
	v, ok := p.(APIVersioned)
	if !ok {
		return nil
	}
	required := v.RequiredAPIVersion()
	if required == "" {
		return nil
	}
	if !semver.IsValid(required) {
		return fmt.Errorf("%w: %s requires API %q", ErrInvalidVersion, p.Name(), required)
	}
	if semver.Major(required) != semver.Major(m.apiVersion) || semver.Compare(required, m.apiVersion) > 0 {
		return fmt.Errorf("%w: %s requires API %s, have %s", ErrIncompatiblePlugin, p.Name(), required, m.apiVersion)
	}
	return nil
}

func (m *Manager) initialize(ctx context.Context, p Plugin) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Ctx(ctx).Error("plugin panicked during initialization",
				helpers.String("plugin", p.Name()),
				helpers.Interface("panic", r))
			pluginFailuresCounter.WithLabelValues(p.Name()).Inc()
		}
	}()
	if err := p.Initialize(&Registrar{ctx: ctx, plugin: p.Name(), store: m.store}); err != nil {
		logger.L().Ctx(ctx).Error("plugin failed to initialize",
			helpers.String("plugin", p.Name()),
			helpers.Error(err))
		pluginFailuresCounter.WithLabelValues(p.Name()).Inc()
		return
	}
	logger.L().Ctx(ctx).Info("plugin initialized",
		helpers.String("plugin", p.Name()),
		helpers.String("version", p.Version()))
}

// Reload clears every plugin contribution and initializes the loaded plugins again.
func (m *Manager) Reload(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked(ctx)
	for _, p := range m.loaded {
		m.initialize(ctx, p)
	}
}

func (m *Manager) resetLocked(ctx context.Context) {
	m.store.Dispatch(ctx, ui.ResetPluginViews{})
	m.store.Pipelines().Reset()
}

// Loaded returns the names of the loaded plugins in load order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.loaded))
	for _, p := range m.loaded {
		names = append(names, p.Name())
	}
	return names
}

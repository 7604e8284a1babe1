// Package plugins loads dashboard extensions and hands them a registration API.
package plugins

import (
	"context"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/ui"
)

// Plugin contributes UI elements and processors when initialized.
type Plugin interface {
	Name() string
	// Version is the semantic version of the plugin, e.g. v1.4.0.
	Version() string
	Initialize(r *Registrar) error
}

// APIVersioned is implemented by plugins that need a minimum plugin API version.
type APIVersioned interface {
	RequiredAPIVersion() string
}

// Registrar is the registration API handed to a plugin during Initialize.
type Registrar struct {
	ctx    context.Context
	plugin string
	store  *ui.Store
}

func (r *Registrar) Plugin() string {
	return r.plugin
}

func (r *Registrar) RegisterSidebarEntry(entry domain.SidebarEntry) {
	r.store.Dispatch(r.ctx, ui.SetSidebarItem{Entry: entry})
}

func (r *Registrar) RegisterRoute(route domain.Route) {
	r.store.Dispatch(r.ctx, ui.SetRoute{Route: route})
}

// RegisterHeaderAction adds an action to the resource details header. payload is an element,
// a domain.ActionFunc or nil.
func (r *Registrar) RegisterHeaderAction(id string, payload interface{}) {
	r.store.Dispatch(r.ctx, ui.SetDetailsHeaderAction{Action: domain.NewRegisteredAction(id, payload)})
}

func (r *Registrar) RegisterDetailSection(id string, fn domain.SectionFunc) {
	r.store.Dispatch(r.ctx, ui.SetDetailsViewSection{Section: domain.DetailSection{ID: id, Render: fn}})
}

func (r *Registrar) RegisterAppBarAction(name string, payload interface{}) {
	r.store.Dispatch(r.ctx, ui.SetAppBarAction{Name: name, Action: domain.NewRegisteredAction(name, payload)})
}

// RegisterProcessor adds fn to the named pipeline.
func (r *Registrar) RegisterProcessor(pipeline, id string, fn interface{}) error {
	return r.store.Pipelines().Register(pipeline, id, fn)
}

func (r *Registrar) RegisterTableColumnsProcessor(id string, fn ui.Processor[domain.ColumnSet]) error {
	return r.store.Pipelines().TableColumns.Register(id, fn)
}

func (r *Registrar) RegisterAppBarActionsProcessor(id string, fn ui.Processor[[]domain.RegisteredAction]) error {
	return r.store.Pipelines().AppBarActions.Register(id, fn)
}

// SetTheme changes the dashboard theme.
func (r *Registrar) SetTheme(name string) {
	r.store.Dispatch(r.ctx, ui.SetTheme{Theme: domain.Theme{Name: name}})
}

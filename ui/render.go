package ui

import (
	"context"

	"github.com/CloudEngineHub/headlamp/domain"
)

// ProcessedColumns runs the table columns pipeline unless the table opted out of processing.
func (s *Store) ProcessedColumns(ctx context.Context, tableID string, columns []domain.TableColumn, noProcessing bool) []domain.TableColumn {
	if noProcessing {
		return columns
	}
	return s.pipelines.TableColumns.Run(ctx, domain.ColumnSet{TableID: tableID, Columns: columns}).Columns
}

// ProcessedAppBarActions returns the registered app bar actions after the app bar pipeline.
func (s *Store) ProcessedAppBarActions(ctx context.Context) []domain.RegisteredAction {
	return s.pipelines.AppBarActions.Run(ctx, s.State().Registry.AppBarActions())
}

// View is what a rendering client needs to draw the dashboard chrome.
type View struct {
	Sidebar       domain.SidebarState
	SidebarTree   []SidebarNode
	Routes        []domain.Route
	AppBarActions []domain.RegisteredAction
	Theme         domain.Theme
	Version       uint64
}

func (s *Store) View(ctx context.Context) View {
	state := s.State()
	return View{
		Sidebar:       state.Sidebar,
		SidebarTree:   state.Registry.SidebarTree(),
		Routes:        state.Registry.Routes(),
		AppBarActions: s.pipelines.AppBarActions.Run(ctx, state.Registry.AppBarActions()),
		Theme:         state.Theme,
		Version:       state.Version,
	}
}

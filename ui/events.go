package ui

import "github.com/CloudEngineHub/headlamp/domain"

// Event is a transition request for the Store.
type Event interface {
	Type() domain.UIEventType
}

// SetSidebarSelected selects a sidebar entry. An empty name hides the sidebar.
type SetSidebarSelected struct {
	Name string
}

type SetSidebarVisible struct {
	Visible bool
}

type SetSidebarItem struct {
	Entry domain.SidebarEntry
}

// SetSidebarExpanded opens or closes the sidebar. UserSelected is nil for automatic changes.
type SetSidebarExpanded struct {
	Open         bool
	UserSelected *bool
}

type SetRoute struct {
	Route domain.Route
}

type SetDetailsHeaderAction struct {
	Action domain.RegisteredAction
}

type SetDetailsViewSection struct {
	Section domain.DetailSection
}

type SetAppBarAction struct {
	Name   string
	Action domain.RegisteredAction
}

type SetTheme struct {
	Theme domain.Theme
}

type ResetPluginViews struct{}

func (SetSidebarSelected) Type() domain.UIEventType     { return domain.UIEventSidebarSetSelected }
func (SetSidebarVisible) Type() domain.UIEventType      { return domain.UIEventSidebarSetVisible }
func (SetSidebarItem) Type() domain.UIEventType         { return domain.UIEventSidebarSetItem }
func (SetSidebarExpanded) Type() domain.UIEventType     { return domain.UIEventSidebarSetExpanded }
func (SetRoute) Type() domain.UIEventType               { return domain.UIEventRouteSet }
func (SetDetailsHeaderAction) Type() domain.UIEventType { return domain.UIEventDetailsHeaderActionSet }
func (SetDetailsViewSection) Type() domain.UIEventType  { return domain.UIEventDetailsViewSectionSet }
func (SetAppBarAction) Type() domain.UIEventType        { return domain.UIEventAppBarActionSet }
func (SetTheme) Type() domain.UIEventType               { return domain.UIEventThemeSet }
func (ResetPluginViews) Type() domain.UIEventType       { return domain.UIEventResetPluginViews }

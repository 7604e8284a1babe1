package domain

// SidebarState represents a SidebarState model.
type SidebarState struct {
	Selected      string
	IsVisible     bool
	IsSidebarOpen bool
	// IsSidebarOpenUserSelected is nil until the user toggles the sidebar.
	IsSidebarOpenUserSelected *bool
}

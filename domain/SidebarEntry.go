package domain

// SidebarEntry represents a SidebarEntry model.
type SidebarEntry struct {
	Name          string
	Label         string
	Parent        string
	URL           string
	Icon          string
	UseClusterURL bool
}

package domain

// Route represents a Route model.
type Route struct {
	Path           string
	Name           string
	Sidebar        string
	Exact          bool
	NoCluster      bool
	NoAuthRequired bool
	Component      string
}

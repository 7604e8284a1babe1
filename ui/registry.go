package ui

import (
	"slices"

	"github.com/CloudEngineHub/headlamp/domain"
)

// Collection names one of the registry collections.
type Collection uint

const (
	SidebarEntries Collection = iota
	Routes
	DetailHeaderActions
	AppBarActions
	DetailSections
)

func (c Collection) String() string {
	switch c {
	case SidebarEntries:
		return "sidebarEntries"
	case Routes:
		return "routes"
	case DetailHeaderActions:
		return "detailHeaderActions"
	case AppBarActions:
		return "appBarActions"
	case DetailSections:
		return "detailSections"
	default:
		return "unknown"
	}
}

// Registry holds the UI contributions of plugins. It is an immutable value: every With* call
// returns a new Registry that shares the untouched collections with the receiver.
type Registry struct {
	version             uint64
	sidebarEntries      orderedMap[domain.SidebarEntry]
	routes              orderedMap[domain.Route]
	detailHeaderActions orderedMap[domain.RegisteredAction]
	appBarActions       orderedMap[domain.RegisteredAction]
	detailSections      []domain.DetailSection
}

// Version increments on every change, reset included.
func (r Registry) Version() uint64 {
	return r.version
}

func (r Registry) WithSidebarEntry(entry domain.SidebarEntry) Registry {
	r.sidebarEntries = r.sidebarEntries.with(entry.Name, entry)
	r.version++
	return r
}

func (r Registry) WithRoute(route domain.Route) Registry {
	r.routes = r.routes.with(route.Path, route)
	r.version++
	return r
}

func (r Registry) WithDetailHeaderAction(action domain.RegisteredAction) Registry {
	r.detailHeaderActions = r.detailHeaderActions.with(action.ID, action)
	r.version++
	return r
}

// WithAppBarAction stores action under name, which may differ from action.ID.
func (r Registry) WithAppBarAction(name string, action domain.RegisteredAction) Registry {
	r.appBarActions = r.appBarActions.with(name, action)
	r.version++
	return r
}

// WithDetailSection appends section. Sections have no key, duplicates are kept.
func (r Registry) WithDetailSection(section domain.DetailSection) Registry {
	r.detailSections = append(slices.Clip(r.detailSections), section)
	r.version++
	return r
}

// Reset returns an empty registry.
func (r Registry) Reset() Registry {
	return Registry{version: r.version + 1}
}

func (r Registry) SidebarEntries() []domain.SidebarEntry {
	return r.sidebarEntries.list()
}

func (r Registry) Routes() []domain.Route {
	return r.routes.list()
}

func (r Registry) DetailHeaderActions() []domain.RegisteredAction {
	return r.detailHeaderActions.list()
}

func (r Registry) AppBarActions() []domain.RegisteredAction {
	return r.appBarActions.list()
}

func (r Registry) DetailSections() []domain.DetailSection {
	return slices.Clone(r.detailSections)
}

func (r Registry) SidebarEntry(name string) (domain.SidebarEntry, bool) {
	return r.sidebarEntries.get(name)
}

func (r Registry) Route(path string) (domain.Route, bool) {
	return r.routes.get(path)
}

func (r Registry) Len(c Collection) int {
	switch c {
	case SidebarEntries:
		return r.sidebarEntries.len()
	case Routes:
		return r.routes.len()
	case DetailHeaderActions:
		return r.detailHeaderActions.len()
	case AppBarActions:
		return r.appBarActions.len()
	case DetailSections:
		return len(r.detailSections)
	default:
		return 0
	}
}

// SidebarNode is a sidebar entry with the entries that name it as parent.
type SidebarNode struct {
	Entry    domain.SidebarEntry
	Children []SidebarNode
}

// SidebarTree nests entries under their parent. Entries whose parent is unknown, themselves or
// part of a parent cycle are placed at the top level.
func (r Registry) SidebarTree() []SidebarNode {
	children := map[string][]domain.SidebarEntry{}
	var roots []domain.SidebarEntry
	for _, e := range r.sidebarEntries.values {
		if r.topLevel(e) {
			roots = append(roots, e)
			continue
		}
		children[e.Parent] = append(children[e.Parent], e)
	}
	var build func(e domain.SidebarEntry) SidebarNode
	build = func(e domain.SidebarEntry) SidebarNode {
		node := SidebarNode{Entry: e}
		for _, c := range children[e.Name] {
			node.Children = append(node.Children, build(c))
		}
		return node
	}
	tree := make([]SidebarNode, 0, len(roots))
	for _, e := range roots {
		tree = append(tree, build(e))
	}
	return tree
}

func (r Registry) topLevel(e domain.SidebarEntry) bool {
	if _, ok := r.sidebarEntries.get(e.Parent); !ok {
		return true
	}
	visited := map[string]bool{}
	for parent := e.Parent; ; {
		if parent == e.Name {
			return true
		}
		entry, ok := r.sidebarEntries.get(parent)
		if !ok || visited[parent] {
			return false
		}
		visited[parent] = true
		parent = entry.Parent
	}
}

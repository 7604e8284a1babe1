package messaging

import (
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/ui"
)

// ViewDocument is the wire form of ui.View.
type ViewDocument struct {
	Sidebar       SidebarStateDocument  `json:"sidebar"`
	Entries       []SidebarNodeDocument `json:"entries"`
	Routes        []RouteDocument       `json:"routes"`
	AppBarActions []ActionDocument      `json:"appBarActions"`
	Theme         string                `json:"theme"`
	Version       uint64                `json:"version"`
}

type SidebarStateDocument struct {
	Selected string `json:"selected,omitempty"`
	Visible  bool   `json:"visible"`
	Open     bool   `json:"open"`
}

type SidebarNodeDocument struct {
	Name     string                `json:"name"`
	Label    string                `json:"label"`
	URL      string                `json:"url,omitempty"`
	Icon     string                `json:"icon,omitempty"`
	Children []SidebarNodeDocument `json:"children,omitempty"`
}

type RouteDocument struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Sidebar   string `json:"sidebar,omitempty"`
	Exact     bool   `json:"exact,omitempty"`
	Component string `json:"component,omitempty"`
}

// ActionDocument describes a static action. Callable actions are resolved per resource and
// are only listed by id.
type ActionDocument struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Component string                 `json:"component,omitempty"`
	Props     map[string]interface{} `json:"props,omitempty"`
}

func NewViewDocument(v ui.View) ViewDocument {
	doc := ViewDocument{
		Sidebar: SidebarStateDocument{
			Selected: v.Sidebar.Selected,
			Visible:  v.Sidebar.IsVisible,
			Open:     v.Sidebar.IsSidebarOpen,
		},
		Entries:       make([]SidebarNodeDocument, 0, len(v.SidebarTree)),
		Routes:        make([]RouteDocument, 0, len(v.Routes)),
		AppBarActions: make([]ActionDocument, 0, len(v.AppBarActions)),
		Theme:         v.Theme.Name,
		Version:       v.Version,
	}
	for _, n := range v.SidebarTree {
		doc.Entries = append(doc.Entries, newSidebarNodeDocument(n))
	}
	for _, r := range v.Routes {
		doc.Routes = append(doc.Routes, RouteDocument{
			Path:      r.Path,
			Name:      r.Name,
			Sidebar:   r.Sidebar,
			Exact:     r.Exact,
			Component: r.Component,
		})
	}
	for _, a := range v.AppBarActions {
		doc.AppBarActions = append(doc.AppBarActions, NewActionDocument(a))
	}
	return doc
}

func newSidebarNodeDocument(n ui.SidebarNode) SidebarNodeDocument {
	doc := SidebarNodeDocument{
		Name:  n.Entry.Name,
		Label: n.Entry.Label,
		URL:   n.Entry.URL,
		Icon:  n.Entry.Icon,
	}
	for _, c := range n.Children {
		doc.Children = append(doc.Children, newSidebarNodeDocument(c))
	}
	return doc
}

func NewActionDocument(a domain.RegisteredAction) ActionDocument {
	doc := ActionDocument{ID: a.ID, Kind: a.Kind.String()}
	if e := a.Element(); e != nil {
		doc.Component = e.Component
		doc.Props = e.Props
	}
	return doc
}

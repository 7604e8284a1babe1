package plugins

import (
	"strings"

	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/domain"
)

const (
	BuiltinName    = "headlamp"
	BuiltinVersion = "v1.0.0"
	ClusterEntry   = "cluster"
)

// Builtin contributes the sidebar entries and routes of the synchronized resources.
type Builtin struct {
	Resources []config.Resource
}

var _ Plugin = (*Builtin)(nil)

func (b *Builtin) Name() string    { return BuiltinName }
func (b *Builtin) Version() string { return BuiltinVersion }

func (b *Builtin) Initialize(r *Registrar) error {
	r.RegisterSidebarEntry(domain.SidebarEntry{Name: ClusterEntry, Label: "Cluster", URL: "/", UseClusterURL: true})
	for _, res := range b.Resources {
		r.RegisterSidebarEntry(domain.SidebarEntry{
			Name:          res.Resource,
			Label:         label(res.Resource),
			Parent:        ClusterEntry,
			URL:           "/" + res.Resource,
			UseClusterURL: true,
		})
		r.RegisterRoute(domain.Route{
			Path:      "/c/:cluster/" + res.Resource,
			Name:      res.Resource,
			Sidebar:   res.Resource,
			Exact:     true,
			Component: "ResourceTable",
		})
	}
	return nil
}

func label(resource string) string {
	if resource == "" {
		return ""
	}
	return strings.ToUpper(resource[:1]) + resource[1:]
}

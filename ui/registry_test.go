package ui

import (
	"testing"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UpsertKeepsOneEntry(t *testing.T) {
	r := Registry{}.
		WithSidebarEntry(domain.SidebarEntry{Name: "cluster", Label: "Cluster"}).
		WithSidebarEntry(domain.SidebarEntry{Name: "pods", Label: "Pods"}).
		WithSidebarEntry(domain.SidebarEntry{Name: "pods", Label: "Workloads/Pods"})

	assert.Equal(t, 2, r.Len(SidebarEntries))
	pods, ok := r.SidebarEntry("pods")
	require.True(t, ok)
	assert.Equal(t, "Workloads/Pods", pods.Label)
	assert.Equal(t, []domain.SidebarEntry{
		{Name: "cluster", Label: "Cluster"},
		{Name: "pods", Label: "Workloads/Pods"},
	}, r.SidebarEntries())
	assert.Equal(t, uint64(3), r.Version())
}

func TestRegistry_SnapshotsAreIndependent(t *testing.T) {
	before := Registry{}.WithRoute(domain.Route{Path: "/pods", Name: "pods"})
	after := before.
		WithRoute(domain.Route{Path: "/pods", Name: "workloads"}).
		WithRoute(domain.Route{Path: "/nodes", Name: "nodes"}).
		WithDetailSection(domain.DetailSection{ID: "logs"})

	route, _ := before.Route("/pods")
	assert.Equal(t, "pods", route.Name)
	assert.Equal(t, 1, before.Len(Routes))
	assert.Equal(t, 0, before.Len(DetailSections))
	_, ok := before.Route("/nodes")
	assert.False(t, ok)

	route, _ = after.Route("/pods")
	assert.Equal(t, "workloads", route.Name)
	assert.Equal(t, 2, after.Len(Routes))

	routes := after.Routes()
	routes[0].Name = "mutated"
	route, _ = after.Route("/pods")
	assert.Equal(t, "workloads", route.Name)
}

func TestRegistry_DetailSectionsAppend(t *testing.T) {
	r := Registry{}.
		WithDetailSection(domain.DetailSection{ID: "logs"}).
		WithDetailSection(domain.DetailSection{ID: "logs"})
	assert.Equal(t, 2, r.Len(DetailSections))

	branch1 := r.WithDetailSection(domain.DetailSection{ID: "a"})
	branch2 := r.WithDetailSection(domain.DetailSection{ID: "b"})
	assert.Equal(t, "a", branch1.DetailSections()[2].ID)
	assert.Equal(t, "b", branch2.DetailSections()[2].ID)
}

func TestRegistry_Actions(t *testing.T) {
	r := Registry{}.
		WithDetailHeaderAction(domain.NewRegisteredAction("edit", domain.Element{Component: "EditButton"})).
		WithDetailHeaderAction(domain.NewRegisteredAction("edit", nil)).
		WithAppBarAction("search", domain.NewRegisteredAction("search", &domain.Element{Component: "Search"}))

	actions := r.DetailHeaderActions()
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionAbsent, actions[0].Kind)
	assert.Equal(t, 1, r.Len(AppBarActions))
	assert.Equal(t, "Search", r.AppBarActions()[0].Element().Component)
}

func TestRegistry_Reset(t *testing.T) {
	r := Registry{}.
		WithSidebarEntry(domain.SidebarEntry{Name: "pods"}).
		WithRoute(domain.Route{Path: "/pods"}).
		WithDetailHeaderAction(domain.NewRegisteredAction("edit", nil)).
		WithAppBarAction("search", domain.NewRegisteredAction("search", nil)).
		WithDetailSection(domain.DetailSection{ID: "logs"})

	reset := r.Reset()
	for _, c := range []Collection{SidebarEntries, Routes, DetailHeaderActions, AppBarActions, DetailSections} {
		assert.Equal(t, 0, reset.Len(c), c.String())
		assert.Equal(t, 1, r.Len(c), c.String())
	}
	assert.Greater(t, reset.Version(), r.Version())
}

func TestRegistry_SidebarTree(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.SidebarEntry
		want    []SidebarNode
	}{
		{
			name: "children nest under parents in registration order",
			entries: []domain.SidebarEntry{
				{Name: "workloads"},
				{Name: "pods", Parent: "workloads"},
				{Name: "deployments", Parent: "workloads"},
				{Name: "cluster"},
			},
			want: []SidebarNode{
				{Entry: domain.SidebarEntry{Name: "workloads"}, Children: []SidebarNode{
					{Entry: domain.SidebarEntry{Name: "pods", Parent: "workloads"}},
					{Entry: domain.SidebarEntry{Name: "deployments", Parent: "workloads"}},
				}},
				{Entry: domain.SidebarEntry{Name: "cluster"}},
			},
		},
		{
			name: "child registered before its parent",
			entries: []domain.SidebarEntry{
				{Name: "pods", Parent: "workloads"},
				{Name: "workloads"},
			},
			want: []SidebarNode{
				{Entry: domain.SidebarEntry{Name: "workloads"}, Children: []SidebarNode{
					{Entry: domain.SidebarEntry{Name: "pods", Parent: "workloads"}},
				}},
			},
		},
		{
			name: "missing and self parents are top level",
			entries: []domain.SidebarEntry{
				{Name: "orphan", Parent: "ghost"},
				{Name: "self", Parent: "self"},
			},
			want: []SidebarNode{
				{Entry: domain.SidebarEntry{Name: "orphan", Parent: "ghost"}},
				{Entry: domain.SidebarEntry{Name: "self", Parent: "self"}},
			},
		},
		{
			name: "cycles are broken at the top level",
			entries: []domain.SidebarEntry{
				{Name: "a", Parent: "b"},
				{Name: "b", Parent: "a"},
				{Name: "c", Parent: "a"},
			},
			want: []SidebarNode{
				{Entry: domain.SidebarEntry{Name: "a", Parent: "b"}, Children: []SidebarNode{
					{Entry: domain.SidebarEntry{Name: "c", Parent: "a"}},
				}},
				{Entry: domain.SidebarEntry{Name: "b", Parent: "a"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Registry{}
			for _, e := range tt.entries {
				r = r.WithSidebarEntry(e)
			}
			assert.Equal(t, tt.want, r.SidebarTree())
		})
	}
}

package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// ManifestFile describes a declarative plugin inside its folder.
const ManifestFile = "plugin.json"

type ElementManifest struct {
	Component string                 `json:"component"`
	Props     map[string]interface{} `json:"props,omitempty"`
}

type ActionManifest struct {
	Name    string           `json:"name"`
	Element *ElementManifest `json:"element,omitempty"`
}

type SidebarManifest struct {
	Name          string `json:"name"`
	Label         string `json:"label"`
	Parent        string `json:"parent,omitempty"`
	URL           string `json:"url,omitempty"`
	Icon          string `json:"icon,omitempty"`
	UseClusterURL bool   `json:"useClusterURL,omitempty"`
}

type RouteManifest struct {
	Path           string `json:"path"`
	Name           string `json:"name"`
	Sidebar        string `json:"sidebar,omitempty"`
	Exact          bool   `json:"exact,omitempty"`
	NoCluster      bool   `json:"noCluster,omitempty"`
	NoAuthRequired bool   `json:"noAuthRequired,omitempty"`
	Component      string `json:"component"`
}

type ColumnManifest struct {
	// Table limits the column to one table; empty adds it to every table.
	Table string `json:"table,omitempty"`
	ID    string `json:"id"`
	Label string `json:"label"`
	Field string `json:"field"`
}

// Manifest is a plugin described as data instead of code.
type Manifest struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	RequiredAPI       string            `json:"requiredApiVersion,omitempty"`
	Sidebar           []SidebarManifest `json:"sidebar,omitempty"`
	Routes            []RouteManifest   `json:"routes,omitempty"`
	HeaderActions     []ActionManifest  `json:"headerActions,omitempty"`
	AppBarActions     []ActionManifest  `json:"appBarActions,omitempty"`
	HideAppBarActions []string          `json:"hideAppBarActions,omitempty"`
	Columns           []ColumnManifest  `json:"columns,omitempty"`
	RemoveColumns     []string          `json:"removeColumns,omitempty"`
}

// ManifestPlugin registers the contributions listed in a Manifest.
type ManifestPlugin struct {
	Manifest Manifest
	Dir      string
}

var _ Plugin = (*ManifestPlugin)(nil)
var _ APIVersioned = (*ManifestPlugin)(nil)

func (p *ManifestPlugin) Name() string {
	return p.Manifest.Name
}

func (p *ManifestPlugin) Version() string {
	return p.Manifest.Version
}

func (p *ManifestPlugin) RequiredAPIVersion() string {
	return p.Manifest.RequiredAPI
}

func (p *ManifestPlugin) Initialize(r *Registrar) error {
	m := p.Manifest
	for _, s := range m.Sidebar {
		r.RegisterSidebarEntry(domain.SidebarEntry(s))
	}
	for _, route := range m.Routes {
		r.RegisterRoute(domain.Route(route))
	}
	for _, a := range m.HeaderActions {
		r.RegisterHeaderAction(a.Name, a.Element.toDomain())
	}
	for _, a := range m.AppBarActions {
		r.RegisterAppBarAction(a.Name, a.Element.toDomain())
	}
	if len(m.Columns) > 0 || len(m.RemoveColumns) > 0 {
		if err := r.RegisterTableColumnsProcessor(m.Name+"/columns", p.processColumns); err != nil {
			return fmt.Errorf("register columns processor: %w", err)
		}
	}
	if len(m.HideAppBarActions) > 0 {
		if err := r.RegisterAppBarActionsProcessor(m.Name+"/hide-actions", p.hideActions); err != nil {
			return fmt.Errorf("register app bar processor: %w", err)
		}
	}
	return nil
}

// toDomain returns a nil *Element for a missing element, which registers an absent action.
func (e *ElementManifest) toDomain() interface{} {
	if e == nil {
		return nil
	}
	return &domain.Element{Component: e.Component, Props: e.Props}
}

func (p *ManifestPlugin) processColumns(_ context.Context, in domain.ColumnSet) (domain.ColumnSet, error) {
	in.Columns = slices.DeleteFunc(in.Columns, func(c domain.TableColumn) bool {
		return slices.Contains(p.Manifest.RemoveColumns, c.ID)
	})
	for _, c := range p.Manifest.Columns {
		if c.Table != "" && c.Table != in.TableID {
			continue
		}
		column := domain.TableColumn{ID: c.ID, Label: c.Label, Field: c.Field}
		if i := slices.IndexFunc(in.Columns, func(existing domain.TableColumn) bool { return existing.ID == c.ID }); i >= 0 {
			in.Columns[i] = column
			continue
		}
		in.Columns = append(in.Columns, column)
	}
	return in, nil
}

func (p *ManifestPlugin) hideActions(_ context.Context, in []domain.RegisteredAction) ([]domain.RegisteredAction, error) {
	return slices.DeleteFunc(in, func(a domain.RegisteredAction) bool {
		return slices.Contains(p.Manifest.HideAppBarActions, a.ID)
	}), nil
}

// LoadDir reads one manifest plugin per sub folder of dir. A missing dir yields no plugins;
// folders without a readable manifest are skipped.
func LoadDir(ctx context.Context, dir string) ([]Plugin, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plugins dir: %w", err)
	}
	var plugins []Plugin
	for _, e := range entries {
		if !e.IsDir() {
			logger.L().Ctx(ctx).Debug("not a plugin folder, skipping", helpers.String("path", filepath.Join(dir, e.Name())))
			continue
		}
		pluginDir := filepath.Join(dir, e.Name())
		p, err := readManifest(pluginDir)
		if err != nil {
			logger.L().Ctx(ctx).Warning("skipping plugin", helpers.Error(err), helpers.String("path", pluginDir))
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func readManifest(dir string) (*ManifestPlugin, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	return &ManifestPlugin{Manifest: m, Dir: dir}, nil
}

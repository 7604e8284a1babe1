package ui

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

const (
	TableColumnsPipeline  = "tableColumns"
	AppBarActionsPipeline = "appBarActions"
)

// Processor transforms the value flowing through a pipeline.
type Processor[T any] func(ctx context.Context, in T) (T, error)

type ProcessorEntry[T any] struct {
	ID    string
	Fn    Processor[T]
	Order int
}

// Pipeline runs its processors in registration order. A failing processor is skipped and the
// next one receives the value from before the failing stage.
type Pipeline[T any] struct {
	name    string
	clone   func(T) T
	mu      sync.RWMutex
	entries []ProcessorEntry[T]
}

// NewPipeline creates a pipeline. clone gives every stage its own copy of the input so a failing
// stage cannot leak partial changes.
func NewPipeline[T any](name string, clone func(T) T) *Pipeline[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Pipeline[T]{name: name, clone: clone}
}

func (p *Pipeline[T]) Name() string {
	return p.name
}

func (p *Pipeline[T]) Register(id string, fn Processor[T]) error {
	if fn == nil {
		return fmt.Errorf("%w: %s has no function", ErrProcessorType, id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(slices.Clip(p.entries), ProcessorEntry[T]{ID: id, Fn: fn, Order: len(p.entries)})
	return nil
}

func (p *Pipeline[T]) Entries() []ProcessorEntry[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.entries)
}

func (p *Pipeline[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
}

// Run feeds input through every stage. It never fails.
func (p *Pipeline[T]) Run(ctx context.Context, input T) T {
	p.mu.RLock()
	entries := p.entries
	p.mu.RUnlock()

	value := input
	for _, entry := range entries {
		out, err := p.runStage(ctx, entry, p.clone(value))
		if err != nil {
			logger.L().Ctx(ctx).Warning("processor failed, skipping it",
				helpers.String("pipeline", p.name),
				helpers.String("id", entry.ID),
				helpers.Error(err))
			processorFailuresCounter.WithLabelValues(p.name).Inc()
			continue
		}
		value = out
	}
	return value
}

func (p *Pipeline[T]) runStage(ctx context.Context, entry ProcessorEntry[T], in T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ProcessorError{Pipeline: p.name, ID: entry.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = entry.Fn(ctx, in)
	if err != nil {
		return out, &ProcessorError{Pipeline: p.name, ID: entry.ID, Err: err}
	}
	return out, nil
}

// Pipelines are the named pipelines of the dashboard.
type Pipelines struct {
	TableColumns  *Pipeline[domain.ColumnSet]
	AppBarActions *Pipeline[[]domain.RegisteredAction]
}

func NewPipelines() *Pipelines {
	return &Pipelines{
		TableColumns: NewPipeline(TableColumnsPipeline, func(in domain.ColumnSet) domain.ColumnSet {
			in.Columns = slices.Clone(in.Columns)
			return in
		}),
		AppBarActions: NewPipeline(AppBarActionsPipeline, func(in []domain.RegisteredAction) []domain.RegisteredAction {
			return slices.Clone(in)
		}),
	}
}

// Register adds fn to the pipeline called name. fn must be a Processor of the pipeline's type.
func (p *Pipelines) Register(name, id string, fn interface{}) error {
	switch name {
	case TableColumnsPipeline:
		switch f := fn.(type) {
		case Processor[domain.ColumnSet]:
			return p.TableColumns.Register(id, f)
		case func(context.Context, domain.ColumnSet) (domain.ColumnSet, error):
			return p.TableColumns.Register(id, f)
		}
	case AppBarActionsPipeline:
		switch f := fn.(type) {
		case Processor[[]domain.RegisteredAction]:
			return p.AppBarActions.Register(id, f)
		case func(context.Context, []domain.RegisteredAction) ([]domain.RegisteredAction, error):
			return p.AppBarActions.Register(id, f)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	return fmt.Errorf("%w: %s got %T", ErrProcessorType, name, fn)
}

func (p *Pipelines) Reset() {
	p.TableColumns.Reset()
	p.AppBarActions.Reset()
}

package ui

import (
	"context"
	"sync"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/prefs"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// effectLoop performs preference writes and theme application off the dispatch path. Requests
// that arrive while a write is running are coalesced: only the latest value is written.
type effectLoop struct {
	ctx     context.Context
	prefs   prefs.Store
	applier ThemeApplier

	mu     sync.Mutex
	shrink *bool
	theme  *domain.Theme

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newEffectLoop(ctx context.Context, store prefs.Store, applier ThemeApplier) *effectLoop {
	l := &effectLoop{
		ctx:     ctx,
		prefs:   store,
		applier: applier,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *effectLoop) persistSidebar(shrink bool) {
	l.mu.Lock()
	l.shrink = &shrink
	l.mu.Unlock()
	l.signal()
}

func (l *effectLoop) applyTheme(theme domain.Theme) {
	l.mu.Lock()
	l.theme = &theme
	l.mu.Unlock()
	l.signal()
}

func (l *effectLoop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *effectLoop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			l.flush()
		case <-l.stop:
			l.flush()
			return
		}
	}
}

func (l *effectLoop) flush() {
	l.mu.Lock()
	shrink, theme := l.shrink, l.theme
	l.shrink, l.theme = nil, nil
	l.mu.Unlock()

	if shrink != nil {
		if err := l.prefs.SetBool(l.ctx, prefs.SidebarKey, *shrink); err != nil {
			logger.L().Ctx(l.ctx).Warning("cannot persist sidebar preference", helpers.Error(err))
			effectFailuresCounter.WithLabelValues("sidebar").Inc()
		}
	}
	if theme != nil {
		if err := l.prefs.SetString(l.ctx, prefs.ThemeKey, theme.Name); err != nil {
			logger.L().Ctx(l.ctx).Warning("cannot persist theme", helpers.Error(err), helpers.String("theme", theme.Name))
			effectFailuresCounter.WithLabelValues("persistTheme").Inc()
		}
		if l.applier != nil {
			if err := l.applier.ApplyTheme(l.ctx, *theme); err != nil {
				logger.L().Ctx(l.ctx).Warning("cannot apply theme", helpers.Error(err), helpers.String("theme", theme.Name))
				effectFailuresCounter.WithLabelValues("applyTheme").Inc()
			}
		}
	}
}

func (l *effectLoop) close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		close(l.stop)
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

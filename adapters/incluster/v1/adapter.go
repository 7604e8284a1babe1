package incluster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/CloudEngineHub/headlamp/adapters"
	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/panjf2000/ants/v2"
	"k8s.io/client-go/dynamic"
)

// Adapter runs one Client per configured resource and periodically asks them to relist.
type Adapter struct {
	cfg           config.InCluster
	dynamicClient dynamic.Interface
	cache         *core.ResourceCache
	clients       maps.SafeMap[string, *Client]

	mu     sync.Mutex
	pool   *ants.Pool
	ticker utils.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewInClusterAdapter(cfg config.InCluster, dynamicClient dynamic.Interface, cache *core.ResourceCache) *Adapter {
	return &Adapter{
		cfg:           cfg,
		dynamicClient: dynamicClient,
		cache:         cache,
	}
}

var _ adapters.Adapter = (*Adapter)(nil)

func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return errors.New("adapter already started")
	}
	if len(a.cfg.Resources) == 0 {
		logger.L().Ctx(ctx).Warning("no resources configured, nothing to watch")
		return nil
	}
	pool, err := ants.NewPool(len(a.cfg.Resources))
	if err != nil {
		return fmt.Errorf("create client pool: %w", err)
	}
	if a.cfg.ResyncSchedule != "" {
		a.ticker, err = utils.NewTicker(a.cfg.ResyncSchedule)
		if err != nil {
			pool.Release()
			return fmt.Errorf("create resync ticker: %w", err)
		}
	}
	a.pool = pool
	ctx, a.cancel = context.WithCancel(ctx)

	for _, r := range a.cfg.Resources {
		client := NewClient(a.dynamicClient, a.cache, r)
		if err := client.Start(ctx); err != nil {
			return err
		}
		a.clients.Set(r.Scope().String(), client)
		a.wg.Add(1)
		if err := a.pool.Submit(func() {
			defer a.wg.Done()
			_ = client.Run(ctx)
		}); err != nil {
			a.wg.Done()
			return fmt.Errorf("start client %s: %w", r.String(), err)
		}
		logger.L().Info("started client", helpers.String("resource", r.String()),
			helpers.String("namespace", r.Namespace),
			helpers.String("strategy", string(r.Strategy)))
	}
	if a.ticker != nil {
		a.wg.Add(1)
		go a.resyncLoop(ctx, a.ticker)
	}
	return nil
}

func (a *Adapter) resyncLoop(ctx context.Context, ticker utils.Ticker) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			logger.L().Debug("periodic resync")
			a.ResyncAll()
		}
	}
}

// Resync asks the client watching scope to relist; unknown scopes are reported as false.
func (a *Adapter) Resync(scope domain.KindScope) bool {
	client, ok := a.clients.Load(scope.String())
	if !ok {
		return false
	}
	client.Resync()
	return true
}

func (a *Adapter) ResyncAll() {
	a.clients.Range(func(_ string, client *Client) bool {
		client.Resync()
		return true
	})
}

// Scopes returns the scopes the adapter watches.
func (a *Adapter) Scopes() []domain.KindScope {
	scopes := make([]domain.KindScope, 0, len(a.cfg.Resources))
	for _, r := range a.cfg.Resources {
		scopes = append(scopes, r.Scope())
	}
	return scopes
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, pool, ticker := a.cancel, a.pool, a.ticker
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if ticker != nil {
		ticker.Stop()
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for clients: %w", ctx.Err())
	}
	if pool != nil {
		pool.Release()
	}
	return nil
}

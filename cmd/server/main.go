package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CloudEngineHub/headlamp/adapters/incluster/v1"
	"github.com/CloudEngineHub/headlamp/adapters/websocket/v1"
	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/plugins"
	"github.com/CloudEngineHub/headlamp/prefs"
	"github.com/CloudEngineHub/headlamp/ui"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// load config
	configDir := "/etc/config"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		logger.L().Fatal("unable to load configuration", helpers.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.L().Fatal("invalid configuration", helpers.Error(err))
	}
	if err := logger.L().SetLevel(cfg.Dashboard.LogLevel); err != nil {
		logger.L().Warning("unable to set log level", helpers.Error(err), helpers.String("level", cfg.Dashboard.LogLevel))
	}

	// enable prometheus metrics
	if cfg.Server.Prometheus != nil && cfg.Server.Prometheus.Enabled {
		go func() {
			logger.L().Info("prometheus metrics enabled", helpers.Int("port", cfg.Server.Prometheus.Port))
			http.Handle("/metrics", promhttp.Handler())
			_ = http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Prometheus.Port), nil)
		}()
	}

	// preferences and ui state
	prefStore, err := prefs.New(ctx, cfg.Prefs)
	if err != nil {
		logger.L().Fatal("unable to open preferences", helpers.Error(err), helpers.String("backend", cfg.Prefs.Backend))
	}
	defer prefStore.Close()

	// themes are applied by the projection server, assigned below before anything is dispatched
	var server *websocket.Server
	store := ui.NewStore(ctx, prefStore,
		ui.ThemeApplierFunc(func(ctx context.Context, theme domain.Theme) error {
			return server.ApplyTheme(ctx, theme)
		}),
		ui.WithDefaultTheme(cfg.Dashboard.DefaultTheme),
		ui.WithDefaultSidebarOpen(cfg.Dashboard.DefaultSidebarOpen))

	// resource cache
	cacheOpts := []core.CacheOption{}
	if cfg.Dashboard.MonotonicResourceVersions {
		cacheOpts = append(cacheOpts, core.WithApplyOptions(core.WithMonotonicVersions()))
	}
	cache := core.NewResourceCache(core.NewLogReporter(cfg.Dashboard.ErrorSuppressionWindow), cacheOpts...)

	// k8s clients
	dynamicClient, err := utils.NewClient(cfg.InCluster.Kubeconfig)
	if err != nil {
		logger.L().Fatal("unable to create k8s client", helpers.Error(err))
	}
	clientset, err := utils.NewClientset(cfg.InCluster.Kubeconfig)
	if err != nil {
		logger.L().Fatal("unable to create k8s clientset", helpers.Error(err))
	}
	info := incluster.GetClusterInfo(ctx, clientset)

	// in-cluster adapter
	adapter := incluster.NewInClusterAdapter(cfg.InCluster, dynamicClient, cache)
	if err := adapter.Start(ctx); err != nil {
		logger.L().Fatal("unable to start in-cluster adapter", helpers.Error(err))
	}

	// projection server
	server = websocket.NewServer(cache, store,
		websocket.WithPort(cfg.Server.Port),
		websocket.WithAPIVersion(cfg.Dashboard.PluginAPIVersion),
		websocket.WithClusterInfo(info.GitVersion, info.CloudProvider),
		websocket.WithThrottleInterval(cfg.Dashboard.ThrottleInterval),
		websocket.WithMessageRate(cfg.Server.MessageRate, cfg.Server.MessageBurst),
		websocket.WithResources(cfg.InCluster.Resources))

	// plugins
	manager, err := plugins.NewManager(store, cfg.Dashboard.PluginAPIVersion)
	if err != nil {
		logger.L().Fatal("unable to create plugin manager", helpers.Error(err))
	}
	builtin := &plugins.Builtin{Resources: cfg.InCluster.Resources}
	loadPlugins := func(ctx context.Context) {
		found, err := plugins.LoadDir(ctx, cfg.Dashboard.PluginsDir)
		if err != nil {
			logger.L().Ctx(ctx).Warning("unable to read plugins", helpers.Error(err), helpers.String("dir", cfg.Dashboard.PluginsDir))
		}
		if err := manager.Replace(ctx, append([]plugins.Plugin{builtin}, found...)...); err != nil {
			logger.L().Ctx(ctx).Warning("some plugins were rejected", helpers.Error(err))
		}
		logger.L().Ctx(ctx).Info("plugins loaded", helpers.Interface("plugins", manager.Loaded()))
	}
	if cfg.Dashboard.PluginsDir == "" {
		loadPlugins(ctx)
	} else if watcher, err := plugins.NewWatcher(cfg.Dashboard.PluginsDir, cfg.Dashboard.PluginsReloadSchedule, loadPlugins); err != nil {
		logger.L().Warning("plugins will not be reloaded", helpers.Error(err))
		loadPlugins(ctx)
	} else {
		loadPlugins(ctx)
		go watcher.Run(ctx)
	}

	if err := server.Start(ctx); err != nil {
		logger.L().Fatal("unable to start projection server", helpers.Error(err))
	}
	hostname, _ := os.Hostname()
	logger.L().Info("headlamp server started", helpers.Int("port", cfg.Server.Port), helpers.String("hostname", hostname))

	<-ctx.Done()
	logger.L().Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	err = multierr.Combine(
		server.Stop(shutdownCtx),
		adapter.Stop(shutdownCtx),
		store.Close(shutdownCtx),
	)
	cache.Close()
	if err != nil {
		logger.L().Error("unclean shutdown", helpers.Error(err))
	}
}

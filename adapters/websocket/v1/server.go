package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/CloudEngineHub/headlamp/adapters"
	"github.com/CloudEngineHub/headlamp/config"
	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/messaging"
	"github.com/CloudEngineHub/headlamp/ui"
	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

const (
	defaultMessageRate  = 50
	defaultMessageBurst = 100
	defaultOutboxSize   = 256
)

// Server projects cached resource lists and the UI view to websocket clients.
type Server struct {
	cache            *core.ResourceCache
	store            *ui.Store
	port             int
	apiVersion       string
	clusterVersion   string
	cloudProvider    string
	throttleInterval time.Duration
	strategies       map[string]domain.Strategy
	messageRate      rate.Limit
	messageBurst     int
	outboxSize       int

	ctx         context.Context
	cancel      context.CancelFunc
	conns       maps.SafeMap[string, *connection]
	unsubscribe func()

	mu         sync.Mutex
	httpServer *http.Server
}

type Option func(*Server)

func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

func WithAPIVersion(version string) Option {
	return func(s *Server) {
		s.apiVersion = version
	}
}

func WithClusterInfo(gitVersion, cloudProvider string) Option {
	return func(s *Server) {
		s.clusterVersion = gitVersion
		s.cloudProvider = cloudProvider
	}
}

func WithThrottleInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.throttleInterval = interval
		}
	}
}

// WithMessageRate limits the messages each client may send per second.
func WithMessageRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 {
			s.messageRate = rate.Limit(perSecond)
			s.messageBurst = max(1, burst)
		}
	}
}

// WithOutboxSize bounds the messages queued for a client; a client that falls further behind
// is disconnected.
func WithOutboxSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithResources sets the default strategy of each configured kind.
func WithResources(resources []config.Resource) Option {
	return func(s *Server) {
		for _, r := range resources {
			if r.Strategy != "" {
				s.strategies[r.String()] = r.Strategy
			}
		}
	}
}

func NewServer(cache *core.ResourceCache, store *ui.Store, opts ...Option) *Server {
	s := &Server{
		cache:            cache,
		store:            store,
		throttleInterval: core.DefaultThrottleInterval,
		strategies:       map[string]domain.Strategy{},
		messageRate:      defaultMessageRate,
		messageBurst:     defaultMessageBurst,
		outboxSize:       defaultOutboxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.unsubscribe = store.Subscribe(func(*ui.State) {
		_ = s.broadcast(s.ctx, s.viewMessage(s.ctx))
	})
	return s
}

var _ adapters.Adapter = (*Server)(nil)

var _ ui.ThemeApplier = (*Server)(nil)

func (s *Server) strategy(scope domain.KindScope) domain.Strategy {
	if scope.Kind != nil {
		if strategy, ok := s.strategies[scope.Kind.String()]; ok {
			return strategy
		}
	}
	return domain.CopyStrategy
}

// Handler serves /healthz and upgrades every other request to a websocket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.L().Error("unable to upgrade connection", helpers.Error(err))
			return
		}
		go func() {
			if err := s.Serve(s.ctx, conn); err != nil {
				logger.L().Error("error during projection, closing connection",
					helpers.String("remote", conn.RemoteAddr().String()),
					helpers.Error(err))
			}
		}()
	})
	return mux
}

// Serve runs one client connection until it is closed or ctx is done. It closes conn.
func (s *Server) Serve(ctx context.Context, conn net.Conn) error {
	c, err := newConnection(s, conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	s.conns.Set(c.id, c)
	connectedClientsGauge.Inc()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
		s.conns.Delete(c.id)
		connectedClientsGauge.Dec()
		c.close()
		logger.L().Info("client disconnected", helpers.String("connection", c.id))
	}()
	logger.L().Info("client connected", helpers.String("connection", c.id))

	if err := c.greet(ctx); err != nil {
		return err
	}
	return c.listen(ctx)
}

func (s *Server) viewMessage(ctx context.Context) messaging.ViewMessage {
	return messaging.ViewMessage{
		Event: messaging.MsgPropEventValueView,
		MsgId: uuid.NewString(),
		View:  messaging.NewViewDocument(s.store.View(ctx)),
	}
}

// ApplyTheme sends the theme to every connected client.
func (s *Server) ApplyTheme(ctx context.Context, theme domain.Theme) error {
	return s.broadcast(ctx, messaging.ThemeMessage{
		Event: messaging.MsgPropEventValueTheme,
		MsgId: uuid.NewString(),
		Theme: theme.Name,
	})
}

func (s *Server) broadcast(ctx context.Context, msg interface{}) error {
	var err error
	s.conns.Range(func(_ string, c *connection) bool {
		err = multierr.Append(err, c.WriteMessage(ctx, msg))
		return true
	})
	return err
}

// Start listens on the configured port.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	logger.L().Ctx(ctx).Info("starting projection server", helpers.String("addr", listener.Addr().String()))
	go func(server *http.Server) {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("projection server stopped", helpers.Error(err))
		}
	}(s.httpServer)
	return nil
}

// Stop closes the listener and every client connection.
func (s *Server) Stop(ctx context.Context) error {
	s.unsubscribe()
	s.cancel()
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

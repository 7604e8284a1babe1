package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/messaging"
	"github.com/CloudEngineHub/headlamp/ui"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
	"k8s.io/utils/ptr"
)

var (
	ErrUnknownScope        = errors.New("scope is not watched")
	ErrUnknownSubscription = errors.New("unknown subscription")
	ErrInvalidStrategy     = errors.New("invalid strategy")
	ErrRateLimited         = errors.New("message rate exceeded")
	ErrSlowClient          = errors.New("client outbox is full")
	ErrConnectionClosed    = errors.New("connection is closed")
)

// subscriptionError ties a failure to the subscription it concerns.
type subscriptionError struct {
	id  string
	err error
}

func (e *subscriptionError) Error() string {
	return fmt.Sprintf("subscription %s: %v", e.id, e.err)
}

func (e *subscriptionError) Unwrap() error {
	return e.err
}

type connection struct {
	id            string
	conn          net.Conn
	server        *Server
	outPool       *ants.Pool
	outbox        chan []byte
	done          chan struct{}
	closeOnce     sync.Once
	limiter       *rate.Limiter
	subscriptions maps.SafeMap[string, *subscription]
}

var _ messaging.MessageWriter = (*connection)(nil)

func newConnection(server *Server, conn net.Conn) (*connection, error) {
	c := &connection{
		id:      uuid.NewString(),
		conn:    conn,
		server:  server,
		outbox:  make(chan []byte, server.outboxSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(server.messageRate, server.messageBurst),
	}
	// outgoing message pool, a single worker keeps frames in order
	outPool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("create outgoing message pool: %w", err)
	}
	if err := outPool.Submit(c.writeLoop); err != nil {
		outPool.Release()
		return nil, fmt.Errorf("start outgoing message writer: %w", err)
	}
	c.outPool = outPool
	return c, nil
}

// WriteMessage queues msg for the client and never waits for the socket. A client whose
// outbox is full is disconnected.
func (c *connection) WriteMessage(ctx context.Context, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.outbox <- data:
		return nil
	default:
		logger.L().Ctx(ctx).Warning("client is not reading, dropping connection",
			helpers.String("connection", c.id),
			helpers.Int("outbox", cap(c.outbox)))
		droppedClientsCounter.Inc()
		c.shutdown()
		return ErrSlowClient
	}
}

func (c *connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			if err := wsutil.WriteServerBinary(c.conn, data); err != nil {
				if !isClosed(err) {
					logger.L().Error("cannot send message", helpers.Error(err), helpers.String("connection", c.id))
				}
				c.shutdown()
				return
			}
		}
	}
}

// shutdown stops the writer and closes the socket, which ends listen.
func (c *connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *connection) greet(ctx context.Context) error {
	err := c.WriteMessage(ctx, messaging.ServerConnectedMessage{
		Event:          messaging.MsgPropEventValueServerConnected,
		MsgId:          uuid.NewString(),
		APIVersion:     c.server.apiVersion,
		ClusterVersion: c.server.clusterVersion,
		CloudProvider:  c.server.cloudProvider,
	})
	if err != nil {
		return fmt.Errorf("send server connected: %w", err)
	}
	if err := c.WriteMessage(ctx, c.server.viewMessage(ctx)); err != nil {
		return fmt.Errorf("send view: %w", err)
	}
	return nil
}

// listen reads client messages until the connection is closed.
func (c *connection) listen(ctx context.Context) error {
	for {
		data, err := wsutil.ReadClientBinary(c.conn)
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		c.handle(ctx, data)
	}
}

func isClosed(err error) bool {
	var closedErr wsutil.ClosedError
	return errors.As(err, &closedErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

func (c *connection) handle(ctx context.Context, data []byte) {
	generic, err := messaging.Decode(data)
	if err != nil {
		c.sendError(ctx, err)
		return
	}
	ctx = utils.ContextWithMsgId(ctx, generic.MsgId)
	if !c.limiter.Allow() {
		c.sendError(ctx, ErrRateLimited)
		return
	}
	switch generic.Event {
	case messaging.MsgPropEventValueSubscribe:
		var msg messaging.SubscribeMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			err = c.subscribe(ctx, msg)
		}
	case messaging.MsgPropEventValueUnsubscribe:
		var msg messaging.UnsubscribeMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			err = c.unsubscribe(msg.SubscriptionId)
		}
	case messaging.MsgPropEventValueResync:
		var msg messaging.ResyncMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			err = c.resync(ctx, msg.SubscriptionId)
		}
	case messaging.MsgPropEventValueSetTheme:
		var msg messaging.SetThemeMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			c.server.store.Dispatch(ctx, ui.SetTheme{Theme: domain.Theme{Name: msg.Theme}})
		}
	case messaging.MsgPropEventValueSetSidebarOpen:
		var msg messaging.SetSidebarOpenMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			c.server.store.Dispatch(ctx, ui.SetSidebarExpanded{Open: msg.Open, UserSelected: ptr.To(true)})
		}
	case messaging.MsgPropEventValueSetSidebarSelect:
		var msg messaging.SetSidebarSelectedMessage
		if err = json.Unmarshal(data, &msg); err == nil {
			c.server.store.Dispatch(ctx, ui.SetSidebarSelected{Name: msg.Name})
		}
	default:
		err = fmt.Errorf("%w: %s", messaging.ErrUnknownMessage, generic.Event)
	}
	if err != nil {
		logger.L().Ctx(ctx).Warning("cannot handle message", helpers.Error(err),
			helpers.String("event", generic.Event),
			helpers.String("connection", c.id))
		c.sendError(ctx, err)
	}
}

func (c *connection) subscribe(ctx context.Context, msg messaging.SubscribeMessage) error {
	scope, err := messaging.ScopeFromSubscribe(ctx, msg)
	if err != nil {
		return err
	}
	if _, ok := c.server.cache.CurrentSnapshot(scope); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	strategy := msg.Strategy
	if strategy == "" {
		strategy = c.server.strategy(scope)
	}
	if strategy != domain.CopyStrategy && strategy != domain.PatchStrategy {
		return fmt.Errorf("%w: %s", ErrInvalidStrategy, strategy)
	}

	sub := newSubscription(ctx, scope, strategy, c, c.server.cache, c.server.throttleInterval)
	c.subscriptions.Set(sub.id, sub)
	// acknowledge first, the initial document follows immediately
	err = c.WriteMessage(ctx, messaging.SubscribedMessage{
		Event:          messaging.MsgPropEventValueSubscribed,
		MsgId:          msg.MsgId,
		SubscriptionId: sub.id,
		Kind:           msg.Kind,
		Namespace:      scope.Namespace,
		Strategy:       strategy,
	})
	if err != nil {
		c.subscriptions.Delete(sub.id)
		return fmt.Errorf("send subscribed: %w", err)
	}
	sub.start()
	logger.L().Ctx(ctx).Debug("subscribed", helpers.String("connection", c.id),
		helpers.String("subscription", sub.id),
		helpers.String("scope", scope.String()),
		helpers.String("strategy", string(strategy)))
	return nil
}

func (c *connection) unsubscribe(id string) error {
	sub, ok := c.subscriptions.Load(id)
	if !ok {
		return &subscriptionError{id: id, err: ErrUnknownSubscription}
	}
	c.subscriptions.Delete(id)
	sub.close()
	return nil
}

func (c *connection) resync(ctx context.Context, id string) error {
	sub, ok := c.subscriptions.Load(id)
	if !ok {
		return &subscriptionError{id: id, err: ErrUnknownSubscription}
	}
	sub.resync(ctx)
	return nil
}

// sendError answers the message being handled; its id is taken from ctx.
func (c *connection) sendError(ctx context.Context, err error) {
	msg := messaging.ErrorMessage{
		Event:   messaging.MsgPropEventValueError,
		MsgId:   utils.MsgIdFromContext(ctx),
		Message: err.Error(),
	}
	var subErr *subscriptionError
	if errors.As(err, &subErr) {
		msg.SubscriptionId = subErr.id
	}
	if err := c.WriteMessage(ctx, msg); err != nil {
		logger.L().Ctx(ctx).Warning("cannot send error", helpers.Error(err), helpers.String("connection", c.id))
	}
}

// close stops the writer and every subscription.
func (c *connection) close() {
	c.shutdown()
	var subs []*subscription
	c.subscriptions.Range(func(_ string, sub *subscription) bool {
		subs = append(subs, sub)
		return true
	})
	for _, sub := range subs {
		c.subscriptions.Delete(sub.id)
		sub.close()
	}
	c.outPool.Release()
}

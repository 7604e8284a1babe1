package websocket

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/CloudEngineHub/headlamp/core"
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/messaging"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// subscription bridges one cached list to one client: cache -> projector -> writer.
type subscription struct {
	id       string
	scope    domain.KindScope
	strategy domain.Strategy
	writer   messaging.MessageWriter
	cache    *core.ResourceCache

	mu        sync.Mutex
	previous  []byte // last document sent, patches are computed against it
	projector *core.ThrottledProjector[domain.ResourceList]
	cacheSub  *core.Subscription
}

func newSubscription(ctx context.Context, scope domain.KindScope, strategy domain.Strategy, writer messaging.MessageWriter, cache *core.ResourceCache, interval time.Duration) *subscription {
	s := &subscription{
		id:       uuid.NewString(),
		scope:    scope,
		strategy: strategy,
		writer:   writer,
		cache:    cache,
	}
	s.projector = core.NewThrottledProjector(func(list domain.ResourceList) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sendLocked(ctx, list)
	}, core.WithInterval[domain.ResourceList](interval))
	return s
}

// start hands the current list to the projector, which sends it right away.
func (s *subscription) start() {
	s.cacheSub = s.cache.Subscribe(s.scope, s.projector.Observe)
	subscriptionsGauge.Inc()
}

// resync sends the current list in full, whatever the strategy.
func (s *subscription) resync(ctx context.Context) {
	list, ok := s.cache.CurrentSnapshot(s.scope)
	if !ok {
		list = domain.ResourceList{Kind: s.scope.Kind}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = nil
	s.sendLocked(ctx, list)
}

func (s *subscription) close() {
	if s.cacheSub != nil {
		s.cacheSub.Close()
		subscriptionsGauge.Dec()
	}
	s.projector.Close()
}

func (s *subscription) sendLocked(ctx context.Context, list domain.ResourceList) {
	data, checksum, err := messaging.NewDocument(s.scope, list).Marshal()
	if err != nil {
		logger.L().Ctx(ctx).Error("cannot marshal document", helpers.Error(err),
			helpers.String("subscription", s.id))
		return
	}
	if bytes.Equal(data, s.previous) {
		return
	}
	var msg interface{}
	encoding := "snapshot"
	if s.strategy == domain.PatchStrategy && s.previous != nil {
		patch, err := messaging.Diff(s.previous, data)
		if err != nil {
			logger.L().Ctx(ctx).Warning("cannot create patch, sending snapshot", helpers.Error(err),
				helpers.String("subscription", s.id))
		} else {
			encoding = "patch"
			msg = messaging.PatchMessage{
				Event:          messaging.MsgPropEventValuePatch,
				MsgId:          uuid.NewString(),
				SubscriptionId: s.id,
				Patch:          patch,
				Checksum:       checksum,
			}
		}
	}
	if msg == nil {
		msg = messaging.SnapshotMessage{
			Event:          messaging.MsgPropEventValueSnapshot,
			MsgId:          uuid.NewString(),
			SubscriptionId: s.id,
			Document:       data,
			Checksum:       checksum,
		}
	}
	if err := s.writer.WriteMessage(ctx, msg); err != nil {
		logger.L().Ctx(ctx).Warning("cannot send document", helpers.Error(err),
			helpers.String("subscription", s.id))
		return
	}
	sentDocumentsCounter.WithLabelValues(encoding).Inc()
	s.previous = data
}

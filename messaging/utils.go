package messaging

import (
	"context"
	"fmt"

	"github.com/CloudEngineHub/headlamp/domain"
)

// ScopeFromSubscribe resolves the scope a subscribe message asks for.
func ScopeFromSubscribe(ctx context.Context, msg SubscribeMessage) (domain.KindScope, error) {
	kind := domain.KindFromString(ctx, msg.Kind)
	if kind == nil || kind.Version == "" || kind.Resource == "" {
		return domain.KindScope{}, fmt.Errorf("invalid kind %q, want group/version/resource", msg.Kind)
	}
	return domain.KindScope{Kind: kind, Namespace: msg.Namespace}, nil
}

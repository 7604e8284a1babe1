package adapters

import (
	"context"
)

// Adapter feeds or serves the resource cache. Start returns once the adapter runs in the
// background; Stop waits for it to finish or ctx to expire.
type Adapter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

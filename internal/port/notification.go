package port

import (
	"context"

	"github.com/nqminh/kitty-market/internal/core/domain"
)

// NotificationSink is the append-only log of completed transitions. The
// core only writes to it; indexers and UIs consume it externally.
type NotificationSink interface {
	Append(ctx context.Context, n domain.Notification) error
}

// Package service holds the catalog, order and cart use cases on top of
// the repository, the cached catalog and the event transports.
package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/balkan_kitchen/internal/checkout"
)

func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = checkout.DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

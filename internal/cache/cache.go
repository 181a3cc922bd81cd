// Package cache stores rendered reports and broadcasts the "reports are stale"
// signal after every mutating action.
package cache

import (
	"context"
	"time"
)

const (
	// TagAll is attached to every cached report; catalog changes (price, names)
	// invalidate it because values are derived from current prices.
	TagAll = "all"

	InvalidateChannel = "sispendik:invalidate"
)

type Cache interface {
	// Get decodes the cached value into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, tags ...string) error
	// Invalidate drops every key carrying one of the tags and notifies subscribers.
	Invalidate(ctx context.Context, tags ...string) error
}

// InvalidationEvent is published on InvalidateChannel.
type InvalidationEvent struct {
	ID   string    `json:"id"`
	Tags []string  `json:"tags"`
	At   time.Time `json:"at"`
}

// Nop is used when no cache backend is configured.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error)    { return false, nil }
func (Nop) Set(context.Context, string, interface{}, ...string) error { return nil }
func (Nop) Invalidate(context.Context, ...string) error               { return nil }

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cachebus broadcasts schema-cache invalidation events across API
instances sharing one tenant's data plane.

Metabase memoizes parsed models in-process (§5, "per-tenant schema cache").
A mutation on instance A must not leave a stale entry cached on instance B.
cachebus rides the existing Redis connection (internal/platform/redis) as a
pub/sub transport for a single, tiny message: which tenant/model just
changed.
*/
package cachebus

import (
	stdctx "context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces the pub/sub channel so it never collides with
// rate-limiting or session keys living on the same Redis instance.
const channelPrefix = "forge:schema-invalidate:"

// Event describes a single schema-cache invalidation.
type Event struct {
	TenantID string `json:"tenant_id"`
	Model    string `json:"model"`
}

// Bus publishes and subscribes to schema invalidation events for one tenant.
type Bus struct {
	client *redis.Client
	logger *slog.Logger
}

// New constructs a Bus over an already-connected Redis client.
func New(client *redis.Client, logger *slog.Logger) *Bus {
	return &Bus{client: client, logger: logger}
}

// Publish announces that tenantID's model has changed and any cached copy
// held by another instance must be dropped.
func (b *Bus) Publish(ctx stdctx.Context, tenantID, model string) error {
	channel := channelPrefix + tenantID
	if err := b.client.Publish(ctx, channel, model).Err(); err != nil {
		return fmt.Errorf("cachebus: publish failed: %w", err)
	}
	return nil
}

// Subscribe listens for invalidation events on tenantID's channel and
// invokes onInvalidate with the affected model name for each one. It blocks
// until ctx is cancelled; callers should run it in its own goroutine.
func (b *Bus) Subscribe(ctx stdctx.Context, tenantID string, onInvalidate func(model string)) {
	channel := channelPrefix + tenantID
	sub := b.client.Subscribe(ctx, channel)
	defer func() {
		if err := sub.Close(); err != nil {
			b.logger.Error("cachebus_subscription_close_failed", slog.Any("error", err))
		}
	}()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			onInvalidate(msg.Payload)
		}
	}
}

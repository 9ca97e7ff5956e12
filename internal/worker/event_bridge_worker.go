package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/events"
)

const bridgeRetryDelay = 2 * time.Second

// StartEventBridge forwards local events to Redis and relays remote ones
// until ctx is done. The returned func stops forwarding and waits for the
// relay loop to exit.
func StartEventBridge(ctx context.Context, bridge *events.RedisBridge, logger *zap.Logger) func() {
	if bridge == nil {
		return func() {}
	}
	types := append([]events.EventType{events.EventUserCreated}, events.IncidentEventTypes...)
	stopForward := bridge.Forward(types)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			err := bridge.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			logger.Warn("event bridge stopped; retrying", zap.Error(err), zap.Duration("delay", bridgeRetryDelay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(bridgeRetryDelay):
			}
		}
	}()

	return func() {
		stopForward()
		cancel()
		wg.Wait()
	}
}

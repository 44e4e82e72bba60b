package mqtt

import (
	"context"

	corelogger "github.com/kilianp07/trajplan/core/logger"
	"github.com/kilianp07/trajplan/core/planner"
	"github.com/kilianp07/trajplan/internal/eventbus"
)

// StartPlanForwarder publishes every plan accepted on bus until ctx is done
// or the bus is closed. The returned channel is closed once the forwarder
// has stopped.
func StartPlanForwarder(ctx context.Context, bus *eventbus.TypedBus[planner.PlanAccepted], pub Publisher, log corelogger.Logger) <-chan struct{} {
	log = componentLogger(log)
	sub := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case plan, ok := <-sub:
				if !ok {
					return
				}
				if err := pub.PublishPlan(ctx, plan); err != nil {
					log.Errorf("forward plan %s for %s: %v", plan.AttemptID, plan.WorkerID, err)
				}
			}
		}
	}()
	return done
}

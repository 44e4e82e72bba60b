package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trajplan/core/planner"
	"github.com/kilianp07/trajplan/infra/logger"
	"github.com/kilianp07/trajplan/internal/eventbus"
)

type recordingPublisher struct {
	mu    sync.Mutex
	plans []string
}

func (r *recordingPublisher) PublishPlan(_ context.Context, p planner.PlanAccepted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, p.WorkerID)
	return nil
}

func (r *recordingPublisher) workers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.plans...)
}

func TestForwarderDrainsOnClose(t *testing.T) {
	bus := eventbus.NewTyped[planner.PlanAccepted]()
	pub := &recordingPublisher{}
	done := StartPlanForwarder(context.Background(), bus, pub, logger.NopLogger{})

	bus.Publish(planner.PlanAccepted{WorkerID: "a"})
	bus.Publish(planner.PlanAccepted{WorkerID: "b"})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
	assert.Equal(t, []string{"a", "b"}, pub.workers())
}

func TestForwarderStopsOnCancel(t *testing.T) {
	bus := eventbus.NewTyped[planner.PlanAccepted]()
	defer bus.Close()
	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartPlanForwarder(ctx, bus, pub, logger.NopLogger{})

	bus.Publish(planner.PlanAccepted{WorkerID: "a"})
	require.Eventually(t, func() bool { return len(pub.workers()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
}

func TestForwarderUsesTrajectoryPublisher(t *testing.T) {
	mc := &mockClient{}
	pub := newTestPublisher(t, mc, Config{})
	bus := eventbus.NewTyped[planner.PlanAccepted]()
	done := StartPlanForwarder(context.Background(), bus, pub, logger.NopLogger{})
	bus.Publish(acceptedPlan(t, "agv-2"))
	bus.Close()
	<-done
	msgs := mc.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "workers/agv-2/trajectory", msgs[0].topic)
}

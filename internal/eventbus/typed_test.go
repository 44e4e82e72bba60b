package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	assert.Equal(t, "hello", <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok, "expected channel closed after unsubscribe")
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok, "expected ch1 closed")
	_, ok = <-ch2
	assert.False(t, ok, "expected ch2 closed")

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribe after close returns a closed channel")
	bus.Publish(1)
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	require.NotPanics(t, func() { bus.Unsubscribe(ch) })
}

func TestTypedBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewTypedWithBuffer[int](2)
	slow := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Equal(t, 0, <-slow)
	assert.Equal(t, 1, <-slow)
}

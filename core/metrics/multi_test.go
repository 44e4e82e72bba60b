package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordPlanning(PlanningEvent) error {
	r.count++
	return r.err
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	require.NoError(t, m.RecordPlanning(PlanningEvent{Kind: KindFixTime}))
	require.NoError(t, m.RecordPlanning(PlanningEvent{Kind: KindMinimumTime}))
	assert.Equal(t, 2, s1.count)
	assert.Equal(t, 2, s2.count)
}

func TestMultiSink_ContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordPlanning(PlanningEvent{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.count)
}

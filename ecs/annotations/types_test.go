package annotations_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/ecsquery/ecs/annotations"
)

func TestCollectorForwardsAndRecords(t *testing.T) {
	var forwarded []string
	c := annotations.NewCollector(func(ev annotations.Event) {
		forwarded = append(forwarded, ev.Name)
	})

	c.Add(annotations.Event{Name: annotations.MatchInvoked})
	c.Add(annotations.Event{Name: annotations.TupleEmitted})

	require.Len(t, c.Events(), 2)
	assert.Equal(t, []string{annotations.MatchInvoked, annotations.TupleEmitted}, forwarded)
}

func TestCollectorDisabledWithoutHandler(t *testing.T) {
	c := annotations.NewCollector(nil)
	c.Add(annotations.Event{Name: annotations.EdgeCandidates})
	assert.Empty(t, c.Events())
}

func TestCollectorAddTiming(t *testing.T) {
	c := annotations.NewCollector(func(annotations.Event) {})
	start := time.Now().Add(-time.Millisecond)
	c.AddTiming(annotations.MatchComplete, start, map[string]interface{}{"tuples": 1})

	events := c.Events()
	require.Len(t, events, 1)
	assert.Equal(t, annotations.MatchComplete, events[0].Name)
	assert.True(t, events[0].Latency > 0)
	assert.Equal(t, 1, events[0].Data["tuples"])
}

func TestEventsReturnsSnapshot(t *testing.T) {
	c := annotations.NewCollector(func(annotations.Event) {})
	c.Add(annotations.Event{Name: annotations.TermBegin})

	snap := c.Events()
	c.Add(annotations.Event{Name: annotations.TermComplete})
	assert.Len(t, snap, 1)
}

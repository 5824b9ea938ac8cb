package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_EmitsOnTransitionsOnly(t *testing.T) {
	m := NewMonitor()
	ch := m.Subscribe()

	assert.True(t, m.Online())

	// Repeated successes are steady state, not edges.
	m.ReportUp()
	m.ReportUp()
	select {
	case s := <-ch:
		t.Fatalf("unexpected transition %v", s)
	default:
	}

	m.ReportDown()
	select {
	case s := <-ch:
		assert.Equal(t, Offline, s)
	default:
		t.Fatal("expected an offline transition")
	}
	assert.False(t, m.Online())

	m.ReportDown() // still offline, no edge
	m.ReportUp()
	select {
	case s := <-ch:
		assert.Equal(t, Online, s)
	default:
		t.Fatal("expected an online transition")
	}
}

func TestMonitor_SlowSubscriberSeesLatestTransition(t *testing.T) {
	m := NewMonitor()
	ch := m.Subscribe()

	// Two edges without a read in between: the stale one is replaced.
	m.ReportDown()
	m.ReportUp()

	s := <-ch
	require.Equal(t, Online, s, "the pending transition must be the latest one")
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra transition %v", s)
	default:
	}
}

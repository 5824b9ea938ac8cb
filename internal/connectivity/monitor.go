// Package connectivity tracks whether the backing store is reachable and
// notifies subscribers on transitions. There is no polling loop: the
// repositories and services report outcomes as they touch the store, and
// subscribers such as the sync coordinator only hear about edges, never
// steady state.
package connectivity

import (
	"log"
	"sync"
)

// State is the binary reachability of the store.
type State int

const (
	// Offline means the last store contact failed.
	Offline State = iota
	// Online means the last store contact succeeded.
	Online
)

// String implements fmt.Stringer for log lines.
func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Monitor holds the current state and fans transitions out to subscribers.
// Safe for concurrent use. Subscriber channels are buffered and sends never
// block: a slow subscriber misses intermediate flaps but always observes
// the latest transition.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []chan State
}

// NewMonitor returns a Monitor that starts online; the first failed store
// contact flips it.
func NewMonitor() *Monitor {
	return &Monitor{online: true}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// ReportUp records a successful store contact, notifying subscribers if
// this is a transition from offline.
func (m *Monitor) ReportUp() { m.set(true) }

// ReportDown records a failed store contact, notifying subscribers if this
// is a transition from online.
func (m *Monitor) ReportDown() { m.set(false) }

func (m *Monitor) set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	state := Offline
	if online {
		state = Online
	}
	log.Printf("connectivity: store is %s", state)
	for _, ch := range m.subs {
		select {
		case ch <- state:
		default:
			// Drop the older pending transition and keep the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}

// Subscribe registers a new transition channel. The channel only carries
// edges; the caller should check Online() for the current state first.
func (m *Monitor) Subscribe() <-chan State {
	ch := make(chan State, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

package capacity

import "sync"

// ManualSlots remembers the custom pickup times an operator injected for
// the date currently being worked on. The memory is session-scoped only:
// nothing is persisted, and switching to a different delivery date discards
// the previous date's entries. Safe for concurrent use from handlers.
type ManualSlots struct {
	mu    sync.Mutex
	date  string
	times []string
}

// NewManualSlots returns an empty manual slot memory.
func NewManualSlots() *ManualSlots { return &ManualSlots{} }

// Add records a manual slot for the date. If the date differs from the one
// currently held, the previous date's slots are discarded first.
// Duplicates are ignored.
func (s *ManualSlots) Add(date, timeOfDay string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if date != s.date {
		s.date = date
		s.times = nil
	}
	for _, t := range s.times {
		if t == timeOfDay {
			return
		}
	}
	s.times = append(s.times, timeOfDay)
}

// For returns the manual slots remembered for the date, or nil when the
// operator has since switched dates.
func (s *ManualSlots) For(date string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if date != s.date {
		return nil
	}
	out := make([]string, len(s.times))
	copy(out, s.times)
	return out
}

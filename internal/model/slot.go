package model

// Slot states, derived on every catalog build from the current load and the
// current wall clock. Nothing is persisted per slot.
const (
	SlotAvailable  = "available"
	SlotPast       = "past"
	SlotNearLimit  = "near-limit"
	SlotOverloaded = "overloaded"
)

// TimeSlot is one offerable pickup time for a given date, annotated with
// the load currently admitted into its window. Manual slots injected by the
// operator and cadence slots are indistinguishable once built.
//
// Fields:
//  Time         wall-clock time in "15:04" form.
//  ExistingLoad capacity weight already admitted into the slot's window.
//  Limit        configured window limit; zero when settings are unavailable
//               and enforcement is disabled.
//  State        one of the Slot* constants above.
type TimeSlot struct {
	Time         string `json:"time"`
	ExistingLoad int    `json:"existing_load"`
	Limit        int    `json:"limit,omitempty"`
	State        string `json:"state"`
}

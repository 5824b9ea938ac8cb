package model

// ProductionSettings is the process-wide capacity configuration. It is
// loaded once per session, cached by the service layer and mutated only by
// an explicit save; order admission never changes it as a side effect.
//
// Fields:
//  Limit         maximum total capacity weight admitted inside one window.
//  WindowMinutes half-width of the admission window: the window around an
//                evaluated time extends WindowMinutes before and after it.
type ProductionSettings struct {
	Limit         int `json:"limit"`
	WindowMinutes int `json:"window_minutes"`
}

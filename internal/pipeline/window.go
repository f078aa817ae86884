package pipeline

import "time"

// Window is an optional inclusive timestamp window. A zero window passes
// every line; a non-zero window passes only lines whose extracted
// timestamp exists and lies within the bounds that are set.
type Window struct {
	Since *time.Time
	Until *time.Time
}

func (w Window) IsZero() bool {
	return w.Since == nil && w.Until == nil
}

func (w Window) Contains(ts *time.Time) bool {
	if w.IsZero() {
		return true
	}
	if ts == nil {
		return false
	}
	if w.Since != nil && ts.Before(*w.Since) {
		return false
	}
	if w.Until != nil && ts.After(*w.Until) {
		return false
	}
	return true
}

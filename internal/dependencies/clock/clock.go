package clock

import (
	"github.com/jonboulle/clockwork"
)

// Clock provides time operations that can be mocked for testing.
// Timers and tickers come from the same source as Now so a fake clock
// drives scheduled game events deterministically.
type Clock = clockwork.Clock

// Timer is a one-shot timer created by a Clock
type Timer = clockwork.Timer

// Ticker is a periodic ticker created by a Clock
type Ticker = clockwork.Ticker

// New creates a Clock backed by the system clock
func New() Clock {
	return clockwork.NewRealClock()
}

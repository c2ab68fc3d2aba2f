package cryptocore

import "time"

// newTimer returns a function that, when called, reports elapsed seconds
// since newTimer was invoked. Used to feed Prometheus histograms without
// scattering time.Since calls through the operation bodies.
func newTimer() func() float64 {
	start := time.Now()
	return func() float64 { return time.Since(start).Seconds() }
}

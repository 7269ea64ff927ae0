package notify

import "time"

// Event carries everything a sink needs to deliver one alert.
type Event struct {
	Label        string
	Confidence   float64
	Timestamp    time.Time
	SnapshotPath string
}

// AlertSink delivers alert events to the outside world. Delivery is
// best-effort; failures are reported to the caller only so they can be
// logged.
type AlertSink interface {
	Dispatch(event Event) error
}

package model

import "time"

// Alert represents one dispatched notification event.
type Alert struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Snapshot   string    `json:"snapshot"`
	CreatedAt  time.Time `json:"created_at"`
}

package event

import "time"

// ButtonEvent is emitted when the front button is released.
type ButtonEvent struct {
	PressedAt time.Time
	Duration  time.Duration
}

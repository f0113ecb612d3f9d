// internal/domain/gateway/gateway.go
package gateway

import (
	"fmt"
	"time"
)

// Errors the scheduling core distinguishes. Anything else returned by a
// gateway implementation is treated as transient I/O failure and propagated.
var ErrSchedulingDenied = fmt.Errorf("notification permission not granted")
var ErrInvalidFireTime = fmt.Errorf("fire time is not in the future")

// Payload is the user-visible content of a scheduled alert.
type Payload struct {
	Title string
	Body  string
}

// ScheduledAlert is one entry of the external notification facility's
// schedule, as reported back through ListScheduled.
type ScheduledAlert struct {
	Key     string
	FireAt  time.Time
	Payload Payload
}

// Gateway is the seam to the external notification facility. All side
// effects of the scheduling core happen behind this interface; the core
// never talks to the facility directly.
type Gateway interface {
	// Schedule registers an alert under key. It fails with
	// ErrSchedulingDenied when notification permission is missing and with
	// ErrInvalidFireTime when fireAt is not strictly in the future.
	// Re-scheduling an existing key replaces it.
	Schedule(key string, fireAt time.Time, payload Payload) error

	// Cancel removes the alert under key. Cancelling an unknown key is a
	// no-op, not an error.
	Cancel(key string) error

	// CancelAllWithPrefix removes every scheduled alert whose key starts
	// with prefix.
	CancelAllWithPrefix(prefix string) error

	// ListScheduled reports the facility's current schedule.
	ListScheduled() ([]ScheduledAlert, error)
}

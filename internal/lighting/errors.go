package lighting

import "errors"

// Sentinel errors for the device service.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoSnapshot is returned when loading a catalogue snapshot and
	// none has ever been saved.
	ErrNoSnapshot = errors.New("lighting: no catalogue snapshot")

	// ErrNoStore is returned by snapshot operations when the service was
	// built without a snapshot store.
	ErrNoStore = errors.New("lighting: no snapshot store configured")
)

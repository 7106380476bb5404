package transport

import "errors"

// Domain errors for the transport package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, transport.ErrNoHealthyTransport) {
//	    // surface "device unreachable" to the caller
//	}
var (
	// ErrNoHealthyTransport is returned by routing when no transport is
	// both healthy and capable of serving a given device/command.
	ErrNoHealthyTransport = errors.New("transport: no healthy transport")

	// ErrDiscoveryFailed is returned when every registered transport
	// failed its discovery call; partial failures do not trigger it.
	ErrDiscoveryFailed = errors.New("transport: discovery failed on all transports")

	// ErrUnknownCommand is returned when a command kind is not recognised.
	ErrUnknownCommand = errors.New("transport: unknown command")

	// ErrInvalidCommand is returned when command request validation fails.
	ErrInvalidCommand = errors.New("transport: invalid command request")

	// ErrNoTransports is returned when an orchestrator has no registered
	// transports to work with.
	ErrNoTransports = errors.New("transport: no transports registered")
)

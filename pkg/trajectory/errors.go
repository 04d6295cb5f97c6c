package trajectory

import (
	errorsmod "cosmossdk.io/errors"
)

const codespace = "trajectory"

var (
	// ErrNotYetAvailable signals that the producer has not written the
	// snapshot file yet. Tolerant fetches retry on it; nothing else does.
	ErrNotYetAvailable = errorsmod.Register(codespace, 2, "snapshot not yet available")

	// ErrCorruptSnapshot is returned for a file that exists but cannot be
	// decoded. It is never retried.
	ErrCorruptSnapshot = errorsmod.Register(codespace, 3, "corrupt snapshot")

	// ErrMissingIteration is returned by strict fetches when the file for an
	// iteration that must already exist is absent.
	ErrMissingIteration = errorsmod.Register(codespace, 4, "missing iteration")

	ErrEntityCountMismatch = errorsmod.Register(codespace, 5, "entity count mismatch")
	ErrInvalidRequest      = errorsmod.Register(codespace, 6, "invalid request")
)

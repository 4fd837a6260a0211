package store

import "errors"

// ErrUnavailable is an exported constant or variable used by the session engine.
var ErrUnavailable = errors.New("token store unavailable")

// ErrCorruptRecord is returned when a persisted record fails to decode.
var ErrCorruptRecord = errors.New("token store record corrupt")

// Snapshot is the minimal rehydration subset persisted next to the token
// pair: the last-known identity and the forced-password-change flag.
// Challenge and reset-token state is deliberately excluded — a reload
// during an in-progress login or reset restarts that flow.
type Snapshot struct {
	UserID             string
	Identifier         string
	Email              string
	Role               string
	Status             uint8
	MustChangePassword bool
}

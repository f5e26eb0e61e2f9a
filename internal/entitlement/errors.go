package entitlement

import "errors"

// ErrStoreUnavailable wraps any database failure during recipient
// resolution. Callers treat it as transient: the alert is lost but the
// pipeline keeps running.
var ErrStoreUnavailable = errors.New("entitlement: store unavailable")

package notify

import "errors"

// ErrProviderUnavailable wraps failures talking to the push provider,
// both at initialisation and for a whole multicast call. Per-token
// rejections are not errors; they surface in the DispatchResult.
var ErrProviderUnavailable = errors.New("notify: push provider unavailable")

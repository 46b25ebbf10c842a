// Package dedupe guards against duplicate in-flight form submissions.
//
// A browser can post the same form twice before the first response arrives.
// Flows take a per-device, per-operation key with TryAcquire before calling
// the bank API and Release it when the call returns; a second submit while
// the key is held is rejected instead of issuing a second call.
//
// Each acquisition returns a Ticket. Release takes the ticket back, so a
// holder that ran past the TTL cannot end the hold of whoever took the key
// after it:
//
//	key := dedupe.Key(deviceID, "sign-in")
//	ticket, ok := g.TryAcquire(key)
//	if !ok {
//		return ErrSubmitInFlight
//	}
//	defer g.Release(key, ticket)
package dedupe

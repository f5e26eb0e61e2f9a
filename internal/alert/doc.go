// Package alert implements the warning-to-notification pipeline: it
// listens for device warning events over MQTT, suppresses repeats of
// the same (device, category) pair inside a sliding cooldown window,
// resolves which users are entitled to the alert, and hands the
// survivors to a push dispatcher.
//
// The package owns the dedup policy and the per-event flow; it knows
// nothing about SQL or FCM. Entitlement lookup and push delivery are
// injected behind the Resolver and Dispatcher interfaces, so the
// pipeline can be exercised end to end in tests with in-memory fakes.
//
// Architecture:
//   - CooldownStore: in-memory last-fired timestamps, atomic
//     check-and-reserve per (device, category) key
//   - Listener: MQTT subscription, payload parsing, the
//     parse → dedup → resolve → dispatch sequence, bounded workers
//   - Janitor: periodic eviction of expired cooldown entries
//
// All cooldown state is process-local and lost on restart. After a
// restart the first warning of every pair dispatches immediately; the
// worst case is one extra notification per pair, which is acceptable
// for a safety alerting path.
package alert

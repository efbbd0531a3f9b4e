// Package notifier turns a status into a chat message and delivers it,
// at most once per cooldown window.
//
// # Throttle
//
// The time of the last successful delivery is persisted through a
// storage.ThrottleStore so the cooldown survives restarts. A failed
// delivery leaves the timestamp untouched, so the next eligible attempt
// is not delayed further.
package notifier

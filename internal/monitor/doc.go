// Package monitor polls the event page and drives the notify/backoff loop.
//
// One iteration moves through named states:
//
//	Idle -> Fetching -> Classifying -> Comparing -> (Notifying) -> Sleeping
//
// and the loop ends in Terminated after too many consecutive errors.
// The decisions between states (Compare, Advance, Recover) are pure
// functions so they can be tested without I/O or real sleeping.
package monitor

// Package interview implements the interview lifecycle coordinator.
//
// The status state machine is a closed transition table consulted before
// every status write. Reminder rows are created when an interview is
// scheduled and bulk-cancelled on cancellation, reschedule, or any
// terminal transition; the periodic sweep that actually delivers them
// lives in internal/worker.
package interview

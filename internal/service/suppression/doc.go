// Package suppression manages per-company email suppression lists.
//
// A suppressed address must never receive outreach. The dispatcher loads
// the whole set once per dispatch (one query, not one lookup per
// recipient) and checks case-insensitively.
package suppression

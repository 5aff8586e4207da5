package interview

import "github.com/verticalhire/verticalhire/internal/domain"

// transitions is the closed set of valid status moves. Anything not in
// this table is invalid: self-transitions, moves out of a terminal state,
// and the scheduled-to-completed shortcut.
var transitions = map[domain.InterviewStatus]map[domain.InterviewStatus]bool{
	domain.InterviewScheduled: {
		domain.InterviewInProgress: true,
		domain.InterviewCancelled:  true,
	},
	domain.InterviewInProgress: {
		domain.InterviewCompleted: true,
		domain.InterviewCancelled: true,
	},
}

// CanTransition reports whether from → to is a valid status move. Pure
// function with no side effects; consulted before any status write.
func CanTransition(from, to domain.InterviewStatus) bool {
	return transitions[from][to]
}

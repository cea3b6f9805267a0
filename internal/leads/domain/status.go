// Package domain holds the lead lifecycle model.
package domain

// Status is the lifecycle stage of a lead.
type Status string

const (
	// StatusNew is the initial status of every lead.
	StatusNew Status = "new"
	// StatusContacted means the provider responded to the lead.
	StatusContacted Status = "contacted"
	// StatusBooked means an engagement has been scheduled.
	StatusBooked Status = "booked"
	// StatusConverted is the terminal success status.
	StatusConverted Status = "converted"
	// StatusDeclined is the terminal rejection status, reachable from any
	// non-terminal status.
	StatusDeclined Status = "declined"
)

// transitions is the legal transition graph. A status maps to the set of
// statuses it may move to. Terminal statuses have no outgoing edges and
// self-transitions are never legal.
var transitions = map[Status]map[Status]struct{}{
	StatusNew: {
		StatusContacted: {},
		StatusDeclined:  {},
	},
	StatusContacted: {
		StatusBooked:   {},
		StatusDeclined: {},
	},
	StatusBooked: {
		StatusConverted: {},
		StatusDeclined:  {},
	},
	StatusConverted: {},
	StatusDeclined:  {},
}

// IsKnown reports whether s is a recognized status value.
func (s Status) IsKnown() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	next, ok := transitions[s]
	if !ok {
		return false
	}
	_, ok = next[target]
	return ok
}

// Statuses returns all known status values.
func Statuses() []Status {
	return []Status{StatusNew, StatusContacted, StatusBooked, StatusConverted, StatusDeclined}
}

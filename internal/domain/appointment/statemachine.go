package appointment

import (
	"slices"

	"github.com/hms/hms/internal/platform/apperr"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusScheduled      Status = "scheduled"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Terminal statuses accept no further actions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Action string

const (
	ActionRecordPayment Action = "record_payment"
	ActionAllocate      Action = "allocate"
	ActionStart         Action = "start"
	ActionFinish        Action = "finish"
	ActionCancel        Action = "cancel"
)

// Actions lists every action in workflow order.
var Actions = []Action{ActionRecordPayment, ActionAllocate, ActionStart, ActionFinish, ActionCancel}

func (a Action) Valid() bool {
	_, ok := transitions[a]
	return ok
}

type transition struct {
	from []Status
	to   Status
}

var transitions = map[Action]transition{
	ActionRecordPayment: {from: []Status{StatusPendingPayment}, to: StatusPaid},
	ActionAllocate:      {from: []Status{StatusPaid}, to: StatusScheduled},
	ActionStart:         {from: []Status{StatusScheduled}, to: StatusInProgress},
	ActionFinish:        {from: []Status{StatusInProgress}, to: StatusCompleted},
	ActionCancel:        {from: []Status{StatusPendingPayment, StatusPaid, StatusScheduled}, to: StatusCancelled},
}

// Next returns the status reached by applying action in current.
func Next(current Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", apperr.Validation("unknown action %q", action)
	}
	if !slices.Contains(t.from, current) {
		return "", apperr.Conflict("cannot %s an appointment with status %s", action, current)
	}
	return t.to, nil
}

// AllowedActions lists the actions valid in current, in workflow order.
func AllowedActions(current Status) []Action {
	out := []Action{}
	for _, a := range Actions {
		if slices.Contains(transitions[a].from, current) {
			out = append(out, a)
		}
	}
	return out
}

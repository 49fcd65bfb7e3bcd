package policy

import (
	"fmt"
	"strings"
)

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Entitlement is what a caller holds for one course. The purchase and the latest
// application are independent: an admin grant has no application, and a pending
// or rejected application has no purchase.
type Entitlement struct {
	HasPurchase       bool               `json:"has_purchase"`
	ApplicationStatus *ApplicationStatus `json:"application_status"`
}

// Action is an admin decision on an application.
type Action string

const (
	ActionEnroll   Action = "enroll"
	ActionUnenroll Action = "unenroll"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionEnroll, ActionUnenroll:
		return a, nil
	}
	return "", fmt.Errorf("unknown application action %q", raw)
}

// TargetStatus is the status an application ends in after the action, whatever it was before.
func (a Action) TargetStatus() ApplicationStatus {
	if a == ActionEnroll {
		return StatusApproved
	}
	return StatusRejected
}

// GrantsPurchase reports whether the purchase row must exist after the action.
func (a Action) GrantsPurchase() bool {
	return a == ActionEnroll
}

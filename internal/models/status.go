package models

import (
	"errors"
	"fmt"
)

// Role is the account type chosen at registration. Roles are immutable;
// no flow reassigns them after the account exists.
type Role string

const (
	RoleStartup    Role = "Startup"
	RoleFreelancer Role = "Freelancer"
	RoleCorporate  Role = "Corporate"
)

// Status is the account lifecycle state. Registration and email
// verification drive the first two transitions; the remaining states are
// reached by onboarding and admin flows outside this service.
type Status string

const (
	StatusWaitlisted        Status = "Waitlisted"
	StatusPendingOnboarding Status = "PendingOnboarding"
	StatusActiveWaitlist    Status = "ActiveWaitlist"
	StatusActivePending     Status = "ActivePending"
	StatusActive            Status = "Active"
	StatusInactive          Status = "Inactive"
)

// ErrInvalidRole is returned when registration names a role outside the
// closed enumeration.
var ErrInvalidRole = errors.New("invalid role")

// InitialStatus maps a registration role to the account's starting status.
func InitialStatus(role Role) (Status, error) {
	switch role {
	case RoleStartup, RoleFreelancer:
		return StatusWaitlisted, nil
	case RoleCorporate:
		return StatusPendingOnboarding, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}

// VerifiedStatus returns the status an account moves to when its email is
// verified, and whether that is a change. Verification is idempotent: any
// status other than Waitlisted or PendingOnboarding stays put.
func VerifiedStatus(current Status) (Status, bool) {
	switch current {
	case StatusWaitlisted:
		return StatusActiveWaitlist, true
	case StatusPendingOnboarding:
		return StatusActivePending, true
	default:
		return current, false
	}
}

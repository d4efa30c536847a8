package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role Role
		want Status
	}{
		{RoleStartup, StatusWaitlisted},
		{RoleFreelancer, StatusWaitlisted},
		{RoleCorporate, StatusPendingOnboarding},
	}
	for _, tt := range tests {
		got, err := InitialStatus(tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "role %s", tt.role)
	}
}

func TestInitialStatus_InvalidRole(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{"", "Admin", "startup", "SysAdmin"} {
		_, err := InitialStatus(role)
		require.ErrorIs(t, err, ErrInvalidRole, "role %q", role)
	}
}

func TestVerifiedStatus(t *testing.T) {
	t.Parallel()

	next, changed := VerifiedStatus(StatusWaitlisted)
	assert.Equal(t, StatusActiveWaitlist, next)
	assert.True(t, changed)

	next, changed = VerifiedStatus(StatusPendingOnboarding)
	assert.Equal(t, StatusActivePending, next)
	assert.True(t, changed)
}

func TestVerifiedStatus_NoOpStates(t *testing.T) {
	t.Parallel()

	// Re-verifying an already-verified or differently-staged account
	// never mutates its status.
	for _, status := range []Status{StatusActiveWaitlist, StatusActivePending, StatusActive, StatusInactive} {
		next, changed := VerifiedStatus(status)
		assert.Equal(t, status, next, "status %s", status)
		assert.False(t, changed, "status %s", status)
	}
}

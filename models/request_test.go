package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusDelivered, StatusReturned} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("perdido").Valid())
	assert.False(t, Status("PENDING").Valid())
}

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusDelivered, StatusReturned}
	legal := map[[2]Status]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusApproved, StatusDelivered}: true,
		{StatusDelivered, StatusReturned}: true,
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			assert.Equal(t, legal[[2]Status{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusReturned} {
		for _, to := range []Status{StatusPending, StatusApproved, StatusRejected, StatusDelivered, StatusReturned} {
			assert.False(t, s.CanTransitionTo(to), "%s must be terminal", s)
		}
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name        string
		requesterID string
		isAdmin     bool
		ownerID     string
		want        bool
	}{
		{"owner may act on own resource", "user-1", false, "user-1", true},
		{"non-owner is denied", "user-1", false, "user-2", false},
		{"admin may act on any resource", "admin-1", true, "user-2", true},
		{"admin may act on own resource", "admin-1", true, "admin-1", true},
		{"anonymous requester is denied", "", false, "user-1", false},
		{"anonymous requester with empty owner is denied", "", false, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Authorize(ctx, tc.requesterID, tc.isAdmin, tc.ownerID))
		})
	}
}

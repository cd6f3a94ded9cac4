package service

import (
	"context"

	"github.com/quillworks/quill/pkg/slogx"
)

// Authorize decides resource-level access: admins may act on anything,
// everyone else only on resources they own. Denials are logged for audit;
// grants are not.
func Authorize(ctx context.Context, requesterID string, requesterIsAdmin bool, resourceOwnerID string) bool {
	if requesterIsAdmin {
		return true
	}
	if requesterID != "" && requesterID == resourceOwnerID {
		return true
	}

	slogx.FromContext(ctx).Warn("authorization denied",
		"requester_id", requesterID,
		"resource_owner_id", resourceOwnerID,
	)
	return false
}

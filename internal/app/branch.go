package app

import (
	"context"
	"fmt"

	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

// activeBranch returns the caller's most recently activated branch in the
// organization, nil when no session is live.
func (s *Service) activeBranch(ctx context.Context, orgID, userID string) (*store.UserBranch, error) {
	return s.store.LatestActiveBranch(ctx, orgID, userID)
}

// fetchOrCreateActiveBranch returns the caller's active branch, creating
// the branch row and an activating session on first edit.
func (s *Service) fetchOrCreateActiveBranch(ctx context.Context, orgID, userID string) (*store.UserBranch, error) {
	branch, err := s.store.LatestActiveBranch(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if branch != nil {
		return branch, nil
	}

	created := store.UserBranch{
		ID:             util.NewID("br"),
		CreatorID:      userID,
		OrganizationID: orgID,
		BranchName:     fmt.Sprintf("branch_%s_%d", userID, s.now().Unix()),
	}
	if err := s.store.InsertUserBranch(ctx, created); err != nil {
		return nil, err
	}
	if err := s.activateBranch(ctx, created.ID, userID); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) activateBranch(ctx context.Context, branchID, userID string) error {
	return s.store.InsertUserBranchSession(ctx, store.UserBranchSession{
		ID:           util.NewID("ses"),
		UserBranchID: branchID,
		UserID:       userID,
	})
}

func (s *Service) deactivateBranch(ctx context.Context, branchID string) error {
	return s.store.DeleteUserBranchSessions(ctx, branchID)
}

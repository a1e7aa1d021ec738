package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestActiveBranch returns the branch behind the user's most recent
// session in the organization, or nil when no workspace is active.
func (s *Store) LatestActiveBranch(ctx context.Context, orgID, userID string) (*UserBranch, error) {
	var branch UserBranch
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT ub.id, ub.creator_id, ub.organization_id, ub.branch_name, ub.created_at
		FROM user_branch_sessions ubs
		JOIN user_branches ub ON ub.id = ubs.user_branch_id
		WHERE ubs.user_id = $2 AND ub.organization_id = $1
		ORDER BY ubs.created_at DESC
		LIMIT 1
	`, orgID, userID).Scan(&branch.ID, &branch.CreatorID, &branch.OrganizationID, &branch.BranchName, &branch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest active branch: %w", err)
	}
	return &branch, nil
}

func (s *Store) InsertUserBranch(ctx context.Context, branch UserBranch) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO user_branches (id, creator_id, organization_id, branch_name)
		VALUES ($1, $2, $3, $4)
	`, branch.ID, branch.CreatorID, branch.OrganizationID, branch.BranchName)
	if err != nil {
		return fmt.Errorf("insert user branch: %w", err)
	}
	return nil
}

func (s *Store) InsertUserBranchSession(ctx context.Context, session UserBranchSession) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO user_branch_sessions (id, user_branch_id, user_id)
		VALUES ($1, $2, $3)
	`, session.ID, session.UserBranchID, session.UserID)
	if err != nil {
		return fmt.Errorf("insert user branch session: %w", err)
	}
	return nil
}

// FindActiveUserBranch is the strict authorization check: the branch row is
// returned only when a session ties this exact branch, organization, and
// user together.
func (s *Store) FindActiveUserBranch(ctx context.Context, branchID, orgID, userID string) (*UserBranch, error) {
	var branch UserBranch
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT ub.id, ub.creator_id, ub.organization_id, ub.branch_name, ub.created_at
		FROM user_branches ub
		JOIN user_branch_sessions ubs ON ubs.user_branch_id = ub.id AND ubs.user_id = $3
		WHERE ub.id = $1 AND ub.organization_id = $2
		LIMIT 1
	`, branchID, orgID, userID).Scan(&branch.ID, &branch.CreatorID, &branch.OrganizationID, &branch.BranchName, &branch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active user branch: %w", err)
	}
	return &branch, nil
}

func (s *Store) GetUserBranch(ctx context.Context, branchID string) (UserBranch, error) {
	var branch UserBranch
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, creator_id, organization_id, branch_name, created_at
		FROM user_branches WHERE id = $1
	`, branchID).Scan(&branch.ID, &branch.CreatorID, &branch.OrganizationID, &branch.BranchName, &branch.CreatedAt)
	if err != nil {
		return UserBranch{}, err
	}
	return branch, nil
}

// DeleteUserBranchSessions deactivates a branch; session existence is what
// "active" means, there is no boolean column.
func (s *Store) DeleteUserBranchSessions(ctx context.Context, branchID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM user_branch_sessions WHERE user_branch_id = $1
	`, branchID)
	if err != nil {
		return fmt.Errorf("delete user branch sessions: %w", err)
	}
	return nil
}

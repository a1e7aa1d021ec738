package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestCommit is the head of the branch's internal ledger chain.
func (s *Store) LatestCommit(ctx context.Context, branchID string) (*Commit, error) {
	var commit Commit
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, user_branch_id, parent_commit_id, message, created_at
		FROM commits
		WHERE user_branch_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, branchID).Scan(&commit.ID, &commit.UserBranchID, &commit.ParentCommitID, &commit.Message, &commit.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest commit: %w", err)
	}
	return &commit, nil
}

func (s *Store) InsertCommit(ctx context.Context, commit Commit) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO commits (id, user_branch_id, parent_commit_id, message)
		VALUES ($1,$2,$3,$4)
	`, commit.ID, commit.UserBranchID, commit.ParentCommitID, commit.Message)
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

func (s *Store) InsertCommitDocumentDiff(ctx context.Context, diff CommitDocumentDiff) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO commit_document_diffs (id, commit_id, entity_id, change_type, first_version_id, last_version_id)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, diff.ID, diff.CommitID, diff.EntityID, diff.ChangeType, diff.FirstVersionID, diff.LastVersionID)
	if err != nil {
		return fmt.Errorf("insert commit document diff: %w", err)
	}
	return nil
}

func (s *Store) InsertCommitCategoryDiff(ctx context.Context, diff CommitCategoryDiff) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO commit_category_diffs (id, commit_id, entity_id, change_type, first_version_id, last_version_id)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, diff.ID, diff.CommitID, diff.EntityID, diff.ChangeType, diff.FirstVersionID, diff.LastVersionID)
	if err != nil {
		return fmt.Errorf("insert commit category diff: %w", err)
	}
	return nil
}

func (s *Store) ListCommitDocumentDiffs(ctx context.Context, commitID string) ([]CommitDocumentDiff, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, commit_id, entity_id, change_type, first_version_id, last_version_id
		FROM commit_document_diffs
		WHERE commit_id = $1
		ORDER BY id
	`, commitID)
	if err != nil {
		return nil, fmt.Errorf("list commit document diffs: %w", err)
	}
	defer rows.Close()

	var diffs []CommitDocumentDiff
	for rows.Next() {
		var d CommitDocumentDiff
		if err := rows.Scan(&d.ID, &d.CommitID, &d.EntityID, &d.ChangeType, &d.FirstVersionID, &d.LastVersionID); err != nil {
			return nil, fmt.Errorf("scan commit document diff: %w", err)
		}
		diffs = append(diffs, d)
	}
	return diffs, rows.Err()
}

func (s *Store) ListCommitCategoryDiffs(ctx context.Context, commitID string) ([]CommitCategoryDiff, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, commit_id, entity_id, change_type, first_version_id, last_version_id
		FROM commit_category_diffs
		WHERE commit_id = $1
		ORDER BY id
	`, commitID)
	if err != nil {
		return nil, fmt.Errorf("list commit category diffs: %w", err)
	}
	defer rows.Close()

	var diffs []CommitCategoryDiff
	for rows.Next() {
		var d CommitCategoryDiff
		if err := rows.Scan(&d.ID, &d.CommitID, &d.EntityID, &d.ChangeType, &d.FirstVersionID, &d.LastVersionID); err != nil {
			return nil, fmt.Errorf("scan commit category diff: %w", err)
		}
		diffs = append(diffs, d)
	}
	return diffs, rows.Err()
}

func (s *Store) InsertActivityLog(ctx context.Context, entry ActivityLog) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO activity_logs (id, organization_id, user_id, action, target_type, target_id)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.OrganizationID, entry.UserID, entry.Action, entry.TargetType, entry.TargetID)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

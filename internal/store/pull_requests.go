package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) InsertPullRequest(ctx context.Context, pr PullRequest) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO pull_requests (id, user_branch_id, organization_id, pr_number, title, status)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, pr.ID, pr.UserBranchID, pr.OrganizationID, pr.PRNumber, pr.Title, pr.Status)
	if err != nil {
		return fmt.Errorf("insert pull request: %w", err)
	}
	return nil
}

func (s *Store) GetPullRequest(ctx context.Context, prID string) (PullRequest, error) {
	var pr PullRequest
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, user_branch_id, organization_id, pr_number, title, status, created_at, updated_at
		FROM pull_requests WHERE id = $1
	`, prID).Scan(&pr.ID, &pr.UserBranchID, &pr.OrganizationID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return PullRequest{}, err
	}
	return pr, nil
}

func (s *Store) ListPullRequests(ctx context.Context, orgID string) ([]PullRequest, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, user_branch_id, organization_id, pr_number, title, status, created_at, updated_at
		FROM pull_requests
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	defer rows.Close()

	var items []PullRequest
	for rows.Next() {
		var pr PullRequest
		if err := rows.Scan(&pr.ID, &pr.UserBranchID, &pr.OrganizationID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pull request: %w", err)
		}
		items = append(items, pr)
	}
	return items, rows.Err()
}

func (s *Store) UpdatePullRequestStatus(ctx context.Context, prID string, status PullRequestStatus) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE pull_requests SET status = $2, updated_at = NOW() WHERE id = $1
	`, prID, status)
	if err != nil {
		return fmt.Errorf("update pull request status: %w", err)
	}
	return nil
}

func (s *Store) InsertPullRequestEditSession(ctx context.Context, session PullRequestEditSession) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO pull_request_edit_sessions (id, pull_request_id, user_id, token, started_at)
		VALUES ($1,$2,$3,$4,$5)
	`, session.ID, session.PullRequestID, session.UserID, session.Token, session.StartedAt)
	if err != nil {
		return fmt.Errorf("insert edit session: %w", err)
	}
	return nil
}

// FindOpenEditSession matches the (pull request, token, user) triple to the
// one unfinished session it may have; nil when none matches.
func (s *Store) FindOpenEditSession(ctx context.Context, prID, token, userID string) (*PullRequestEditSession, error) {
	var session PullRequestEditSession
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, pull_request_id, user_id, token, started_at, finished_at
		FROM pull_request_edit_sessions
		WHERE pull_request_id = $1 AND token = $2 AND user_id = $3 AND finished_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, prID, token, userID).Scan(&session.ID, &session.PullRequestID, &session.UserID, &session.Token, &session.StartedAt, &session.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open edit session: %w", err)
	}
	return &session, nil
}

func (s *Store) FinishEditSession(ctx context.Context, sessionID string, finishedAt time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE pull_request_edit_sessions SET finished_at = $2 WHERE id = $1 AND finished_at IS NULL
	`, sessionID, finishedAt)
	if err != nil {
		return fmt.Errorf("finish edit session: %w", err)
	}
	return nil
}

func (s *Store) CountFinishedEditSessions(ctx context.Context, prID string) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pull_request_edit_sessions
		WHERE pull_request_id = $1 AND finished_at IS NOT NULL
	`, prID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count finished edit sessions: %w", err)
	}
	return n, nil
}

// UpsertEditSessionDiff keeps one row per (session, target, original
// version), overwriting the current version pointer and diff type on
// repeated edits inside the same session.
func (s *Store) UpsertEditSessionDiff(ctx context.Context, diff PullRequestEditSessionDiff) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO pull_request_edit_session_diffs (
			id, session_id, target_type, original_version_id, current_version_id, diff_type
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id, target_type, original_version_id)
		DO UPDATE SET current_version_id = EXCLUDED.current_version_id,
			diff_type = EXCLUDED.diff_type,
			updated_at = NOW()
	`, diff.ID, diff.SessionID, diff.TargetType, diff.OriginalVersionID, diff.CurrentVersionID, diff.DiffType)
	if err != nil {
		return fmt.Errorf("upsert edit session diff: %w", err)
	}
	return nil
}

// ListFinishedEditSessionDiffs returns the diffs of every finished session
// of a pull request, i.e. the re-edits the merge has to fold in.
func (s *Store) ListFinishedEditSessionDiffs(ctx context.Context, prID string) ([]PullRequestEditSessionDiff, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT d.id, d.session_id, d.target_type, d.original_version_id, d.current_version_id, d.diff_type, d.updated_at
		FROM pull_request_edit_session_diffs d
		JOIN pull_request_edit_sessions ses ON ses.id = d.session_id
		WHERE ses.pull_request_id = $1 AND ses.finished_at IS NOT NULL
		ORDER BY d.updated_at
	`, prID)
	if err != nil {
		return nil, fmt.Errorf("list finished edit session diffs: %w", err)
	}
	defer rows.Close()

	var items []PullRequestEditSessionDiff
	for rows.Next() {
		var d PullRequestEditSessionDiff
		if err := rows.Scan(&d.ID, &d.SessionID, &d.TargetType, &d.OriginalVersionID, &d.CurrentVersionID, &d.DiffType, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan edit session diff: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ListEditSessionDiffs returns the diffs of every session of a pull
// request, open ones included, newest overwrite last.
func (s *Store) ListEditSessionDiffs(ctx context.Context, prID string) ([]PullRequestEditSessionDiff, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT d.id, d.session_id, d.target_type, d.original_version_id, d.current_version_id, d.diff_type, d.updated_at
		FROM pull_request_edit_session_diffs d
		JOIN pull_request_edit_sessions ses ON ses.id = d.session_id
		WHERE ses.pull_request_id = $1
		ORDER BY d.updated_at
	`, prID)
	if err != nil {
		return nil, fmt.Errorf("list edit session diffs: %w", err)
	}
	defer rows.Close()

	var items []PullRequestEditSessionDiff
	for rows.Next() {
		var d PullRequestEditSessionDiff
		if err := rows.Scan(&d.ID, &d.SessionID, &d.TargetType, &d.OriginalVersionID, &d.CurrentVersionID, &d.DiffType, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan edit session diff: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *Store) InsertFixRequest(ctx context.Context, fix FixRequest) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO fix_requests (id, pull_request_id, user_id, status)
		VALUES ($1,$2,$3,$4)
	`, fix.ID, fix.PullRequestID, fix.UserID, fix.Status)
	if err != nil {
		return fmt.Errorf("insert fix request: %w", err)
	}
	return nil
}

func (s *Store) GetFixRequest(ctx context.Context, fixID string) (FixRequest, error) {
	var fix FixRequest
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, pull_request_id, user_id, status, created_at, applied_at
		FROM fix_requests WHERE id = $1
	`, fixID).Scan(&fix.ID, &fix.PullRequestID, &fix.UserID, &fix.Status, &fix.CreatedAt, &fix.AppliedAt)
	if err != nil {
		return FixRequest{}, err
	}
	return fix, nil
}

func (s *Store) MarkFixRequestApplied(ctx context.Context, fixID string, versions []FixRequestVersion) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		UPDATE fix_requests SET status = 'APPLIED', applied_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, fixID)
	if err != nil {
		return fmt.Errorf("apply fix request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("fix request %s not pending", fixID)
	}
	for _, v := range versions {
		if _, err := s.q(ctx).ExecContext(ctx, `
			INSERT INTO fix_request_versions (fix_request_id, target_type, version_id)
			VALUES ($1,$2,$3)
			ON CONFLICT DO NOTHING
		`, fixID, v.TargetType, v.VersionID); err != nil {
			return fmt.Errorf("insert fix request version: %w", err)
		}
	}
	return nil
}

func (s *Store) CountAppliedFixRequests(ctx context.Context, prID string) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fix_requests WHERE pull_request_id = $1 AND status = 'APPLIED'
	`, prID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count applied fix requests: %w", err)
	}
	return n, nil
}

func (s *Store) ListAppliedFixRequestVersions(ctx context.Context, prID string) ([]FixRequestVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT frv.fix_request_id, frv.target_type, frv.version_id
		FROM fix_request_versions frv
		JOIN fix_requests fr ON fr.id = frv.fix_request_id
		WHERE fr.pull_request_id = $1 AND fr.status = 'APPLIED'
	`, prID)
	if err != nil {
		return nil, fmt.Errorf("list applied fix request versions: %w", err)
	}
	defer rows.Close()

	var items []FixRequestVersion
	for rows.Next() {
		var v FixRequestVersion
		if err := rows.Scan(&v.FixRequestID, &v.TargetType, &v.VersionID); err != nil {
			return nil, fmt.Errorf("scan fix request version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

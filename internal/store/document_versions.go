package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const documentVersionColumns = `
	id, entity_id, organization_id, user_branch_id, status,
	sidebar_label, slug, content, category_entity_id, file_order,
	is_public, last_edited_by, is_deleted, deleted_at,
	pull_request_edit_session_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentVersion(row rowScanner) (DocumentVersion, error) {
	var v DocumentVersion
	err := row.Scan(
		&v.ID, &v.EntityID, &v.OrganizationID, &v.UserBranchID, &v.Status,
		&v.SidebarLabel, &v.Slug, &v.Content, &v.CategoryEntityID, &v.FileOrder,
		&v.IsPublic, &v.LastEditedBy, &v.IsDeleted, &v.DeletedAt,
		&v.PullRequestEditSessionID, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func (s *Store) InsertDocumentVersion(ctx context.Context, v DocumentVersion) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO document_versions (
			id, entity_id, organization_id, user_branch_id, status,
			sidebar_label, slug, content, category_entity_id, file_order,
			is_public, last_edited_by, is_deleted, pull_request_edit_session_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, v.ID, v.EntityID, v.OrganizationID, v.UserBranchID, v.Status,
		v.SidebarLabel, v.Slug, v.Content, v.CategoryEntityID, v.FileOrder,
		v.IsPublic, v.LastEditedBy, v.IsDeleted, v.PullRequestEditSessionID)
	if err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

func (s *Store) GetDocumentVersion(ctx context.Context, versionID string) (DocumentVersion, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+documentVersionColumns+` FROM document_versions WHERE id=$1
	`, versionID)
	return scanDocumentVersion(row)
}

// HardDeleteDocumentVersion removes a superseded DRAFT row outright.
// MERGED rows must never reach this.
func (s *Store) HardDeleteDocumentVersion(ctx context.Context, versionID string) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM document_versions WHERE id=$1 AND status <> 'MERGED'
	`, versionID)
	if err != nil {
		return fmt.Errorf("delete document version: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("document version %s not deletable", versionID)
	}
	return nil
}

// LatestVisibleDocumentVersion picks the newest version visible for the
// given branch: MERGED always qualifies, branch-owned DRAFT qualifies, and
// branch-owned PUSHED qualifies only in re-edit mode (includePushed).
// A nil branch restricts the view to mainline.
func (s *Store) LatestVisibleDocumentVersion(ctx context.Context, entityID string, branchID *string, includePushed bool) (*DocumentVersion, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+documentVersionColumns+`
		FROM document_versions
		WHERE entity_id = $1
		  AND deleted_at IS NULL
		  AND (
			status = 'MERGED'
			OR ($2::text IS NOT NULL AND user_branch_id = $2
				AND (status = 'DRAFT' OR ($3 AND status = 'PUSHED')))
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, entityID, branchID, includePushed)
	v, err := scanDocumentVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest visible document version: %w", err)
	}
	return &v, nil
}

// ListDocumentWorkContext returns, per document entity, the single version
// the work-context rules select: the branch's edit-start current version
// when one exists, else the newest MERGED / branch-visible row. Entities
// whose selected version is flagged deleted are omitted. categoryEntityID
// nil lists root documents; pass a value to scope to one category.
func (s *Store) ListDocumentWorkContext(ctx context.Context, orgID string, categoryEntityID *string, branchID *string, includePushed bool) ([]DocumentVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		WITH candidates AS (
			SELECT dv.*,
				ROW_NUMBER() OVER (
					PARTITION BY dv.entity_id
					ORDER BY (esv.id IS NOT NULL) DESC, dv.created_at DESC, dv.id DESC
				) AS rn
			FROM document_versions dv
			LEFT JOIN edit_start_versions esv
				ON $3::text IS NOT NULL
				AND esv.user_branch_id = $3
				AND esv.target_type = 'document'
				AND esv.current_version_id = dv.id
			WHERE dv.organization_id = $1
			  AND dv.deleted_at IS NULL
			  AND (
				esv.id IS NOT NULL
				OR dv.status = 'MERGED'
				OR ($3::text IS NOT NULL AND dv.user_branch_id = $3
					AND (dv.status = 'DRAFT' OR ($4 AND dv.status = 'PUSHED')))
			  )
		)
		SELECT `+documentVersionColumns+`
		FROM candidates
		WHERE rn = 1
		  AND NOT is_deleted
		  AND category_entity_id IS NOT DISTINCT FROM $2
		ORDER BY file_order, sidebar_label
	`, orgID, categoryEntityID, branchID, includePushed)
	if err != nil {
		return nil, fmt.Errorf("list document work context: %w", err)
	}
	defer rows.Close()

	var items []DocumentVersion
	for rows.Next() {
		v, err := scanDocumentVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) ListDocumentVersionsByBranch(ctx context.Context, branchID string) ([]DocumentVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+documentVersionColumns+`
		FROM document_versions
		WHERE user_branch_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`, branchID)
	if err != nil {
		return nil, fmt.Errorf("list branch document versions: %w", err)
	}
	defer rows.Close()

	var items []DocumentVersion
	for rows.Next() {
		v, err := scanDocumentVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// SetDocumentVersionStatusByBranch advances every version in a branch from
// one status to another (DRAFT->PUSHED on submit, any->MERGED on merge).
func (s *Store) SetDocumentVersionStatusByBranch(ctx context.Context, branchID string, from, to VersionStatus) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE document_versions
		SET status = $3, updated_at = NOW()
		WHERE user_branch_id = $1 AND status = $2
	`, branchID, from, to)
	if err != nil {
		return fmt.Errorf("set document version status: %w", err)
	}
	return nil
}

// MarkBranchDocumentVersionsMerged flips every non-merged version owned by
// the branch to MERGED and detaches it from the branch (mainline rows carry
// a null user_branch_id).
func (s *Store) MarkBranchDocumentVersionsMerged(ctx context.Context, branchID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE document_versions
		SET status = 'MERGED', user_branch_id = NULL, updated_at = NOW()
		WHERE user_branch_id = $1 AND status <> 'MERGED'
	`, branchID)
	if err != nil {
		return fmt.Errorf("mark branch document versions merged: %w", err)
	}
	return nil
}

// LatestMergedDocumentVersion is the mainline view of an entity.
func (s *Store) LatestMergedDocumentVersion(ctx context.Context, entityID string) (*DocumentVersion, error) {
	return s.LatestVisibleDocumentVersion(ctx, entityID, nil, false)
}

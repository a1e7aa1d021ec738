package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const categoryVersionColumns = `
	id, entity_id, organization_id, user_branch_id, status,
	sidebar_label, slug, description, parent_entity_id, position,
	is_deleted, deleted_at, pull_request_edit_session_id, created_at, updated_at`

func scanCategoryVersion(row rowScanner) (CategoryVersion, error) {
	var v CategoryVersion
	err := row.Scan(
		&v.ID, &v.EntityID, &v.OrganizationID, &v.UserBranchID, &v.Status,
		&v.SidebarLabel, &v.Slug, &v.Description, &v.ParentEntityID, &v.Position,
		&v.IsDeleted, &v.DeletedAt, &v.PullRequestEditSessionID, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func (s *Store) InsertCategoryVersion(ctx context.Context, v CategoryVersion) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO category_versions (
			id, entity_id, organization_id, user_branch_id, status,
			sidebar_label, slug, description, parent_entity_id, position,
			is_deleted, pull_request_edit_session_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, v.ID, v.EntityID, v.OrganizationID, v.UserBranchID, v.Status,
		v.SidebarLabel, v.Slug, v.Description, v.ParentEntityID, v.Position,
		v.IsDeleted, v.PullRequestEditSessionID)
	if err != nil {
		return fmt.Errorf("insert category version: %w", err)
	}
	return nil
}

func (s *Store) GetCategoryVersion(ctx context.Context, versionID string) (CategoryVersion, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+categoryVersionColumns+` FROM category_versions WHERE id=$1
	`, versionID)
	return scanCategoryVersion(row)
}

func (s *Store) HardDeleteCategoryVersion(ctx context.Context, versionID string) error {
	result, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM category_versions WHERE id=$1 AND status <> 'MERGED'
	`, versionID)
	if err != nil {
		return fmt.Errorf("delete category version: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("category version %s not deletable", versionID)
	}
	return nil
}

func (s *Store) LatestVisibleCategoryVersion(ctx context.Context, entityID string, branchID *string, includePushed bool) (*CategoryVersion, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+categoryVersionColumns+`
		FROM category_versions
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
	v, err := scanCategoryVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest visible category version: %w", err)
	}
	return &v, nil
}

// ListCategoryWorkContext mirrors ListDocumentWorkContext for categories,
// scoped to the children of parentEntityID (nil for top level).
func (s *Store) ListCategoryWorkContext(ctx context.Context, orgID string, parentEntityID *string, branchID *string, includePushed bool) ([]CategoryVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		WITH candidates AS (
			SELECT cv.*,
				ROW_NUMBER() OVER (
					PARTITION BY cv.entity_id
					ORDER BY (esv.id IS NOT NULL) DESC, cv.created_at DESC, cv.id DESC
				) AS rn
			FROM category_versions cv
			LEFT JOIN edit_start_versions esv
				ON $3::text IS NOT NULL
				AND esv.user_branch_id = $3
				AND esv.target_type = 'category'
				AND esv.current_version_id = cv.id
			WHERE cv.organization_id = $1
			  AND cv.deleted_at IS NULL
			  AND (
				esv.id IS NOT NULL
				OR cv.status = 'MERGED'
				OR ($3::text IS NOT NULL AND cv.user_branch_id = $3
					AND (cv.status = 'DRAFT' OR ($4 AND cv.status = 'PUSHED')))
			  )
		)
		SELECT `+categoryVersionColumns+`
		FROM candidates
		WHERE rn = 1
		  AND NOT is_deleted
		  AND parent_entity_id IS NOT DISTINCT FROM $2
		ORDER BY position, sidebar_label
	`, orgID, parentEntityID, branchID, includePushed)
	if err != nil {
		return nil, fmt.Errorf("list category work context: %w", err)
	}
	defer rows.Close()

	var items []CategoryVersion
	for rows.Next() {
		v, err := scanCategoryVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) ListCategoryVersionsByBranch(ctx context.Context, branchID string) ([]CategoryVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+categoryVersionColumns+`
		FROM category_versions
		WHERE user_branch_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`, branchID)
	if err != nil {
		return nil, fmt.Errorf("list branch category versions: %w", err)
	}
	defer rows.Close()

	var items []CategoryVersion
	for rows.Next() {
		v, err := scanCategoryVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) SetCategoryVersionStatusByBranch(ctx context.Context, branchID string, from, to VersionStatus) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE category_versions
		SET status = $3, updated_at = NOW()
		WHERE user_branch_id = $1 AND status = $2
	`, branchID, from, to)
	if err != nil {
		return fmt.Errorf("set category version status: %w", err)
	}
	return nil
}

func (s *Store) MarkBranchCategoryVersionsMerged(ctx context.Context, branchID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE category_versions
		SET status = 'MERGED', user_branch_id = NULL, updated_at = NOW()
		WHERE user_branch_id = $1 AND status <> 'MERGED'
	`, branchID)
	if err != nil {
		return fmt.Errorf("mark branch category versions merged: %w", err)
	}
	return nil
}

func (s *Store) LatestMergedCategoryVersion(ctx context.Context, entityID string) (*CategoryVersion, error) {
	return s.LatestVisibleCategoryVersion(ctx, entityID, nil, false)
}

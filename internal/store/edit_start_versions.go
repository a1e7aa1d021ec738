package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const editStartColumns = `
	id, user_branch_id, target_type, entity_id,
	original_version_id, current_version_id, created_at, updated_at`

func scanEditStartVersion(row rowScanner) (EditStartVersion, error) {
	var esv EditStartVersion
	err := row.Scan(
		&esv.ID, &esv.UserBranchID, &esv.TargetType, &esv.EntityID,
		&esv.OriginalVersionID, &esv.CurrentVersionID, &esv.CreatedAt, &esv.UpdatedAt,
	)
	return esv, err
}

// GetEditStartVersion returns the branch's edit record for an entity, or
// nil when the entity has not been touched in this branch.
func (s *Store) GetEditStartVersion(ctx context.Context, branchID string, target TargetType, entityID string) (*EditStartVersion, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+editStartColumns+`
		FROM edit_start_versions
		WHERE user_branch_id = $1 AND target_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, branchID, target, entityID)
	esv, err := scanEditStartVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edit start version: %w", err)
	}
	return &esv, nil
}

func (s *Store) InsertEditStartVersion(ctx context.Context, esv EditStartVersion) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO edit_start_versions (
			id, user_branch_id, target_type, entity_id,
			original_version_id, current_version_id
		) VALUES ($1,$2,$3,$4,$5,$6)
	`, esv.ID, esv.UserBranchID, esv.TargetType, esv.EntityID,
		esv.OriginalVersionID, esv.CurrentVersionID)
	if err != nil {
		return fmt.Errorf("insert edit start version: %w", err)
	}
	return nil
}

// UpdateEditStartVersionCurrent repoints the single mutable pointer of an
// editing arc at the newest version row.
func (s *Store) UpdateEditStartVersionCurrent(ctx context.Context, id, currentVersionID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE edit_start_versions
		SET current_version_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, currentVersionID)
	if err != nil {
		return fmt.Errorf("update edit start version: %w", err)
	}
	return nil
}

func (s *Store) ListEditStartVersionsByBranch(ctx context.Context, branchID string) ([]EditStartVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+editStartColumns+`
		FROM edit_start_versions
		WHERE user_branch_id = $1
		ORDER BY created_at
	`, branchID)
	if err != nil {
		return nil, fmt.Errorf("list edit start versions: %w", err)
	}
	defer rows.Close()

	var items []EditStartVersion
	for rows.Next() {
		esv, err := scanEditStartVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edit start version: %w", err)
		}
		items = append(items, esv)
	}
	return items, rows.Err()
}

func (s *Store) DeleteEditStartVersionsByBranch(ctx context.Context, branchID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM edit_start_versions WHERE user_branch_id = $1
	`, branchID)
	if err != nil {
		return fmt.Errorf("delete edit start versions: %w", err)
	}
	return nil
}

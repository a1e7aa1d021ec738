package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PgSearch implements Searcher with a plain ILIKE scan over the latest
// merged version of each document. It is the fallback when Meilisearch is
// down or unconfigured.
type PgSearch struct {
	db *sql.DB
}

func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true; if Postgres is down the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

func (p *PgSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pattern := "%" + q.Text + "%"
	rows, err := p.db.QueryContext(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (entity_id)
				entity_id, organization_id, sidebar_label, slug, content, is_deleted
			FROM document_versions
			WHERE organization_id = $1 AND status = 'MERGED' AND deleted_at IS NULL
			ORDER BY entity_id, created_at DESC
		)
		SELECT entity_id, organization_id, sidebar_label, slug, LEFT(content, 160)
		FROM latest
		WHERE NOT is_deleted
		  AND (sidebar_label ILIKE $2 OR slug ILIKE $2 OR content ILIKE $2)
		ORDER BY sidebar_label
		LIMIT $3 OFFSET $4
	`, q.OrganizationID, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pg search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.EntityID, &r.OrganizationID, &r.SidebarLabel, &r.Slug, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, len(results), rows.Err()
}

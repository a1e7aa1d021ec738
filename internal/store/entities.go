package store

import (
	"context"
	"fmt"
)

func (s *Store) InsertDocumentEntity(ctx context.Context, entity DocumentEntity) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO document_entities (id, organization_id) VALUES ($1, $2)
	`, entity.ID, entity.OrganizationID)
	if err != nil {
		return fmt.Errorf("insert document entity: %w", err)
	}
	return nil
}

func (s *Store) GetDocumentEntity(ctx context.Context, entityID string) (DocumentEntity, error) {
	var entity DocumentEntity
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, organization_id, created_at, deleted_at
		FROM document_entities WHERE id=$1
	`, entityID).Scan(&entity.ID, &entity.OrganizationID, &entity.CreatedAt, &entity.DeletedAt)
	if err != nil {
		return DocumentEntity{}, err
	}
	return entity, nil
}

func (s *Store) InsertCategoryEntity(ctx context.Context, entity CategoryEntity) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO category_entities (id, organization_id) VALUES ($1, $2)
	`, entity.ID, entity.OrganizationID)
	if err != nil {
		return fmt.Errorf("insert category entity: %w", err)
	}
	return nil
}

func (s *Store) GetCategoryEntity(ctx context.Context, entityID string) (CategoryEntity, error) {
	var entity CategoryEntity
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, organization_id, created_at, deleted_at
		FROM category_entities WHERE id=$1
	`, entityID).Scan(&entity.ID, &entity.OrganizationID, &entity.CreatedAt, &entity.DeletedAt)
	if err != nil {
		return CategoryEntity{}, err
	}
	return entity, nil
}

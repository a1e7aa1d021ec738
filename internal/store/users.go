package store

import (
	"context"
	"fmt"
)

func (s *Store) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, display_name, email, created_at FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	var org Organization
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, slug, created_at FROM organizations WHERE id=$1
	`, orgID).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (s *Store) IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM organization_members
			WHERE organization_id=$1 AND user_id=$2
		)
	`, orgID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/content"
	"inkwell/api/internal/store"
)

// EditScope carries an optional re-edit token pair. An invalid or
// mismatched pair silently degrades to plain draft visibility; it never
// fails the request.
type EditScope struct {
	PullRequestID string
	Token         string
}

// resolveEditSession validates a re-edit token against the caller's active
// branch. The pull request's branch must be actively held by the caller in
// the branch's organization; anything else degrades to nil, it never fails
// the request.
func (s *Service) resolveEditSession(ctx context.Context, branch *store.UserBranch, userID string, scope EditScope) (*store.PullRequestEditSession, error) {
	if branch == nil || scope.PullRequestID == "" || scope.Token == "" {
		return nil, nil
	}
	pr, err := s.store.GetPullRequest(ctx, scope.PullRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	held, err := s.store.FindActiveUserBranch(ctx, pr.UserBranchID, branch.OrganizationID, userID)
	if err != nil {
		return nil, err
	}
	if held == nil || held.ID != branch.ID {
		return nil, nil
	}
	return s.store.FindOpenEditSession(ctx, pr.ID, scope.Token, userID)
}

// resolveWorkContext applies the visibility precedence once for both
// version tables: an edit-start pointer wins outright, then branch-owned
// drafts (plus pushed versions inside a live edit session), then mainline.
func resolveWorkContext[V any](
	ctx context.Context,
	s *Service,
	branch *store.UserBranch,
	userID, entityID string,
	target store.TargetType,
	scope EditScope,
	byID func(ctx context.Context, id string) (V, error),
	latestMerged func(ctx context.Context, entityID string) (*V, error),
	latestVisible func(ctx context.Context, entityID string, branchID *string, includePushed bool) (*V, error),
) (*V, error) {
	if branch == nil {
		return latestMerged(ctx, entityID)
	}

	esv, err := s.store.GetEditStartVersion(ctx, branch.ID, target, entityID)
	if err != nil {
		return nil, err
	}
	if esv != nil {
		v, err := byID(ctx, esv.CurrentVersionID)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	session, err := s.resolveEditSession(ctx, branch, userID, scope)
	if err != nil {
		return nil, err
	}
	return latestVisible(ctx, entityID, &branch.ID, session != nil)
}

// GetDocumentWorkContext resolves the version of a document the caller
// should see and edit. Nil means the document is not visible to them.
func (s *Service) GetDocumentWorkContext(ctx context.Context, orgID, userID, entityID string, scope EditScope) (*store.DocumentVersion, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	if _, err := s.requireDocumentEntity(ctx, orgID, entityID); err != nil {
		return nil, err
	}
	branch, err := s.activeBranch(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return resolveWorkContext(ctx, s, branch, userID, entityID, store.TargetDocument, scope,
		s.store.GetDocumentVersion, s.store.LatestMergedDocumentVersion, s.store.LatestVisibleDocumentVersion)
}

// GetCategoryWorkContext is GetDocumentWorkContext for categories.
func (s *Service) GetCategoryWorkContext(ctx context.Context, orgID, userID, entityID string, scope EditScope) (*store.CategoryVersion, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	if _, err := s.requireCategoryEntity(ctx, orgID, entityID); err != nil {
		return nil, err
	}
	branch, err := s.activeBranch(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return resolveWorkContext(ctx, s, branch, userID, entityID, store.TargetCategory, scope,
		s.store.GetCategoryVersion, s.store.LatestMergedCategoryVersion, s.store.LatestVisibleCategoryVersion)
}

// ListDocumentsWorkContext lists the visible documents under one category
// (nil for the root), one version per entity, deleted entities elided.
func (s *Service) ListDocumentsWorkContext(ctx context.Context, orgID, userID string, categoryEntityID *string, scope EditScope) ([]store.DocumentVersion, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	branchID, includePushed, err := s.listVisibility(ctx, orgID, userID, scope)
	if err != nil {
		return nil, err
	}
	return s.store.ListDocumentWorkContext(ctx, orgID, categoryEntityID, branchID, includePushed)
}

// ListCategoriesWorkContext lists the visible categories under one parent.
func (s *Service) ListCategoriesWorkContext(ctx context.Context, orgID, userID string, parentEntityID *string, scope EditScope) ([]store.CategoryVersion, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	branchID, includePushed, err := s.listVisibility(ctx, orgID, userID, scope)
	if err != nil {
		return nil, err
	}
	return s.store.ListCategoryWorkContext(ctx, orgID, parentEntityID, branchID, includePushed)
}

func (s *Service) listVisibility(ctx context.Context, orgID, userID string, scope EditScope) (*string, bool, error) {
	branch, err := s.activeBranch(ctx, orgID, userID)
	if err != nil {
		return nil, false, err
	}
	if branch == nil {
		return nil, false, nil
	}
	session, err := s.resolveEditSession(ctx, branch, userID, scope)
	if err != nil {
		return nil, false, err
	}
	return &branch.ID, session != nil, nil
}

// descendantCategories walks the category tree below root breadth first in
// the given visibility, depth bounded the same way the ancestor walk is.
func (s *Service) descendantCategories(ctx context.Context, orgID string, branchID *string, includePushed bool, rootEntityID string) ([]store.CategoryVersion, error) {
	var out []store.CategoryVersion
	frontier := []string{rootEntityID}
	seen := map[string]bool{rootEntityID: true}
	for depth := 0; len(frontier) > 0 && depth < content.MaxAncestorDepth; depth++ {
		var next []string
		for _, parent := range frontier {
			parentID := parent
			children, err := s.store.ListCategoryWorkContext(ctx, orgID, &parentID, branchID, includePushed)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if seen[child.EntityID] {
					continue
				}
				seen[child.EntityID] = true
				out = append(out, child)
				next = append(next, child.EntityID)
			}
		}
		frontier = next
	}
	return out, nil
}

// categoryResolver adapts the work-context lookup to the serializer's
// ancestor walk.
func (s *Service) categoryResolver(ctx context.Context, branchID *string, includePushed bool) content.CategoryResolver {
	return func(entityID string) (*store.CategoryVersion, error) {
		v, err := s.store.LatestVisibleCategoryVersion(ctx, entityID, branchID, includePushed)
		if err != nil {
			return nil, err
		}
		if v != nil && v.IsDeleted {
			return nil, nil
		}
		return v, nil
	}
}

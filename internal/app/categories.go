package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/content"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

type CategoryInput struct {
	SidebarLabel   string
	Slug           string
	Description    string
	ParentEntityID *string
	Position       int
}

// requireCategoryEntity loads the entity scoped to the organization.
// Entities of other organizations are indistinguishable from absent ones.
func (s *Service) requireCategoryEntity(ctx context.Context, orgID, entityID string) (store.CategoryEntity, error) {
	entity, err := s.store.GetCategoryEntity(ctx, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CategoryEntity{}, notFound("category not found")
	}
	if err != nil {
		return store.CategoryEntity{}, err
	}
	if entity.OrganizationID != orgID {
		return store.CategoryEntity{}, notFound("category not found")
	}
	return entity, nil
}

// CreateCategory mints a new category entity plus its first draft version.
func (s *Service) CreateCategory(ctx context.Context, orgID, userID string, input CategoryInput, scope EditScope) (*store.CategoryVersion, error) {
	var created store.CategoryVersion
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		branch, err := s.fetchOrCreateActiveBranch(ctx, orgID, userID)
		if err != nil {
			return err
		}
		session, err := s.resolveEditSession(ctx, branch, userID, scope)
		if err != nil {
			return err
		}

		entity := store.CategoryEntity{ID: util.NewID("cat"), OrganizationID: orgID}
		if err := s.requireValidParent(ctx, orgID, entity.ID, input.ParentEntityID, &branch.ID, session != nil); err != nil {
			return err
		}
		if err := s.store.InsertCategoryEntity(ctx, entity); err != nil {
			return err
		}

		created = store.CategoryVersion{
			ID:                       util.NewID("ver"),
			EntityID:                 entity.ID,
			OrganizationID:           orgID,
			UserBranchID:             &branch.ID,
			Status:                   store.StatusDraft,
			SidebarLabel:             input.SidebarLabel,
			Slug:                     input.Slug,
			Description:              input.Description,
			ParentEntityID:           input.ParentEntityID,
			Position:                 input.Position,
			PullRequestEditSessionID: sessionID(session),
		}
		if err := s.store.InsertCategoryVersion(ctx, created); err != nil {
			return err
		}

		esv := store.EditStartVersion{
			ID:                util.NewID("esv"),
			UserBranchID:      branch.ID,
			TargetType:        store.TargetCategory,
			EntityID:          entity.ID,
			OriginalVersionID: created.ID,
			CurrentVersionID:  created.ID,
		}
		if err := s.store.InsertEditStartVersion(ctx, esv); err != nil {
			return err
		}
		if err := s.recordCategorySessionDiff(ctx, session, esv, false); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "category.create", store.TargetCategory, entity.ID)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCategory writes a fresh draft version for the category and moves
// the edit-start pointer, superseding any prior draft.
func (s *Service) UpdateCategory(ctx context.Context, orgID, userID, entityID string, input CategoryInput, scope EditScope) (*store.CategoryVersion, error) {
	var updated store.CategoryVersion
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		if _, err := s.requireCategoryEntity(ctx, orgID, entityID); err != nil {
			return err
		}
		branch, err := s.fetchOrCreateActiveBranch(ctx, orgID, userID)
		if err != nil {
			return err
		}
		session, err := s.resolveEditSession(ctx, branch, userID, scope)
		if err != nil {
			return err
		}
		current, esv, err := s.currentCategory(ctx, branch.ID, entityID, session != nil)
		if err != nil {
			return err
		}
		if current == nil || current.IsDeleted {
			return notFound("category not found")
		}
		if !editable(current.UserBranchID, current.Status, branch.ID, session != nil) {
			return invalidArgument("category is being edited on another workspace")
		}
		if err := s.requireValidParent(ctx, orgID, entityID, input.ParentEntityID, &branch.ID, session != nil); err != nil {
			return err
		}

		updated = store.CategoryVersion{
			ID:                       util.NewID("ver"),
			EntityID:                 entityID,
			OrganizationID:           orgID,
			UserBranchID:             &branch.ID,
			Status:                   store.StatusDraft,
			SidebarLabel:             input.SidebarLabel,
			Slug:                     input.Slug,
			Description:              input.Description,
			ParentEntityID:           input.ParentEntityID,
			Position:                 input.Position,
			PullRequestEditSessionID: sessionID(session),
		}
		if err := s.store.InsertCategoryVersion(ctx, updated); err != nil {
			return err
		}

		esv, err = s.advanceCategoryESV(ctx, branch.ID, entityID, esv, current, updated.ID)
		if err != nil {
			return err
		}
		if err := s.recordCategorySessionDiff(ctx, session, *esv, false); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "category.update", store.TargetCategory, entityID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory layers deletion drafts over the category and everything
// below it: descendant categories and the documents filed under any of
// them.
func (s *Service) DeleteCategory(ctx context.Context, orgID, userID, entityID string, scope EditScope) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.requireMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if _, err := s.requireCategoryEntity(ctx, orgID, entityID); err != nil {
			return err
		}
		branch, err := s.fetchOrCreateActiveBranch(ctx, orgID, userID)
		if err != nil {
			return err
		}
		session, err := s.resolveEditSession(ctx, branch, userID, scope)
		if err != nil {
			return err
		}

		descendants, err := s.descendantCategories(ctx, orgID, &branch.ID, session != nil, entityID)
		if err != nil {
			return err
		}
		if err := s.deleteCategoryOnBranch(ctx, branch.ID, entityID, session); err != nil {
			return err
		}
		categoryIDs := []string{entityID}
		for _, descendant := range descendants {
			if err := s.deleteCategoryOnBranch(ctx, branch.ID, descendant.EntityID, session); err != nil {
				return err
			}
			categoryIDs = append(categoryIDs, descendant.EntityID)
		}
		for _, categoryID := range categoryIDs {
			catID := categoryID
			docs, err := s.store.ListDocumentWorkContext(ctx, orgID, &catID, &branch.ID, session != nil)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				if err := s.deleteDocumentOnBranch(ctx, branch.ID, orgID, user, doc.EntityID, session); err != nil {
					return err
				}
			}
		}
		return s.logActivity(ctx, orgID, userID, "category.delete", store.TargetCategory, entityID)
	})
}

func (s *Service) deleteCategoryOnBranch(ctx context.Context, branchID, entityID string, session *store.PullRequestEditSession) error {
	current, esv, err := s.currentCategory(ctx, branchID, entityID, session != nil)
	if err != nil {
		return err
	}
	if current == nil || current.IsDeleted {
		return notFound("category not found")
	}
	if !editable(current.UserBranchID, current.Status, branchID, session != nil) {
		return invalidArgument("category is being edited on another workspace")
	}

	tombstone := *current
	tombstone.ID = util.NewID("ver")
	tombstone.UserBranchID = &branchID
	tombstone.Status = store.StatusDraft
	tombstone.IsDeleted = true
	tombstone.PullRequestEditSessionID = sessionID(session)
	if err := s.store.InsertCategoryVersion(ctx, tombstone); err != nil {
		return err
	}

	esv, err = s.advanceCategoryESV(ctx, branchID, entityID, esv, current, tombstone.ID)
	if err != nil {
		return err
	}
	return s.recordCategorySessionDiff(ctx, session, *esv, true)
}

func (s *Service) currentCategory(ctx context.Context, branchID, entityID string, inSession bool) (*store.CategoryVersion, *store.EditStartVersion, error) {
	esv, err := s.store.GetEditStartVersion(ctx, branchID, store.TargetCategory, entityID)
	if err != nil {
		return nil, nil, err
	}
	if esv != nil {
		v, err := s.store.GetCategoryVersion(ctx, esv.CurrentVersionID)
		if err != nil {
			return nil, nil, err
		}
		return &v, esv, nil
	}
	v, err := s.store.LatestVisibleCategoryVersion(ctx, entityID, &branchID, inSession)
	return v, nil, err
}

func (s *Service) advanceCategoryESV(ctx context.Context, branchID, entityID string, esv *store.EditStartVersion, prior *store.CategoryVersion, newVersionID string) (*store.EditStartVersion, error) {
	if esv == nil {
		created := store.EditStartVersion{
			ID:                util.NewID("esv"),
			UserBranchID:      branchID,
			TargetType:        store.TargetCategory,
			EntityID:          entityID,
			OriginalVersionID: prior.ID,
			CurrentVersionID:  newVersionID,
		}
		if err := s.store.InsertEditStartVersion(ctx, created); err != nil {
			return nil, err
		}
		return &created, nil
	}

	if err := s.store.UpdateEditStartVersionCurrent(ctx, esv.ID, newVersionID); err != nil {
		return nil, err
	}
	if prior.Status == store.StatusDraft && prior.ID != newVersionID {
		if err := s.store.HardDeleteCategoryVersion(ctx, prior.ID); err != nil {
			return nil, err
		}
	}
	updated := *esv
	updated.CurrentVersionID = newVersionID
	return &updated, nil
}

func (s *Service) recordCategorySessionDiff(ctx context.Context, session *store.PullRequestEditSession, esv store.EditStartVersion, deleted bool) error {
	if session == nil {
		return nil
	}
	diffType, err := s.categoryDiffType(ctx, esv, deleted)
	if err != nil {
		return err
	}
	return s.store.UpsertEditSessionDiff(ctx, store.PullRequestEditSessionDiff{
		ID:                util.NewID("esd"),
		SessionID:         session.ID,
		TargetType:        store.TargetCategory,
		OriginalVersionID: esv.OriginalVersionID,
		CurrentVersionID:  esv.CurrentVersionID,
		DiffType:          diffType,
	})
}

func (s *Service) categoryDiffType(ctx context.Context, esv store.EditStartVersion, deleted bool) (store.DiffType, error) {
	if deleted {
		return store.DiffDeleted, nil
	}
	if esv.OriginalVersionID == esv.CurrentVersionID {
		return store.DiffCreated, nil
	}
	original, err := s.store.GetCategoryVersion(ctx, esv.OriginalVersionID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DiffCreated, nil
	}
	if err != nil {
		return "", err
	}
	if original.UserBranchID != nil && *original.UserBranchID == esv.UserBranchID {
		return store.DiffCreated, nil
	}
	return store.DiffUpdated, nil
}

// requireValidParent walks the would-be parent chain, rejecting unknown
// and foreign-organization parents, cycles through the category itself
// and chains past the depth bound.
func (s *Service) requireValidParent(ctx context.Context, orgID, childEntityID string, parentEntityID *string, branchID *string, inSession bool) error {
	if parentEntityID == nil {
		return nil
	}
	parent, err := s.store.GetCategoryEntity(ctx, *parentEntityID)
	if errors.Is(err, sql.ErrNoRows) {
		return invalidArgument("parent category not found")
	}
	if err != nil {
		return err
	}
	if parent.OrganizationID != orgID {
		return invalidArgument("parent category not found")
	}
	resolve := s.categoryResolver(ctx, branchID, inSession)
	seen := map[string]bool{childEntityID: true}
	entityID := *parentEntityID
	for depth := 0; ; depth++ {
		if depth >= content.MaxAncestorDepth {
			return invalidArgument("category nesting exceeds the depth limit")
		}
		if seen[entityID] {
			return invalidArgument("category parent chain loops back on itself")
		}
		seen[entityID] = true

		category, err := resolve(entityID)
		if err != nil {
			return err
		}
		if category == nil {
			if depth == 0 {
				return invalidArgument("parent category not found")
			}
			break
		}
		if category.ParentEntityID == nil {
			break
		}
		entityID = *category.ParentEntityID
	}
	return nil
}

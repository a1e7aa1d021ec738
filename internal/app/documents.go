package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

type DocumentInput struct {
	SidebarLabel     string
	Slug             string
	Content          string
	CategoryEntityID *string
	FileOrder        int
	IsPublic         bool
}

// editable implements the edit-permission rule: mainline versions are fair
// game, branch-owned drafts belong to their branch, and pushed versions
// reopen only inside a live re-edit session.
func editable(versionBranch *string, status store.VersionStatus, branchID string, inSession bool) bool {
	if status == store.StatusMerged {
		return true
	}
	if versionBranch == nil || *versionBranch != branchID {
		return false
	}
	if status == store.StatusDraft {
		return true
	}
	return status == store.StatusPushed && inSession
}

func sessionID(session *store.PullRequestEditSession) *string {
	if session == nil {
		return nil
	}
	return &session.ID
}

// requireDocumentEntity loads the entity scoped to the organization.
// Entities of other organizations are indistinguishable from absent ones.
func (s *Service) requireDocumentEntity(ctx context.Context, orgID, entityID string) (store.DocumentEntity, error) {
	entity, err := s.store.GetDocumentEntity(ctx, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DocumentEntity{}, notFound("document not found")
	}
	if err != nil {
		return store.DocumentEntity{}, err
	}
	if entity.OrganizationID != orgID {
		return store.DocumentEntity{}, notFound("document not found")
	}
	return entity, nil
}

// CreateDocument mints a new document entity plus its first draft version
// on the caller's branch, activating a branch if none is.
func (s *Service) CreateDocument(ctx context.Context, orgID, userID string, input DocumentInput, scope EditScope) (*store.DocumentVersion, error) {
	var created store.DocumentVersion
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.requireMember(ctx, orgID, userID)
		if err != nil {
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
		if input.CategoryEntityID != nil {
			if err := s.requireVisibleCategory(ctx, orgID, *input.CategoryEntityID, &branch.ID, session != nil); err != nil {
				return err
			}
		}

		entity := store.DocumentEntity{ID: util.NewID("doc"), OrganizationID: orgID}
		if err := s.store.InsertDocumentEntity(ctx, entity); err != nil {
			return err
		}

		created = store.DocumentVersion{
			ID:                       util.NewID("ver"),
			EntityID:                 entity.ID,
			OrganizationID:           orgID,
			UserBranchID:             &branch.ID,
			Status:                   store.StatusDraft,
			SidebarLabel:             input.SidebarLabel,
			Slug:                     input.Slug,
			Content:                  input.Content,
			CategoryEntityID:         input.CategoryEntityID,
			FileOrder:                input.FileOrder,
			IsPublic:                 input.IsPublic,
			LastEditedBy:             user.DisplayName,
			PullRequestEditSessionID: sessionID(session),
		}
		if err := s.store.InsertDocumentVersion(ctx, created); err != nil {
			return err
		}

		esv := store.EditStartVersion{
			ID:                util.NewID("esv"),
			UserBranchID:      branch.ID,
			TargetType:        store.TargetDocument,
			EntityID:          entity.ID,
			OriginalVersionID: created.ID,
			CurrentVersionID:  created.ID,
		}
		if err := s.store.InsertEditStartVersion(ctx, esv); err != nil {
			return err
		}
		if err := s.recordDocumentSessionDiff(ctx, session, esv, false); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "document.create", store.TargetDocument, entity.ID)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateDocument writes a fresh draft version for the entity, hard
// deleting the draft it supersedes and keeping the edit-start pointer at
// the newest version.
func (s *Service) UpdateDocument(ctx context.Context, orgID, userID, entityID string, input DocumentInput, scope EditScope) (*store.DocumentVersion, error) {
	var updated store.DocumentVersion
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.requireMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if _, err := s.requireDocumentEntity(ctx, orgID, entityID); err != nil {
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
		current, esv, err := s.currentDocument(ctx, branch.ID, entityID, session != nil)
		if err != nil {
			return err
		}
		if current == nil || current.IsDeleted {
			return notFound("document not found")
		}
		if !editable(current.UserBranchID, current.Status, branch.ID, session != nil) {
			return invalidArgument("document is being edited on another workspace")
		}
		if input.CategoryEntityID != nil {
			if err := s.requireVisibleCategory(ctx, orgID, *input.CategoryEntityID, &branch.ID, session != nil); err != nil {
				return err
			}
		}

		updated = store.DocumentVersion{
			ID:                       util.NewID("ver"),
			EntityID:                 entityID,
			OrganizationID:           orgID,
			UserBranchID:             &branch.ID,
			Status:                   store.StatusDraft,
			SidebarLabel:             input.SidebarLabel,
			Slug:                     input.Slug,
			Content:                  input.Content,
			CategoryEntityID:         input.CategoryEntityID,
			FileOrder:                input.FileOrder,
			IsPublic:                 input.IsPublic,
			LastEditedBy:             user.DisplayName,
			PullRequestEditSessionID: sessionID(session),
		}
		if err := s.store.InsertDocumentVersion(ctx, updated); err != nil {
			return err
		}

		esv, err = s.advanceDocumentESV(ctx, branch.ID, entityID, esv, current, updated.ID)
		if err != nil {
			return err
		}
		if err := s.recordDocumentSessionDiff(ctx, session, *esv, false); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "document.update", store.TargetDocument, entityID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDocument layers a deletion draft on top of the entity. The entity
// disappears from the caller's work context and, once merged, from
// mainline.
func (s *Service) DeleteDocument(ctx context.Context, orgID, userID, entityID string, scope EditScope) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.requireMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if _, err := s.requireDocumentEntity(ctx, orgID, entityID); err != nil {
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
		if err := s.deleteDocumentOnBranch(ctx, branch.ID, orgID, user, entityID, session); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "document.delete", store.TargetDocument, entityID)
	})
}

func (s *Service) deleteDocumentOnBranch(ctx context.Context, branchID, orgID string, user store.User, entityID string, session *store.PullRequestEditSession) error {
	current, esv, err := s.currentDocument(ctx, branchID, entityID, session != nil)
	if err != nil {
		return err
	}
	if current == nil || current.IsDeleted {
		return notFound("document not found")
	}
	if !editable(current.UserBranchID, current.Status, branchID, session != nil) {
		return invalidArgument("document is being edited on another workspace")
	}

	tombstone := *current
	tombstone.ID = util.NewID("ver")
	tombstone.UserBranchID = &branchID
	tombstone.Status = store.StatusDraft
	tombstone.LastEditedBy = user.DisplayName
	tombstone.IsDeleted = true
	tombstone.PullRequestEditSessionID = sessionID(session)
	if err := s.store.InsertDocumentVersion(ctx, tombstone); err != nil {
		return err
	}

	esv, err = s.advanceDocumentESV(ctx, branchID, entityID, esv, current, tombstone.ID)
	if err != nil {
		return err
	}
	return s.recordDocumentSessionDiff(ctx, session, *esv, true)
}

// currentDocument resolves the branch-local current version together with
// the edit-start pointer, if one exists yet.
func (s *Service) currentDocument(ctx context.Context, branchID, entityID string, inSession bool) (*store.DocumentVersion, *store.EditStartVersion, error) {
	esv, err := s.store.GetEditStartVersion(ctx, branchID, store.TargetDocument, entityID)
	if err != nil {
		return nil, nil, err
	}
	if esv != nil {
		v, err := s.store.GetDocumentVersion(ctx, esv.CurrentVersionID)
		if err != nil {
			return nil, nil, err
		}
		return &v, esv, nil
	}
	v, err := s.store.LatestVisibleDocumentVersion(ctx, entityID, &branchID, inSession)
	return v, nil, err
}

// advanceDocumentESV moves the edit-start pointer to newVersionID,
// creating the pointer on first touch and hard deleting the superseded
// draft afterwards. Pushed and merged predecessors stay.
func (s *Service) advanceDocumentESV(ctx context.Context, branchID, entityID string, esv *store.EditStartVersion, prior *store.DocumentVersion, newVersionID string) (*store.EditStartVersion, error) {
	if esv == nil {
		created := store.EditStartVersion{
			ID:                util.NewID("esv"),
			UserBranchID:      branchID,
			TargetType:        store.TargetDocument,
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
		if err := s.store.HardDeleteDocumentVersion(ctx, prior.ID); err != nil {
			return nil, err
		}
	}
	updated := *esv
	updated.CurrentVersionID = newVersionID
	return &updated, nil
}

// recordDocumentSessionDiff upserts the per-entity change record of a live
// re-edit session. Outside a session it is a no-op.
func (s *Service) recordDocumentSessionDiff(ctx context.Context, session *store.PullRequestEditSession, esv store.EditStartVersion, deleted bool) error {
	if session == nil {
		return nil
	}
	diffType, err := s.documentDiffType(ctx, esv, deleted)
	if err != nil {
		return err
	}
	return s.store.UpsertEditSessionDiff(ctx, store.PullRequestEditSessionDiff{
		ID:                util.NewID("esd"),
		SessionID:         session.ID,
		TargetType:        store.TargetDocument,
		OriginalVersionID: esv.OriginalVersionID,
		CurrentVersionID:  esv.CurrentVersionID,
		DiffType:          diffType,
	})
}

func (s *Service) documentDiffType(ctx context.Context, esv store.EditStartVersion, deleted bool) (store.DiffType, error) {
	if deleted {
		return store.DiffDeleted, nil
	}
	if esv.OriginalVersionID == esv.CurrentVersionID {
		return store.DiffCreated, nil
	}
	original, err := s.store.GetDocumentVersion(ctx, esv.OriginalVersionID)
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

// requireVisibleCategory rejects references to categories the caller
// cannot see, including categories of other organizations.
func (s *Service) requireVisibleCategory(ctx context.Context, orgID, entityID string, branchID *string, inSession bool) error {
	entity, err := s.store.GetCategoryEntity(ctx, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return invalidArgument("category not found")
	}
	if err != nil {
		return err
	}
	if entity.OrganizationID != orgID {
		return invalidArgument("category not found")
	}
	v, err := s.store.LatestVisibleCategoryVersion(ctx, entityID, branchID, inSession)
	if err != nil {
		return err
	}
	if v == nil || v.IsDeleted {
		return invalidArgument("category not found")
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, orgID, userID, action string, target store.TargetType, targetID string) error {
	return s.store.InsertActivityLog(ctx, store.ActivityLog{
		ID:             util.NewID("act"),
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		TargetType:     string(target),
		TargetID:       targetID,
	})
}

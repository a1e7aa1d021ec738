package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/content"
	"inkwell/api/internal/gitremote"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
)

// MergePullRequest merges the remote pull request and finalizes the local
// state: branch versions become mainline, edit-start leftovers go away,
// the branch deactivates. When review edits or applied fixes exist the
// branch content is rebuilt on the remote first.
func (s *Service) MergePullRequest(ctx context.Context, orgID, userID, prID string) error {
	var reindex []store.DocumentVersion
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		pr, err := s.getOrgPullRequest(ctx, orgID, prID)
		if err != nil {
			return err
		}
		if pr.Status != store.PROpened {
			return invalidArgument("pull request is not open")
		}
		branch, err := s.store.GetUserBranch(ctx, pr.UserBranchID)
		if err != nil {
			return err
		}

		finishedSessions, err := s.store.CountFinishedEditSessions(ctx, pr.ID)
		if err != nil {
			return err
		}
		appliedFixes, err := s.store.CountAppliedFixRequests(ctx, pr.ID)
		if err != nil {
			return err
		}

		if finishedSessions == 0 && appliedFixes == 0 {
			if err := s.requireMergeable(ctx, pr.PRNumber); err != nil {
				return err
			}
		} else {
			if err := s.rebuildBranchHead(ctx, pr, branch); err != nil {
				return err
			}
			if err := s.requireMergeable(ctx, pr.PRNumber); err != nil {
				return err
			}
		}
		if err := s.git.MergePullRequest(ctx, pr.PRNumber, pr.Title); err != nil {
			return remoteFailed(err)
		}

		reindex, err = s.latestBranchDocuments(ctx, branch.ID)
		if err != nil {
			return err
		}
		if err := s.store.MarkBranchDocumentVersionsMerged(ctx, branch.ID); err != nil {
			return err
		}
		if err := s.store.MarkBranchCategoryVersionsMerged(ctx, branch.ID); err != nil {
			return err
		}
		if err := s.store.DeleteEditStartVersionsByBranch(ctx, branch.ID); err != nil {
			return err
		}
		if err := s.deactivateBranch(ctx, branch.ID); err != nil {
			return err
		}
		if err := s.store.UpdatePullRequestStatus(ctx, pr.ID, store.PRMerged); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.merge", "pull_request", pr.ID)
	})
	if err != nil {
		return err
	}

	s.reindexMerged(reindex)
	return nil
}

func (s *Service) requireMergeable(ctx context.Context, number int) error {
	info, err := s.git.GetPullRequest(ctx, number)
	if err != nil {
		return remoteFailed(err)
	}
	if info.Mergeable != nil && !*info.Mergeable {
		return invalidArgument("pull request conflicts with the base branch")
	}
	return nil
}

// rebuildBranchHead refreshes the remote branch from the base branch and
// layers the re-edited and fixed versions on top as one commit. Only
// versions whose edit-start record belongs to the pull request's branch
// participate.
func (s *Service) rebuildBranchHead(ctx context.Context, pr store.PullRequest, branch store.UserBranch) error {
	versions, err := s.reviewedVersions(ctx, pr)
	if err != nil {
		return err
	}
	entries, err := s.reviewedFiles(ctx, branch.ID, versions)
	if err != nil {
		return err
	}

	if err := s.git.UpdatePullRequestBranch(ctx, pr.PRNumber); err != nil {
		return remoteFailed(err)
	}
	headRef, err := s.git.GetRef(ctx, branch.BranchName)
	if err != nil {
		return remoteFailed(err)
	}
	baseTreeSHA, err := s.git.GetCommitTree(ctx, headRef.SHA)
	if err != nil {
		return remoteFailed(err)
	}
	treeSHA, err := s.git.CreateTree(ctx, baseTreeSHA, entries)
	if err != nil {
		return remoteFailed(err)
	}
	commitSHA, err := s.git.CreateCommit(ctx, "Apply review edits", treeSHA, []string{headRef.SHA})
	if err != nil {
		return remoteFailed(err)
	}
	if err := s.git.UpdateRef(ctx, branch.BranchName, commitSHA, false); err != nil {
		return remoteFailed(err)
	}
	return nil
}

// reviewedVersions gathers the version references produced by finished
// edit sessions and applied fix requests, deduplicated.
func (s *Service) reviewedVersions(ctx context.Context, pr store.PullRequest) ([]store.FixRequestVersion, error) {
	var out []store.FixRequestVersion
	seen := map[string]bool{}

	sessionDiffs, err := s.store.ListFinishedEditSessionDiffs(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range sessionDiffs {
		if seen[d.CurrentVersionID] {
			continue
		}
		seen[d.CurrentVersionID] = true
		out = append(out, store.FixRequestVersion{TargetType: d.TargetType, VersionID: d.CurrentVersionID})
	}

	fixVersions, err := s.store.ListAppliedFixRequestVersions(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range fixVersions {
		if seen[v.VersionID] {
			continue
		}
		seen[v.VersionID] = true
		out = append(out, store.FixRequestVersion{TargetType: v.TargetType, VersionID: v.VersionID})
	}
	return out, nil
}

func (s *Service) reviewedFiles(ctx context.Context, branchID string, versions []store.FixRequestVersion) ([]gitremote.TreeEntry, error) {
	resolve := s.categoryResolver(ctx, &branchID, true)

	var entries []gitremote.TreeEntry
	for _, ref := range versions {
		switch ref.TargetType {
		case store.TargetDocument:
			v, err := s.store.GetDocumentVersion(ctx, ref.VersionID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if v.IsDeleted {
				continue
			}
			tracked, err := s.store.GetEditStartVersion(ctx, branchID, store.TargetDocument, v.EntityID)
			if err != nil {
				return nil, err
			}
			if tracked == nil {
				continue
			}
			slugs, err := content.AncestorSlugs(v.CategoryEntityID, resolve)
			if err != nil {
				return nil, invalidArgument(err.Error())
			}
			f := content.DocumentFile(v, slugs)
			entries = append(entries, gitremote.TreeEntry{Path: f.Path, Mode: "100644", Type: "blob", Content: f.Content})
		case store.TargetCategory:
			v, err := s.store.GetCategoryVersion(ctx, ref.VersionID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if v.IsDeleted {
				continue
			}
			tracked, err := s.store.GetEditStartVersion(ctx, branchID, store.TargetCategory, v.EntityID)
			if err != nil {
				return nil, err
			}
			if tracked == nil {
				continue
			}
			entityID := v.EntityID
			slugs, err := content.AncestorSlugs(&entityID, resolve)
			if err != nil {
				return nil, invalidArgument(err.Error())
			}
			files, err := content.CategoryFiles(v, slugs)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				entries = append(entries, gitremote.TreeEntry{Path: f.Path, Mode: "100644", Type: "blob", Content: f.Content})
			}
		}
	}
	return entries, nil
}

// latestBranchDocuments picks the newest unmerged version per document
// entity on the branch, captured before the merge rewrites ownership.
func (s *Service) latestBranchDocuments(ctx context.Context, branchID string) ([]store.DocumentVersion, error) {
	versions, err := s.store.ListDocumentVersionsByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	latest := map[string]store.DocumentVersion{}
	for _, v := range versions {
		if v.Status == store.StatusMerged {
			continue
		}
		if prev, ok := latest[v.EntityID]; !ok || v.CreatedAt.After(prev.CreatedAt) {
			latest[v.EntityID] = v
		}
	}
	out := make([]store.DocumentVersion, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	return out, nil
}

// reindexMerged updates the search index after a successful merge. It is
// best effort; failures only log.
func (s *Service) reindexMerged(docs []store.DocumentVersion) {
	if s.search == nil {
		return
	}
	for _, v := range docs {
		var err error
		if v.IsDeleted || !v.IsPublic {
			err = s.search.DeleteDocument(v.EntityID)
		} else {
			err = s.search.IndexDocument(search.DocumentRecord{
				EntityID:       v.EntityID,
				OrganizationID: v.OrganizationID,
				SidebarLabel:   v.SidebarLabel,
				Slug:           v.Slug,
				Content:        v.Content,
			})
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("entity_id", v.EntityID).Msg("search reindex failed")
		}
	}
}

package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/diff"
	"inkwell/api/internal/store"
)

// BranchDiff builds the review payload for the caller's active branch from
// its edit-start records. No active branch means an empty payload.
func (s *Service) BranchDiff(ctx context.Context, orgID, userID string) (diff.Data, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return diff.Data{}, err
	}
	branch, err := s.activeBranch(ctx, orgID, userID)
	if err != nil {
		return diff.Data{}, err
	}
	if branch == nil {
		return diff.Generate(nil, nil), nil
	}
	esvs, err := s.store.ListEditStartVersionsByBranch(ctx, branch.ID)
	if err != nil {
		return diff.Data{}, err
	}
	docs, cats, err := s.loadDiffPairs(ctx, esvs)
	if err != nil {
		return diff.Data{}, err
	}
	return diff.Generate(docs, cats), nil
}

// PullRequestDiff rebuilds the review payload of a submitted pull request
// from its commit ledger, overlaying any re-edit session changes on top.
func (s *Service) PullRequestDiff(ctx context.Context, orgID, userID, prID string) (diff.Data, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return diff.Data{}, err
	}
	pr, err := s.getOrgPullRequest(ctx, orgID, prID)
	if err != nil {
		return diff.Data{}, err
	}

	type key struct {
		target store.TargetType
		entity string
	}
	records := map[key]*store.EditStartVersion{}
	var order []key

	add := func(target store.TargetType, entity, first, last string) {
		k := key{target, entity}
		if existing, ok := records[k]; ok {
			existing.CurrentVersionID = last
			return
		}
		records[k] = &store.EditStartVersion{
			UserBranchID:      pr.UserBranchID,
			TargetType:        target,
			EntityID:          entity,
			OriginalVersionID: first,
			CurrentVersionID:  last,
		}
		order = append(order, k)
	}

	commit, err := s.store.LatestCommit(ctx, pr.UserBranchID)
	if err != nil {
		return diff.Data{}, err
	}
	if commit != nil {
		docDiffs, err := s.store.ListCommitDocumentDiffs(ctx, commit.ID)
		if err != nil {
			return diff.Data{}, err
		}
		for _, d := range docDiffs {
			add(store.TargetDocument, d.EntityID, d.FirstVersionID, d.LastVersionID)
		}
		catDiffs, err := s.store.ListCommitCategoryDiffs(ctx, commit.ID)
		if err != nil {
			return diff.Data{}, err
		}
		for _, d := range catDiffs {
			add(store.TargetCategory, d.EntityID, d.FirstVersionID, d.LastVersionID)
		}
	}

	sessionDiffs, err := s.store.ListEditSessionDiffs(ctx, pr.ID)
	if err != nil {
		return diff.Data{}, err
	}
	for _, d := range sessionDiffs {
		entityID, ok, err := s.versionEntity(ctx, d.TargetType, d.CurrentVersionID)
		if err != nil {
			return diff.Data{}, err
		}
		if !ok {
			continue
		}
		add(d.TargetType, entityID, d.OriginalVersionID, d.CurrentVersionID)
	}

	esvs := make([]store.EditStartVersion, 0, len(order))
	for _, k := range order {
		esvs = append(esvs, *records[k])
	}
	docs, cats, err := s.loadDiffPairs(ctx, esvs)
	if err != nil {
		return diff.Data{}, err
	}
	return diff.Generate(docs, cats), nil
}

// loadDiffPairs resolves the version rows behind edit-start records. A
// vanished original degrades the pair to a creation; a vanished current
// drops the pair.
func (s *Service) loadDiffPairs(ctx context.Context, esvs []store.EditStartVersion) ([]diff.DocumentPair, []diff.CategoryPair, error) {
	var docs []diff.DocumentPair
	var cats []diff.CategoryPair
	for _, esv := range esvs {
		switch esv.TargetType {
		case store.TargetDocument:
			current, err := s.store.GetDocumentVersion(ctx, esv.CurrentVersionID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			pair := diff.DocumentPair{EditStart: esv, Current: current}
			if esv.OriginalVersionID != esv.CurrentVersionID {
				original, err := s.store.GetDocumentVersion(ctx, esv.OriginalVersionID)
				if err == nil {
					pair.Original = &original
				} else if !errors.Is(err, sql.ErrNoRows) {
					return nil, nil, err
				}
			}
			docs = append(docs, pair)
		case store.TargetCategory:
			current, err := s.store.GetCategoryVersion(ctx, esv.CurrentVersionID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			pair := diff.CategoryPair{EditStart: esv, Current: current}
			if esv.OriginalVersionID != esv.CurrentVersionID {
				original, err := s.store.GetCategoryVersion(ctx, esv.OriginalVersionID)
				if err == nil {
					pair.Original = &original
				} else if !errors.Is(err, sql.ErrNoRows) {
					return nil, nil, err
				}
			}
			cats = append(cats, pair)
		}
	}
	return docs, cats, nil
}

func (s *Service) versionEntity(ctx context.Context, target store.TargetType, versionID string) (string, bool, error) {
	switch target {
	case store.TargetDocument:
		v, err := s.store.GetDocumentVersion(ctx, versionID)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v.EntityID, true, nil
	default:
		v, err := s.store.GetCategoryVersion(ctx, versionID)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v.EntityID, true, nil
	}
}

func (s *Service) getOrgPullRequest(ctx context.Context, orgID, prID string) (store.PullRequest, error) {
	pr, err := s.store.GetPullRequest(ctx, prID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PullRequest{}, notFound("pull request not found")
	}
	if err != nil {
		return store.PullRequest{}, err
	}
	if pr.OrganizationID != orgID {
		return store.PullRequest{}, notFound("pull request not found")
	}
	return pr, nil
}

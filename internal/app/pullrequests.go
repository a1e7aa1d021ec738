package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/content"
	"inkwell/api/internal/diff"
	"inkwell/api/internal/gitremote"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

type SubmitInput struct {
	Title       string
	Description string
	Reviewers   []string
}

var opToDiffType = map[diff.Operation]store.DiffType{
	diff.OpCreate: store.DiffCreated,
	diff.OpUpdate: store.DiffUpdated,
	diff.OpDelete: store.DiffDeleted,
}

// SubmitPullRequest pushes the branch's tracked edits to the remote as a
// single commit, opens the pull request there and folds the edit-start
// records into the internal commit ledger. The branch deactivates; its
// drafts become pushed.
func (s *Service) SubmitPullRequest(ctx context.Context, orgID, userID string, input SubmitInput) (*store.PullRequest, error) {
	var pr store.PullRequest
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		branch, err := s.activeBranch(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if branch == nil {
			return invalidArgument("no active workspace to submit")
		}
		esvs, err := s.store.ListEditStartVersionsByBranch(ctx, branch.ID)
		if err != nil {
			return err
		}
		if len(esvs) == 0 {
			return invalidArgument("workspace has no changes to submit")
		}
		docs, cats, err := s.loadDiffPairs(ctx, esvs)
		if err != nil {
			return err
		}
		files, err := s.branchFiles(ctx, branch.ID, docs, cats)
		if err != nil {
			return err
		}

		number, err := s.pushAndOpen(ctx, branch, input, files)
		if err != nil {
			return err
		}

		if err := s.store.SetDocumentVersionStatusByBranch(ctx, branch.ID, store.StatusDraft, store.StatusPushed); err != nil {
			return err
		}
		if err := s.store.SetCategoryVersionStatusByBranch(ctx, branch.ID, store.StatusDraft, store.StatusPushed); err != nil {
			return err
		}

		pr = store.PullRequest{
			ID:             util.NewID("pr"),
			UserBranchID:   branch.ID,
			OrganizationID: orgID,
			PRNumber:       number,
			Title:          input.Title,
			Status:         store.PROpened,
		}
		if err := s.store.InsertPullRequest(ctx, pr); err != nil {
			return err
		}
		if err := s.recordCommit(ctx, branch.ID, input.Title, docs, cats); err != nil {
			return err
		}
		if err := s.store.DeleteEditStartVersionsByBranch(ctx, branch.ID); err != nil {
			return err
		}
		if err := s.deactivateBranch(ctx, branch.ID); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.submit", "pull_request", pr.ID)
	})
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// branchFiles serializes the branch's current versions into tree entries.
// Deleted entities produce no file.
func (s *Service) branchFiles(ctx context.Context, branchID string, docs []diff.DocumentPair, cats []diff.CategoryPair) ([]gitremote.TreeEntry, error) {
	resolve := s.categoryResolver(ctx, &branchID, true)

	var entries []gitremote.TreeEntry
	for _, pair := range cats {
		if pair.Current.IsDeleted {
			continue
		}
		entityID := pair.Current.EntityID
		slugs, err := content.AncestorSlugs(&entityID, resolve)
		if err != nil {
			return nil, invalidArgument(err.Error())
		}
		files, err := content.CategoryFiles(pair.Current, slugs)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			entries = append(entries, gitremote.TreeEntry{
				Path: f.Path, Mode: "100644", Type: "blob", Content: f.Content,
			})
		}
	}
	for _, pair := range docs {
		if pair.Current.IsDeleted {
			continue
		}
		slugs, err := content.AncestorSlugs(pair.Current.CategoryEntityID, resolve)
		if err != nil {
			return nil, invalidArgument(err.Error())
		}
		f := content.DocumentFile(pair.Current, slugs)
		entries = append(entries, gitremote.TreeEntry{
			Path: f.Path, Mode: "100644", Type: "blob", Content: f.Content,
		})
	}
	return entries, nil
}

// pushAndOpen performs the remote sequence: branch ref, tree, commit, pull
// request, reviewers. A failed reviewer assignment is logged, not fatal;
// everything else aborts the submission.
func (s *Service) pushAndOpen(ctx context.Context, branch *store.UserBranch, input SubmitInput, entries []gitremote.TreeEntry) (int, error) {
	baseRef, err := s.git.GetRef(ctx, s.git.BaseBranch())
	if err != nil {
		return 0, remoteFailed(err)
	}
	if err := s.git.CreateRef(ctx, branch.BranchName, baseRef.SHA); err != nil {
		// The ref survives a closed pull request; reset it instead.
		if err := s.git.UpdateRef(ctx, branch.BranchName, baseRef.SHA, true); err != nil {
			return 0, remoteFailed(err)
		}
	}
	baseTreeSHA, err := s.git.GetCommitTree(ctx, baseRef.SHA)
	if err != nil {
		return 0, remoteFailed(err)
	}
	treeSHA, err := s.git.CreateTree(ctx, baseTreeSHA, entries)
	if err != nil {
		return 0, remoteFailed(err)
	}
	commitSHA, err := s.git.CreateCommit(ctx, input.Title, treeSHA, []string{baseRef.SHA})
	if err != nil {
		return 0, remoteFailed(err)
	}
	if err := s.git.UpdateRef(ctx, branch.BranchName, commitSHA, false); err != nil {
		return 0, remoteFailed(err)
	}
	number, err := s.git.CreatePullRequest(ctx, branch.BranchName, input.Title, input.Description)
	if err != nil {
		return 0, remoteFailed(err)
	}
	if len(input.Reviewers) > 0 {
		if err := s.git.RequestReviewers(ctx, number, input.Reviewers); err != nil {
			s.logger.Warn().Err(err).Int("pr_number", number).Msg("reviewer assignment failed")
		}
	}
	return number, nil
}

// recordCommit appends one ledger commit carrying a diff row per tracked
// entity.
func (s *Service) recordCommit(ctx context.Context, branchID, message string, docs []diff.DocumentPair, cats []diff.CategoryPair) error {
	parent, err := s.store.LatestCommit(ctx, branchID)
	if err != nil {
		return err
	}
	commit := store.Commit{
		ID:           util.NewID("cmt"),
		UserBranchID: branchID,
		Message:      message,
	}
	if parent != nil {
		commit.ParentCommitID = &parent.ID
	}
	if err := s.store.InsertCommit(ctx, commit); err != nil {
		return err
	}
	for _, pair := range docs {
		entry := diff.DocumentEntry(pair)
		if err := s.store.InsertCommitDocumentDiff(ctx, store.CommitDocumentDiff{
			ID:             util.NewID("cd"),
			CommitID:       commit.ID,
			EntityID:       pair.EditStart.EntityID,
			ChangeType:     opToDiffType[entry.Operation],
			FirstVersionID: pair.EditStart.OriginalVersionID,
			LastVersionID:  pair.EditStart.CurrentVersionID,
		}); err != nil {
			return err
		}
	}
	for _, pair := range cats {
		entry := diff.CategoryEntry(pair)
		if err := s.store.InsertCommitCategoryDiff(ctx, store.CommitCategoryDiff{
			ID:             util.NewID("cd"),
			CommitID:       commit.ID,
			EntityID:       pair.EditStart.EntityID,
			ChangeType:     opToDiffType[entry.Operation],
			FirstVersionID: pair.EditStart.OriginalVersionID,
			LastVersionID:  pair.EditStart.CurrentVersionID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// PullRequestByID loads one pull request scoped to the organization.
func (s *Service) PullRequestByID(ctx context.Context, orgID, userID, prID string) (*store.PullRequest, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	pr, err := s.getOrgPullRequest(ctx, orgID, prID)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (s *Service) ListOrganizationPullRequests(ctx context.Context, orgID, userID string) ([]store.PullRequest, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.store.ListPullRequests(ctx, orgID)
}

// ClosePullRequest closes the remote pull request and mirrors the state
// locally.
func (s *Service) ClosePullRequest(ctx context.Context, orgID, userID, prID string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
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
		if err := s.git.ClosePullRequest(ctx, pr.PRNumber); err != nil {
			return remoteFailed(err)
		}
		if err := s.store.UpdatePullRequestStatus(ctx, pr.ID, store.PRClosed); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.close", "pull_request", pr.ID)
	})
}

func (s *Service) ReopenPullRequest(ctx context.Context, orgID, userID, prID string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		pr, err := s.getOrgPullRequest(ctx, orgID, prID)
		if err != nil {
			return err
		}
		if pr.Status != store.PRClosed {
			return invalidArgument("pull request is not closed")
		}
		if err := s.git.ReopenPullRequest(ctx, pr.PRNumber); err != nil {
			return remoteFailed(err)
		}
		if err := s.store.UpdatePullRequestStatus(ctx, pr.ID, store.PROpened); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.reopen", "pull_request", pr.ID)
	})
}

// StartPullRequestEditSession reopens the author's pushed versions for a
// second editing pass and hands back the token scoping it.
func (s *Service) StartPullRequestEditSession(ctx context.Context, orgID, userID, prID string) (*store.PullRequestEditSession, error) {
	var session store.PullRequestEditSession
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
		if branch.CreatorID != userID {
			return invalidArgument("only the author may edit a submitted pull request")
		}

		session = store.PullRequestEditSession{
			ID:            util.NewID("res"),
			PullRequestID: pr.ID,
			UserID:        userID,
			Token:         util.NewToken(),
			StartedAt:     s.now(),
		}
		if err := s.store.InsertPullRequestEditSession(ctx, session); err != nil {
			return err
		}
		if err := s.activateBranch(ctx, branch.ID, userID); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.edit_session.start", "pull_request", pr.ID)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishPullRequestEditSession closes the token's session and deactivates
// the branch again. An unknown token is an error here, unlike during edits.
func (s *Service) FinishPullRequestEditSession(ctx context.Context, orgID, userID, prID, token string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		pr, err := s.getOrgPullRequest(ctx, orgID, prID)
		if err != nil {
			return err
		}
		session, err := s.store.FindOpenEditSession(ctx, pr.ID, token, userID)
		if err != nil {
			return err
		}
		if session == nil {
			return invalidArgument("no open edit session for this token")
		}
		if err := s.store.FinishEditSession(ctx, session.ID, s.now()); err != nil {
			return err
		}
		if err := s.deactivateBranch(ctx, pr.UserBranchID); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "pull_request.edit_session.finish", "pull_request", pr.ID)
	})
}

// CreateFixRequest records a reviewer's pending fix ask on an open pull
// request.
func (s *Service) CreateFixRequest(ctx context.Context, orgID, userID, prID string) (*store.FixRequest, error) {
	var fix store.FixRequest
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
		fix = store.FixRequest{
			ID:            util.NewID("fix"),
			PullRequestID: pr.ID,
			UserID:        userID,
			Status:        store.FixPending,
		}
		if err := s.store.InsertFixRequest(ctx, fix); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "fix_request.create", "pull_request", pr.ID)
	})
	if err != nil {
		return nil, err
	}
	return &fix, nil
}

// ApplyFixRequest marks a pending fix request applied and pins the
// versions that satisfied it; those feed the merge's rebuild decision.
func (s *Service) ApplyFixRequest(ctx context.Context, orgID, userID, fixID string, versions []store.FixRequestVersion) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireMember(ctx, orgID, userID); err != nil {
			return err
		}
		fix, err := s.store.GetFixRequest(ctx, fixID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("fix request not found")
		}
		if err != nil {
			return err
		}
		pr, err := s.getOrgPullRequest(ctx, orgID, fix.PullRequestID)
		if err != nil {
			return err
		}
		if fix.Status != store.FixPending {
			return invalidArgument("fix request is not pending")
		}
		for i := range versions {
			versions[i].FixRequestID = fix.ID
		}
		if err := s.store.MarkFixRequestApplied(ctx, fix.ID, versions); err != nil {
			return err
		}
		return s.logActivity(ctx, orgID, userID, "fix_request.apply", "pull_request", pr.ID)
	})
}

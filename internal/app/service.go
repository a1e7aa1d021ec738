// Package app carries the service layer: work-context resolution, edit
// tracking, branch lifecycle, pull request orchestration and the HTTP
// surface on top of them.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/cache"
	"inkwell/api/internal/gitremote"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
)

// dataStore is the persistence surface the service needs. *store.Store
// implements it; tests substitute a fake.
type dataStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error

	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetOrganization(ctx context.Context, orgID string) (store.Organization, error)
	IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error)

	InsertDocumentEntity(ctx context.Context, entity store.DocumentEntity) error
	GetDocumentEntity(ctx context.Context, entityID string) (store.DocumentEntity, error)
	InsertCategoryEntity(ctx context.Context, entity store.CategoryEntity) error
	GetCategoryEntity(ctx context.Context, entityID string) (store.CategoryEntity, error)

	InsertDocumentVersion(ctx context.Context, v store.DocumentVersion) error
	GetDocumentVersion(ctx context.Context, versionID string) (store.DocumentVersion, error)
	HardDeleteDocumentVersion(ctx context.Context, versionID string) error
	LatestVisibleDocumentVersion(ctx context.Context, entityID string, branchID *string, includePushed bool) (*store.DocumentVersion, error)
	ListDocumentWorkContext(ctx context.Context, orgID string, categoryEntityID *string, branchID *string, includePushed bool) ([]store.DocumentVersion, error)
	ListDocumentVersionsByBranch(ctx context.Context, branchID string) ([]store.DocumentVersion, error)
	SetDocumentVersionStatusByBranch(ctx context.Context, branchID string, from, to store.VersionStatus) error
	MarkBranchDocumentVersionsMerged(ctx context.Context, branchID string) error
	LatestMergedDocumentVersion(ctx context.Context, entityID string) (*store.DocumentVersion, error)

	InsertCategoryVersion(ctx context.Context, v store.CategoryVersion) error
	GetCategoryVersion(ctx context.Context, versionID string) (store.CategoryVersion, error)
	HardDeleteCategoryVersion(ctx context.Context, versionID string) error
	LatestVisibleCategoryVersion(ctx context.Context, entityID string, branchID *string, includePushed bool) (*store.CategoryVersion, error)
	ListCategoryWorkContext(ctx context.Context, orgID string, parentEntityID *string, branchID *string, includePushed bool) ([]store.CategoryVersion, error)
	SetCategoryVersionStatusByBranch(ctx context.Context, branchID string, from, to store.VersionStatus) error
	MarkBranchCategoryVersionsMerged(ctx context.Context, branchID string) error
	LatestMergedCategoryVersion(ctx context.Context, entityID string) (*store.CategoryVersion, error)

	LatestActiveBranch(ctx context.Context, orgID, userID string) (*store.UserBranch, error)
	FindActiveUserBranch(ctx context.Context, branchID, orgID, userID string) (*store.UserBranch, error)
	InsertUserBranch(ctx context.Context, branch store.UserBranch) error
	InsertUserBranchSession(ctx context.Context, session store.UserBranchSession) error
	GetUserBranch(ctx context.Context, branchID string) (store.UserBranch, error)
	DeleteUserBranchSessions(ctx context.Context, branchID string) error

	GetEditStartVersion(ctx context.Context, branchID string, target store.TargetType, entityID string) (*store.EditStartVersion, error)
	InsertEditStartVersion(ctx context.Context, esv store.EditStartVersion) error
	UpdateEditStartVersionCurrent(ctx context.Context, id, currentVersionID string) error
	ListEditStartVersionsByBranch(ctx context.Context, branchID string) ([]store.EditStartVersion, error)
	DeleteEditStartVersionsByBranch(ctx context.Context, branchID string) error

	InsertPullRequest(ctx context.Context, pr store.PullRequest) error
	GetPullRequest(ctx context.Context, prID string) (store.PullRequest, error)
	ListPullRequests(ctx context.Context, orgID string) ([]store.PullRequest, error)
	UpdatePullRequestStatus(ctx context.Context, prID string, status store.PullRequestStatus) error

	InsertPullRequestEditSession(ctx context.Context, session store.PullRequestEditSession) error
	FindOpenEditSession(ctx context.Context, prID, token, userID string) (*store.PullRequestEditSession, error)
	FinishEditSession(ctx context.Context, sessionID string, finishedAt time.Time) error
	CountFinishedEditSessions(ctx context.Context, prID string) (int, error)
	UpsertEditSessionDiff(ctx context.Context, diff store.PullRequestEditSessionDiff) error
	ListFinishedEditSessionDiffs(ctx context.Context, prID string) ([]store.PullRequestEditSessionDiff, error)
	ListEditSessionDiffs(ctx context.Context, prID string) ([]store.PullRequestEditSessionDiff, error)

	InsertFixRequest(ctx context.Context, fix store.FixRequest) error
	GetFixRequest(ctx context.Context, fixID string) (store.FixRequest, error)
	MarkFixRequestApplied(ctx context.Context, fixID string, versions []store.FixRequestVersion) error
	CountAppliedFixRequests(ctx context.Context, prID string) (int, error)
	ListAppliedFixRequestVersions(ctx context.Context, prID string) ([]store.FixRequestVersion, error)

	LatestCommit(ctx context.Context, branchID string) (*store.Commit, error)
	InsertCommit(ctx context.Context, commit store.Commit) error
	InsertCommitDocumentDiff(ctx context.Context, diff store.CommitDocumentDiff) error
	InsertCommitCategoryDiff(ctx context.Context, diff store.CommitCategoryDiff) error
	ListCommitDocumentDiffs(ctx context.Context, commitID string) ([]store.CommitDocumentDiff, error)
	ListCommitCategoryDiffs(ctx context.Context, commitID string) ([]store.CommitCategoryDiff, error)
	InsertActivityLog(ctx context.Context, entry store.ActivityLog) error
}

// searchIndex is the slice of the search service the merge path needs.
type searchIndex interface {
	IndexDocument(record search.DocumentRecord) error
	DeleteDocument(entityID string) error
}

type Service struct {
	store    dataStore
	git      gitremote.Client
	cache    cache.Cache
	cacheTTL time.Duration
	search   searchIndex
	logger   zerolog.Logger
	now      func() time.Time
}

// New wires a Service. search may be nil when indexing is not configured;
// conflictCache may be cache.Noop.
func New(st dataStore, git gitremote.Client, conflictCache cache.Cache, cacheTTL time.Duration, idx searchIndex, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		git:      git,
		cache:    conflictCache,
		cacheTTL: cacheTTL,
		search:   idx,
		logger:   logger,
		now:      time.Now,
	}
}

// requireMember resolves the caller and checks organization membership.
func (s *Service) requireMember(ctx context.Context, orgID, userID string) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, notFound("user not found")
	}
	member, err := s.store.IsOrganizationMember(ctx, orgID, userID)
	if err != nil {
		return store.User{}, err
	}
	if !member {
		return store.User{}, notFound("organization membership not found")
	}
	return user, nil
}

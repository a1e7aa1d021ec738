package store

import "time"

// TargetType discriminates which version table an edit record points at.
type TargetType string

const (
	TargetDocument TargetType = "document"
	TargetCategory TargetType = "category"
)

// VersionStatus is the lifecycle state of a document/category version.
type VersionStatus string

const (
	StatusDraft  VersionStatus = "DRAFT"
	StatusPushed VersionStatus = "PUSHED"
	StatusMerged VersionStatus = "MERGED"
)

// PullRequestStatus is the lifecycle state of a pull request.
type PullRequestStatus string

const (
	PROpened PullRequestStatus = "OPENED"
	PRMerged PullRequestStatus = "MERGED"
	PRClosed PullRequestStatus = "CLOSED"
)

// DiffType classifies an edit relative to mainline.
type DiffType string

const (
	DiffCreated DiffType = "created"
	DiffUpdated DiffType = "updated"
	DiffDeleted DiffType = "deleted"
)

// FixRequestStatus is the lifecycle state of a review fix request.
type FixRequestStatus string

const (
	FixPending FixRequestStatus = "PENDING"
	FixApplied FixRequestStatus = "APPLIED"
)

type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

type Organization struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// DocumentEntity is the permanent identity of a document. Versions hang
// off it; the row itself is only ever soft-deleted.
type DocumentEntity struct {
	ID             string
	OrganizationID string
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

type CategoryEntity struct {
	ID             string
	OrganizationID string
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

// DocumentVersion is one immutable snapshot of a document. A nil
// UserBranchID means the version lives on mainline (merged).
type DocumentVersion struct {
	ID                       string
	EntityID                 string
	OrganizationID           string
	UserBranchID             *string
	Status                   VersionStatus
	SidebarLabel             string
	Slug                     string
	Content                  string
	CategoryEntityID         *string
	FileOrder                int
	IsPublic                 bool
	LastEditedBy             string
	IsDeleted                bool
	DeletedAt                *time.Time
	PullRequestEditSessionID *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type CategoryVersion struct {
	ID                       string
	EntityID                 string
	OrganizationID           string
	UserBranchID             *string
	Status                   VersionStatus
	SidebarLabel             string
	Slug                     string
	Description              string
	ParentEntityID           *string
	Position                 int
	IsDeleted                bool
	DeletedAt                *time.Time
	PullRequestEditSessionID *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// UserBranch is a per-user, per-organization workspace mapping 1:1 to a
// remote Git branch. It is active while a UserBranchSession row exists.
type UserBranch struct {
	ID             string
	CreatorID      string
	OrganizationID string
	BranchName     string
	CreatedAt      time.Time
}

type UserBranchSession struct {
	ID           string
	UserBranchID string
	UserID       string
	CreatedAt    time.Time
}

// EditStartVersion records, per branch and entity, the version an editing
// arc started from and the version currently carrying the user's edits.
// OriginalVersionID == CurrentVersionID marks a brand-new creation.
type EditStartVersion struct {
	ID                string
	UserBranchID      string
	TargetType        TargetType
	EntityID          string
	OriginalVersionID string
	CurrentVersionID  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type PullRequest struct {
	ID             string
	UserBranchID   string
	OrganizationID string
	PRNumber       int
	Title          string
	Status         PullRequestStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PullRequestEditSession scopes a second pass of edits against an
// already-pushed pull request. FinishedAt nil means the session is open.
type PullRequestEditSession struct {
	ID            string
	PullRequestID string
	UserID        string
	Token         string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// PullRequestEditSessionDiff is the per-entity change record inside an
// edit session; one row per (session, target, original version), with
// CurrentVersionID and DiffType overwritten on repeated edits.
type PullRequestEditSessionDiff struct {
	ID                string
	SessionID         string
	TargetType        TargetType
	OriginalVersionID string
	CurrentVersionID  string
	DiffType          DiffType
	UpdatedAt         time.Time
}

type FixRequest struct {
	ID            string
	PullRequestID string
	UserID        string
	Status        FixRequestStatus
	CreatedAt     time.Time
	AppliedAt     *time.Time
}

type FixRequestVersion struct {
	FixRequestID string
	TargetType   TargetType
	VersionID    string
}

// Commit is the internal (non-Git) ledger entry a pull request submission
// folds the branch's edit-start records into.
type Commit struct {
	ID             string
	UserBranchID   string
	ParentCommitID *string
	Message        string
	CreatedAt      time.Time
}

type CommitDocumentDiff struct {
	ID             string
	CommitID       string
	EntityID       string
	ChangeType     DiffType
	FirstVersionID string
	LastVersionID  string
}

type CommitCategoryDiff struct {
	ID             string
	CommitID       string
	EntityID       string
	ChangeType     DiffType
	FirstVersionID string
	LastVersionID  string
}

type ActivityLog struct {
	ID             string
	OrganizationID string
	UserID         string
	Action         string
	TargetType     string
	TargetID       string
	CreatedAt      time.Time
}

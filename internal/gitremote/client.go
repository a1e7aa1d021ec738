// Package gitremote is the boundary to the remote Git service. The core
// only sees the narrow Client interface; the one real implementation talks
// to the GitHub REST API for a single configured owner/repo/base-branch.
package gitremote

import (
	"context"
	"fmt"
)

type Ref struct {
	Ref string
	SHA string
}

// TreeEntry is one path/content item of a tree to be created on top of a
// base tree.
type TreeEntry struct {
	Path    string
	Mode    string
	Type    string
	Content string
}

type PullRequestInfo struct {
	Number         int
	State          string
	Mergeable      *bool
	MergeableState string
	Rebaseable     *bool
	HeadSHA        string
	BaseSHA        string
}

type ChangedFile struct {
	Filename string
	Status   string
	SHA      string
}

type Comparison struct {
	MergeBaseSHA string
	Files        []ChangedFile
}

// Client is everything the merge orchestrator and conflict service need
// from the remote. All calls are synchronous, unretried, and abort the
// caller's transaction on failure.
type Client interface {
	BaseBranch() string

	GetRef(ctx context.Context, branch string) (Ref, error)
	CreateRef(ctx context.Context, branch, sha string) error
	UpdateRef(ctx context.Context, branch, sha string, force bool) error
	GetCommitTree(ctx context.Context, commitSHA string) (string, error)
	CreateTree(ctx context.Context, baseTreeSHA string, entries []TreeEntry) (string, error)
	CreateCommit(ctx context.Context, message, treeSHA string, parentSHAs []string) (string, error)

	CreatePullRequest(ctx context.Context, headBranch, title, body string) (int, error)
	RequestReviewers(ctx context.Context, number int, reviewers []string) error
	GetPullRequest(ctx context.Context, number int) (PullRequestInfo, error)
	MergePullRequest(ctx context.Context, number int, message string) error
	UpdatePullRequestBranch(ctx context.Context, number int) error
	ClosePullRequest(ctx context.Context, number int) error
	ReopenPullRequest(ctx context.Context, number int) error

	CompareCommits(ctx context.Context, base, head string) (Comparison, error)
	GetRawContent(ctx context.Context, path, ref string) (string, error)
}

// RemoteError carries the remote response for logging; the service layer
// wraps it into a user-facing domain error.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote git %s failed (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

package gitremote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// GitHub implements Client against the GitHub REST API.
type GitHub struct {
	client     *github.Client
	owner      string
	repo       string
	baseBranch string
}

func New(token, owner, repo, baseBranch string) *GitHub {
	return &GitHub{
		client:     github.NewClient(nil).WithAuthToken(token),
		owner:      owner,
		repo:       repo,
		baseBranch: baseBranch,
	}
}

// NewWithClient wires an existing API client; tests point it at httptest.
func NewWithClient(client *github.Client, owner, repo, baseBranch string) *GitHub {
	return &GitHub{client: client, owner: owner, repo: repo, baseBranch: baseBranch}
}

func (g *GitHub) BaseBranch() string {
	return g.baseBranch
}

func (g *GitHub) wrap(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	// 202 Accepted is how GitHub acknowledges async branch updates.
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		return nil
	}
	remote := &RemoteError{Op: op, Err: err}
	if resp != nil {
		remote.Status = resp.StatusCode
		if resp.Body != nil {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if readErr == nil {
				remote.Body = string(body)
			}
		}
	}
	return remote
}

func (g *GitHub) GetRef(ctx context.Context, branch string) (Ref, error) {
	ref, resp, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "refs/heads/"+branch)
	if err != nil {
		return Ref{}, g.wrap("get-ref", resp, err)
	}
	return Ref{Ref: ref.GetRef(), SHA: ref.GetObject().GetSHA()}, nil
}

func (g *GitHub) CreateRef(ctx context.Context, branch, sha string) error {
	_, resp, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	})
	return g.wrap("create-ref", resp, err)
}

func (g *GitHub) UpdateRef(ctx context.Context, branch, sha string, force bool) error {
	_, resp, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	}, force)
	return g.wrap("update-ref", resp, err)
}

func (g *GitHub) GetCommitTree(ctx context.Context, commitSHA string) (string, error) {
	commit, resp, err := g.client.Git.GetCommit(ctx, g.owner, g.repo, commitSHA)
	if err != nil {
		return "", g.wrap("get-commit", resp, err)
	}
	return commit.GetTree().GetSHA(), nil
}

func (g *GitHub) CreateTree(ctx context.Context, baseTreeSHA string, entries []TreeEntry) (string, error) {
	treeEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		treeEntries = append(treeEntries, &github.TreeEntry{
			Path:    github.Ptr(entry.Path),
			Mode:    github.Ptr(entry.Mode),
			Type:    github.Ptr(entry.Type),
			Content: github.Ptr(entry.Content),
		})
	}
	tree, resp, err := g.client.Git.CreateTree(ctx, g.owner, g.repo, baseTreeSHA, treeEntries)
	if err != nil {
		return "", g.wrap("create-tree", resp, err)
	}
	return tree.GetSHA(), nil
}

func (g *GitHub) CreateCommit(ctx context.Context, message, treeSHA string, parentSHAs []string) (string, error) {
	parents := make([]*github.Commit, 0, len(parentSHAs))
	for _, sha := range parentSHAs {
		parents = append(parents, &github.Commit{SHA: github.Ptr(sha)})
	}
	commit, resp, err := g.client.Git.CreateCommit(ctx, g.owner, g.repo, &github.Commit{
		Message: github.Ptr(message),
		Tree:    &github.Tree{SHA: github.Ptr(treeSHA)},
		Parents: parents,
	}, nil)
	if err != nil {
		return "", g.wrap("create-commit", resp, err)
	}
	return commit.GetSHA(), nil
}

func (g *GitHub) CreatePullRequest(ctx context.Context, headBranch, title, body string) (int, error) {
	pr, resp, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Head:  github.Ptr(headBranch),
		Base:  github.Ptr(g.baseBranch),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return 0, g.wrap("create-pull-request", resp, err)
	}
	return pr.GetNumber(), nil
}

func (g *GitHub) RequestReviewers(ctx context.Context, number int, reviewers []string) error {
	if len(reviewers) == 0 {
		return nil
	}
	_, resp, err := g.client.PullRequests.RequestReviewers(ctx, g.owner, g.repo, number, github.ReviewersRequest{
		Reviewers: reviewers,
	})
	return g.wrap("request-reviewers", resp, err)
}

func (g *GitHub) GetPullRequest(ctx context.Context, number int) (PullRequestInfo, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return PullRequestInfo{}, g.wrap("get-pull-request", resp, err)
	}
	return PullRequestInfo{
		Number:         pr.GetNumber(),
		State:          pr.GetState(),
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
		Rebaseable:     pr.Rebaseable,
		HeadSHA:        pr.GetHead().GetSHA(),
		BaseSHA:        pr.GetBase().GetSHA(),
	}, nil
}

func (g *GitHub) MergePullRequest(ctx context.Context, number int, message string) error {
	_, resp, err := g.client.PullRequests.Merge(ctx, g.owner, g.repo, number, message, &github.PullRequestOptions{
		MergeMethod: "squash",
	})
	return g.wrap("merge-pull-request", resp, err)
}

func (g *GitHub) UpdatePullRequestBranch(ctx context.Context, number int) error {
	_, resp, err := g.client.PullRequests.UpdateBranch(ctx, g.owner, g.repo, number, nil)
	return g.wrap("update-pull-request-branch", resp, err)
}

func (g *GitHub) ClosePullRequest(ctx context.Context, number int) error {
	return g.setPullRequestState(ctx, number, "closed")
}

func (g *GitHub) ReopenPullRequest(ctx context.Context, number int) error {
	return g.setPullRequestState(ctx, number, "open")
}

func (g *GitHub) setPullRequestState(ctx context.Context, number int, state string) error {
	_, resp, err := g.client.PullRequests.Edit(ctx, g.owner, g.repo, number, &github.PullRequest{
		State: github.Ptr(state),
	})
	return g.wrap(state+"-pull-request", resp, err)
}

func (g *GitHub) CompareCommits(ctx context.Context, base, head string) (Comparison, error) {
	comparison, resp, err := g.client.Repositories.CompareCommits(ctx, g.owner, g.repo, base, head, nil)
	if err != nil {
		return Comparison{}, g.wrap("compare-commits", resp, err)
	}
	result := Comparison{MergeBaseSHA: comparison.GetMergeBaseCommit().GetSHA()}
	for _, file := range comparison.Files {
		result.Files = append(result.Files, ChangedFile{
			Filename: file.GetFilename(),
			Status:   file.GetStatus(),
			SHA:      file.GetSHA(),
		})
	}
	return result, nil
}

func (g *GitHub) GetRawContent(ctx context.Context, path, ref string) (string, error) {
	fileContent, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		// Absent files read as empty: a 3-way side may simply not have
		// the file yet.
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", g.wrap("get-contents", resp, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("path %s is not a file", path)
	}
	decoded, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode contents of %s: %w", path, err)
	}
	return decoded, nil
}

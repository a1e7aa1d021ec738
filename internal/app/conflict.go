package app

import (
	"context"
	"encoding/json"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ConflictStatus mirrors what the remote knows about mergeability.
type ConflictStatus struct {
	HasConflict    bool   `json:"has_conflict"`
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`
	Rebaseable     *bool  `json:"rebaseable"`
}

type TextChange struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ConflictFile is one file changed on the pull request branch, with both
// sides diffed against the merge-base content.
type ConflictFile struct {
	Path        string       `json:"path"`
	Ancestor    string       `json:"ancestor"`
	BaseChanges []TextChange `json:"base_changes"`
	HeadChanges []TextChange `json:"head_changes"`
}

type ConflictDiff struct {
	MergeBaseSHA string         `json:"merge_base_sha"`
	BaseSHA      string         `json:"base_sha"`
	HeadSHA      string         `json:"head_sha"`
	Files        []ConflictFile `json:"files"`
}

// PullRequestConflict reports whether the pull request can merge cleanly.
func (s *Service) PullRequestConflict(ctx context.Context, orgID, userID, prID string) (*ConflictStatus, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	pr, err := s.getOrgPullRequest(ctx, orgID, prID)
	if err != nil {
		return nil, err
	}
	info, err := s.git.GetPullRequest(ctx, pr.PRNumber)
	if err != nil {
		return nil, remoteFailed(err)
	}
	return &ConflictStatus{
		HasConflict:    info.Mergeable != nil && !*info.Mergeable,
		Mergeable:      info.Mergeable,
		MergeableState: info.MergeableState,
		Rebaseable:     info.Rebaseable,
	}, nil
}

// PullRequestConflictDiff fetches the three-way view of every file the
// pull request touches: the merge-base content plus both sides' changes
// against it. Results are cached per pull request for a short TTL since
// the remote walk is expensive.
func (s *Service) PullRequestConflictDiff(ctx context.Context, orgID, userID, prID string) (*ConflictDiff, error) {
	if _, err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	pr, err := s.getOrgPullRequest(ctx, orgID, prID)
	if err != nil {
		return nil, err
	}

	if payload, ok, err := s.cache.Get(ctx, pr.ID); err != nil {
		s.logger.Warn().Err(err).Str("pull_request_id", pr.ID).Msg("conflict cache read failed")
	} else if ok {
		var cached ConflictDiff
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
	}

	info, err := s.git.GetPullRequest(ctx, pr.PRNumber)
	if err != nil {
		return nil, remoteFailed(err)
	}
	comparison, err := s.git.CompareCommits(ctx, info.BaseSHA, info.HeadSHA)
	if err != nil {
		return nil, remoteFailed(err)
	}

	result := &ConflictDiff{
		MergeBaseSHA: comparison.MergeBaseSHA,
		BaseSHA:      info.BaseSHA,
		HeadSHA:      info.HeadSHA,
	}
	dmp := diffmatchpatch.New()
	for _, file := range comparison.Files {
		ancestor, err := s.git.GetRawContent(ctx, file.Filename, comparison.MergeBaseSHA)
		if err != nil {
			return nil, remoteFailed(err)
		}
		base, err := s.git.GetRawContent(ctx, file.Filename, info.BaseSHA)
		if err != nil {
			return nil, remoteFailed(err)
		}
		head, err := s.git.GetRawContent(ctx, file.Filename, info.HeadSHA)
		if err != nil {
			return nil, remoteFailed(err)
		}
		result.Files = append(result.Files, ConflictFile{
			Path:        file.Filename,
			Ancestor:    ancestor,
			BaseChanges: textChanges(dmp, ancestor, base),
			HeadChanges: textChanges(dmp, ancestor, head),
		})
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Put(ctx, pr.ID, payload, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("pull_request_id", pr.ID).Msg("conflict cache write failed")
		}
	}
	return result, nil
}

func textChanges(dmp *diffmatchpatch.DiffMatchPatch, before, after string) []TextChange {
	diffs := dmp.DiffMain(before, after, false)
	dmp.DiffCleanupSemantic(diffs)

	changes := make([]TextChange, 0, len(diffs))
	for _, d := range diffs {
		changes = append(changes, TextChange{Type: changeType(d.Type), Text: d.Text})
	}
	return changes
}

func changeType(op diffmatchpatch.Operation) string {
	switch op {
	case diffmatchpatch.DiffInsert:
		return "insert"
	case diffmatchpatch.DiffDelete:
		return "delete"
	default:
		return "equal"
	}
}

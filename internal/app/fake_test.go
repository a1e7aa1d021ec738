package app

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"inkwell/api/internal/gitremote"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
)

// memStore is an in-memory dataStore with the same visibility semantics as
// the SQL queries. Tests seed it directly.
type memStore struct {
	seq   int
	users map[string]store.User
	orgs  map[string]store.Organization
	// orgID -> userID -> member
	members map[string]map[string]bool

	docEntities map[string]store.DocumentEntity
	catEntities map[string]store.CategoryEntity
	docVersions map[string]store.DocumentVersion
	catVersions map[string]store.CategoryVersion

	branches       map[string]store.UserBranch
	branchSessions []store.UserBranchSession

	esvs map[string]store.EditStartVersion

	prs        map[string]store.PullRequest
	prSessions map[string]store.PullRequestEditSession
	// keyed session|target|original
	sessionDiffs map[string]store.PullRequestEditSessionDiff

	fixes       map[string]store.FixRequest
	fixVersions []store.FixRequestVersion

	commits        map[string]store.Commit
	commitDocDiffs []store.CommitDocumentDiff
	commitCatDiffs []store.CommitCategoryDiff
	activity       []store.ActivityLog
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]store.User{},
		orgs:         map[string]store.Organization{},
		members:      map[string]map[string]bool{},
		docEntities:  map[string]store.DocumentEntity{},
		catEntities:  map[string]store.CategoryEntity{},
		docVersions:  map[string]store.DocumentVersion{},
		catVersions:  map[string]store.CategoryVersion{},
		branches:     map[string]store.UserBranch{},
		esvs:         map[string]store.EditStartVersion{},
		prs:          map[string]store.PullRequest{},
		prSessions:   map[string]store.PullRequestEditSession{},
		sessionDiffs: map[string]store.PullRequestEditSessionDiff{},
		fixes:        map[string]store.FixRequest{},
		commits:      map[string]store.Commit{},
	}
}

func (m *memStore) tick() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) addMember(orgID, userID, name string) {
	m.users[userID] = store.User{ID: userID, DisplayName: name}
	m.orgs[orgID] = store.Organization{ID: orgID, Name: orgID, Slug: orgID}
	if m.members[orgID] == nil {
		m.members[orgID] = map[string]bool{}
	}
	m.members[orgID][userID] = true
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) GetUserByID(_ context.Context, userID string) (store.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) GetOrganization(_ context.Context, orgID string) (store.Organization, error) {
	o, ok := m.orgs[orgID]
	if !ok {
		return store.Organization{}, sql.ErrNoRows
	}
	return o, nil
}

func (m *memStore) IsOrganizationMember(_ context.Context, orgID, userID string) (bool, error) {
	return m.members[orgID][userID], nil
}

func (m *memStore) InsertDocumentEntity(_ context.Context, entity store.DocumentEntity) error {
	entity.CreatedAt = m.tick()
	m.docEntities[entity.ID] = entity
	return nil
}

func (m *memStore) GetDocumentEntity(_ context.Context, entityID string) (store.DocumentEntity, error) {
	e, ok := m.docEntities[entityID]
	if !ok {
		return store.DocumentEntity{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *memStore) InsertCategoryEntity(_ context.Context, entity store.CategoryEntity) error {
	entity.CreatedAt = m.tick()
	m.catEntities[entity.ID] = entity
	return nil
}

func (m *memStore) GetCategoryEntity(_ context.Context, entityID string) (store.CategoryEntity, error) {
	e, ok := m.catEntities[entityID]
	if !ok {
		return store.CategoryEntity{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *memStore) InsertDocumentVersion(_ context.Context, v store.DocumentVersion) error {
	v.CreatedAt = m.tick()
	v.UpdatedAt = v.CreatedAt
	m.docVersions[v.ID] = v
	return nil
}

func (m *memStore) GetDocumentVersion(_ context.Context, versionID string) (store.DocumentVersion, error) {
	v, ok := m.docVersions[versionID]
	if !ok {
		return store.DocumentVersion{}, sql.ErrNoRows
	}
	return v, nil
}

func (m *memStore) HardDeleteDocumentVersion(_ context.Context, versionID string) error {
	v, ok := m.docVersions[versionID]
	if !ok || v.Status == store.StatusMerged {
		return sql.ErrNoRows
	}
	delete(m.docVersions, versionID)
	return nil
}

func docVisible(v store.DocumentVersion, branchID *string, includePushed bool) bool {
	if v.Status == store.StatusMerged {
		return true
	}
	if branchID == nil || v.UserBranchID == nil || *v.UserBranchID != *branchID {
		return false
	}
	return v.Status == store.StatusDraft || (includePushed && v.Status == store.StatusPushed)
}

func (m *memStore) LatestVisibleDocumentVersion(_ context.Context, entityID string, branchID *string, includePushed bool) (*store.DocumentVersion, error) {
	var best *store.DocumentVersion
	for id := range m.docVersions {
		v := m.docVersions[id]
		if v.EntityID != entityID || !docVisible(v, branchID, includePushed) {
			continue
		}
		if best == nil || v.CreatedAt.After(best.CreatedAt) {
			copied := v
			best = &copied
		}
	}
	return best, nil
}

func (m *memStore) ListDocumentWorkContext(ctx context.Context, orgID string, categoryEntityID *string, branchID *string, includePushed bool) ([]store.DocumentVersion, error) {
	var out []store.DocumentVersion
	for entityID := range m.docEntities {
		var chosen *store.DocumentVersion
		if branchID != nil {
			if esv, ok := m.esvs[esvKey(*branchID, store.TargetDocument, entityID)]; ok {
				if v, ok := m.docVersions[esv.CurrentVersionID]; ok {
					copied := v
					chosen = &copied
				}
			}
		}
		if chosen == nil {
			v, _ := m.LatestVisibleDocumentVersion(ctx, entityID, branchID, includePushed)
			chosen = v
		}
		if chosen == nil || chosen.IsDeleted || chosen.OrganizationID != orgID {
			continue
		}
		if !samePtr(chosen.CategoryEntityID, categoryEntityID) {
			continue
		}
		out = append(out, *chosen)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListDocumentVersionsByBranch(_ context.Context, branchID string) ([]store.DocumentVersion, error) {
	var out []store.DocumentVersion
	for id := range m.docVersions {
		v := m.docVersions[id]
		if v.UserBranchID != nil && *v.UserBranchID == branchID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) SetDocumentVersionStatusByBranch(_ context.Context, branchID string, from, to store.VersionStatus) error {
	for id, v := range m.docVersions {
		if v.UserBranchID != nil && *v.UserBranchID == branchID && v.Status == from {
			v.Status = to
			m.docVersions[id] = v
		}
	}
	return nil
}

func (m *memStore) MarkBranchDocumentVersionsMerged(_ context.Context, branchID string) error {
	for id, v := range m.docVersions {
		if v.UserBranchID != nil && *v.UserBranchID == branchID && v.Status != store.StatusMerged {
			v.Status = store.StatusMerged
			v.UserBranchID = nil
			m.docVersions[id] = v
		}
	}
	return nil
}

func (m *memStore) LatestMergedDocumentVersion(ctx context.Context, entityID string) (*store.DocumentVersion, error) {
	return m.LatestVisibleDocumentVersion(ctx, entityID, nil, false)
}

func (m *memStore) InsertCategoryVersion(_ context.Context, v store.CategoryVersion) error {
	v.CreatedAt = m.tick()
	v.UpdatedAt = v.CreatedAt
	m.catVersions[v.ID] = v
	return nil
}

func (m *memStore) GetCategoryVersion(_ context.Context, versionID string) (store.CategoryVersion, error) {
	v, ok := m.catVersions[versionID]
	if !ok {
		return store.CategoryVersion{}, sql.ErrNoRows
	}
	return v, nil
}

func (m *memStore) HardDeleteCategoryVersion(_ context.Context, versionID string) error {
	v, ok := m.catVersions[versionID]
	if !ok || v.Status == store.StatusMerged {
		return sql.ErrNoRows
	}
	delete(m.catVersions, versionID)
	return nil
}

func catVisible(v store.CategoryVersion, branchID *string, includePushed bool) bool {
	if v.Status == store.StatusMerged {
		return true
	}
	if branchID == nil || v.UserBranchID == nil || *v.UserBranchID != *branchID {
		return false
	}
	return v.Status == store.StatusDraft || (includePushed && v.Status == store.StatusPushed)
}

func (m *memStore) LatestVisibleCategoryVersion(_ context.Context, entityID string, branchID *string, includePushed bool) (*store.CategoryVersion, error) {
	var best *store.CategoryVersion
	for id := range m.catVersions {
		v := m.catVersions[id]
		if v.EntityID != entityID || !catVisible(v, branchID, includePushed) {
			continue
		}
		if best == nil || v.CreatedAt.After(best.CreatedAt) {
			copied := v
			best = &copied
		}
	}
	return best, nil
}

func (m *memStore) ListCategoryWorkContext(ctx context.Context, orgID string, parentEntityID *string, branchID *string, includePushed bool) ([]store.CategoryVersion, error) {
	var out []store.CategoryVersion
	for entityID := range m.catEntities {
		var chosen *store.CategoryVersion
		if branchID != nil {
			if esv, ok := m.esvs[esvKey(*branchID, store.TargetCategory, entityID)]; ok {
				if v, ok := m.catVersions[esv.CurrentVersionID]; ok {
					copied := v
					chosen = &copied
				}
			}
		}
		if chosen == nil {
			v, _ := m.LatestVisibleCategoryVersion(ctx, entityID, branchID, includePushed)
			chosen = v
		}
		if chosen == nil || chosen.IsDeleted || chosen.OrganizationID != orgID {
			continue
		}
		if !samePtr(chosen.ParentEntityID, parentEntityID) {
			continue
		}
		out = append(out, *chosen)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListCategoryVersionsByBranch(_ context.Context, branchID string) ([]store.CategoryVersion, error) {
	var out []store.CategoryVersion
	for id := range m.catVersions {
		v := m.catVersions[id]
		if v.UserBranchID != nil && *v.UserBranchID == branchID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) SetCategoryVersionStatusByBranch(_ context.Context, branchID string, from, to store.VersionStatus) error {
	for id, v := range m.catVersions {
		if v.UserBranchID != nil && *v.UserBranchID == branchID && v.Status == from {
			v.Status = to
			m.catVersions[id] = v
		}
	}
	return nil
}

func (m *memStore) MarkBranchCategoryVersionsMerged(_ context.Context, branchID string) error {
	for id, v := range m.catVersions {
		if v.UserBranchID != nil && *v.UserBranchID == branchID && v.Status != store.StatusMerged {
			v.Status = store.StatusMerged
			v.UserBranchID = nil
			m.catVersions[id] = v
		}
	}
	return nil
}

func (m *memStore) LatestMergedCategoryVersion(ctx context.Context, entityID string) (*store.CategoryVersion, error) {
	return m.LatestVisibleCategoryVersion(ctx, entityID, nil, false)
}

func (m *memStore) LatestActiveBranch(_ context.Context, orgID, userID string) (*store.UserBranch, error) {
	var best *store.UserBranchSession
	for i := range m.branchSessions {
		ses := m.branchSessions[i]
		branch, ok := m.branches[ses.UserBranchID]
		if !ok || branch.OrganizationID != orgID || ses.UserID != userID {
			continue
		}
		if best == nil || ses.CreatedAt.After(best.CreatedAt) {
			best = &m.branchSessions[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	branch := m.branches[best.UserBranchID]
	return &branch, nil
}

func (m *memStore) FindActiveUserBranch(_ context.Context, branchID, orgID, userID string) (*store.UserBranch, error) {
	branch, ok := m.branches[branchID]
	if !ok || branch.OrganizationID != orgID {
		return nil, nil
	}
	for _, ses := range m.branchSessions {
		if ses.UserBranchID == branchID && ses.UserID == userID {
			copied := branch
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertUserBranch(_ context.Context, branch store.UserBranch) error {
	branch.CreatedAt = m.tick()
	m.branches[branch.ID] = branch
	return nil
}

func (m *memStore) InsertUserBranchSession(_ context.Context, session store.UserBranchSession) error {
	session.CreatedAt = m.tick()
	m.branchSessions = append(m.branchSessions, session)
	return nil
}

func (m *memStore) GetUserBranch(_ context.Context, branchID string) (store.UserBranch, error) {
	b, ok := m.branches[branchID]
	if !ok {
		return store.UserBranch{}, sql.ErrNoRows
	}
	return b, nil
}

func (m *memStore) DeleteUserBranchSessions(_ context.Context, branchID string) error {
	kept := m.branchSessions[:0]
	for _, ses := range m.branchSessions {
		if ses.UserBranchID != branchID {
			kept = append(kept, ses)
		}
	}
	m.branchSessions = kept
	return nil
}

func esvKey(branchID string, target store.TargetType, entityID string) string {
	return branchID + "|" + string(target) + "|" + entityID
}

func (m *memStore) GetEditStartVersion(_ context.Context, branchID string, target store.TargetType, entityID string) (*store.EditStartVersion, error) {
	esv, ok := m.esvs[esvKey(branchID, target, entityID)]
	if !ok {
		return nil, nil
	}
	return &esv, nil
}

func (m *memStore) InsertEditStartVersion(_ context.Context, esv store.EditStartVersion) error {
	esv.CreatedAt = m.tick()
	esv.UpdatedAt = esv.CreatedAt
	m.esvs[esvKey(esv.UserBranchID, esv.TargetType, esv.EntityID)] = esv
	return nil
}

func (m *memStore) UpdateEditStartVersionCurrent(_ context.Context, id, currentVersionID string) error {
	for key, esv := range m.esvs {
		if esv.ID == id {
			esv.CurrentVersionID = currentVersionID
			esv.UpdatedAt = m.tick()
			m.esvs[key] = esv
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) ListEditStartVersionsByBranch(_ context.Context, branchID string) ([]store.EditStartVersion, error) {
	var out []store.EditStartVersion
	for _, esv := range m.esvs {
		if esv.UserBranchID == branchID {
			out = append(out, esv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteEditStartVersionsByBranch(_ context.Context, branchID string) error {
	for key, esv := range m.esvs {
		if esv.UserBranchID == branchID {
			delete(m.esvs, key)
		}
	}
	return nil
}

func (m *memStore) InsertPullRequest(_ context.Context, pr store.PullRequest) error {
	pr.CreatedAt = m.tick()
	pr.UpdatedAt = pr.CreatedAt
	m.prs[pr.ID] = pr
	return nil
}

func (m *memStore) GetPullRequest(_ context.Context, prID string) (store.PullRequest, error) {
	pr, ok := m.prs[prID]
	if !ok {
		return store.PullRequest{}, sql.ErrNoRows
	}
	return pr, nil
}

func (m *memStore) ListPullRequests(_ context.Context, orgID string) ([]store.PullRequest, error) {
	var out []store.PullRequest
	for _, pr := range m.prs {
		if pr.OrganizationID == orgID {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePullRequestStatus(_ context.Context, prID string, status store.PullRequestStatus) error {
	pr, ok := m.prs[prID]
	if !ok {
		return sql.ErrNoRows
	}
	pr.Status = status
	pr.UpdatedAt = m.tick()
	m.prs[prID] = pr
	return nil
}

func (m *memStore) InsertPullRequestEditSession(_ context.Context, session store.PullRequestEditSession) error {
	m.prSessions[session.ID] = session
	return nil
}

func (m *memStore) FindOpenEditSession(_ context.Context, prID, token, userID string) (*store.PullRequestEditSession, error) {
	for _, ses := range m.prSessions {
		if ses.PullRequestID == prID && ses.Token == token && ses.UserID == userID && ses.FinishedAt == nil {
			copied := ses
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) FinishEditSession(_ context.Context, sessionID string, finishedAt time.Time) error {
	ses, ok := m.prSessions[sessionID]
	if !ok {
		return sql.ErrNoRows
	}
	ses.FinishedAt = &finishedAt
	m.prSessions[sessionID] = ses
	return nil
}

func (m *memStore) CountFinishedEditSessions(_ context.Context, prID string) (int, error) {
	n := 0
	for _, ses := range m.prSessions {
		if ses.PullRequestID == prID && ses.FinishedAt != nil {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpsertEditSessionDiff(_ context.Context, diff store.PullRequestEditSessionDiff) error {
	key := diff.SessionID + "|" + string(diff.TargetType) + "|" + diff.OriginalVersionID
	if existing, ok := m.sessionDiffs[key]; ok {
		existing.CurrentVersionID = diff.CurrentVersionID
		existing.DiffType = diff.DiffType
		existing.UpdatedAt = m.tick()
		m.sessionDiffs[key] = existing
		return nil
	}
	diff.UpdatedAt = m.tick()
	m.sessionDiffs[key] = diff
	return nil
}

func (m *memStore) listSessionDiffs(prID string, finishedOnly bool) []store.PullRequestEditSessionDiff {
	var out []store.PullRequestEditSessionDiff
	for _, d := range m.sessionDiffs {
		ses, ok := m.prSessions[d.SessionID]
		if !ok || ses.PullRequestID != prID {
			continue
		}
		if finishedOnly && ses.FinishedAt == nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

func (m *memStore) ListFinishedEditSessionDiffs(_ context.Context, prID string) ([]store.PullRequestEditSessionDiff, error) {
	return m.listSessionDiffs(prID, true), nil
}

func (m *memStore) ListEditSessionDiffs(_ context.Context, prID string) ([]store.PullRequestEditSessionDiff, error) {
	return m.listSessionDiffs(prID, false), nil
}

func (m *memStore) InsertFixRequest(_ context.Context, fix store.FixRequest) error {
	fix.CreatedAt = m.tick()
	m.fixes[fix.ID] = fix
	return nil
}

func (m *memStore) GetFixRequest(_ context.Context, fixID string) (store.FixRequest, error) {
	fix, ok := m.fixes[fixID]
	if !ok {
		return store.FixRequest{}, sql.ErrNoRows
	}
	return fix, nil
}

func (m *memStore) MarkFixRequestApplied(_ context.Context, fixID string, versions []store.FixRequestVersion) error {
	fix, ok := m.fixes[fixID]
	if !ok || fix.Status != store.FixPending {
		return sql.ErrNoRows
	}
	now := m.tick()
	fix.Status = store.FixApplied
	fix.AppliedAt = &now
	m.fixes[fixID] = fix
	m.fixVersions = append(m.fixVersions, versions...)
	return nil
}

func (m *memStore) CountAppliedFixRequests(_ context.Context, prID string) (int, error) {
	n := 0
	for _, fix := range m.fixes {
		if fix.PullRequestID == prID && fix.Status == store.FixApplied {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListAppliedFixRequestVersions(_ context.Context, prID string) ([]store.FixRequestVersion, error) {
	var out []store.FixRequestVersion
	for _, v := range m.fixVersions {
		fix, ok := m.fixes[v.FixRequestID]
		if ok && fix.PullRequestID == prID && fix.Status == store.FixApplied {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) LatestCommit(_ context.Context, branchID string) (*store.Commit, error) {
	var best *store.Commit
	for id := range m.commits {
		c := m.commits[id]
		if c.UserBranchID != branchID {
			continue
		}
		if best == nil || c.CreatedAt.After(best.CreatedAt) {
			copied := c
			best = &copied
		}
	}
	return best, nil
}

func (m *memStore) InsertCommit(_ context.Context, commit store.Commit) error {
	commit.CreatedAt = m.tick()
	m.commits[commit.ID] = commit
	return nil
}

func (m *memStore) InsertCommitDocumentDiff(_ context.Context, diff store.CommitDocumentDiff) error {
	m.commitDocDiffs = append(m.commitDocDiffs, diff)
	return nil
}

func (m *memStore) InsertCommitCategoryDiff(_ context.Context, diff store.CommitCategoryDiff) error {
	m.commitCatDiffs = append(m.commitCatDiffs, diff)
	return nil
}

func (m *memStore) ListCommitDocumentDiffs(_ context.Context, commitID string) ([]store.CommitDocumentDiff, error) {
	var out []store.CommitDocumentDiff
	for _, d := range m.commitDocDiffs {
		if d.CommitID == commitID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) ListCommitCategoryDiffs(_ context.Context, commitID string) ([]store.CommitCategoryDiff, error) {
	var out []store.CommitCategoryDiff
	for _, d := range m.commitCatDiffs {
		if d.CommitID == commitID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) InsertActivityLog(_ context.Context, entry store.ActivityLog) error {
	m.activity = append(m.activity, entry)
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// fakeGit counts remote calls and answers from canned state. Zero value
// behaves like a healthy empty repository.
type fakeGit struct {
	base  string
	calls map[string]int

	mergeable      *bool
	comparison     gitremote.Comparison
	contents       map[string]string
	createRefErr   error
	prNumber       int
	mergedMessages []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{base: "main", calls: map[string]int{}, prNumber: 41, contents: map[string]string{}}
}

func (f *fakeGit) record(op string) { f.calls[op]++ }

func (f *fakeGit) BaseBranch() string { return f.base }

func (f *fakeGit) GetRef(_ context.Context, branch string) (gitremote.Ref, error) {
	f.record("GetRef")
	return gitremote.Ref{Ref: "refs/heads/" + branch, SHA: "sha-" + branch}, nil
}

func (f *fakeGit) CreateRef(context.Context, string, string) error {
	f.record("CreateRef")
	return f.createRefErr
}

func (f *fakeGit) UpdateRef(context.Context, string, string, bool) error {
	f.record("UpdateRef")
	return nil
}

func (f *fakeGit) GetCommitTree(context.Context, string) (string, error) {
	f.record("GetCommitTree")
	return "tree-base", nil
}

func (f *fakeGit) CreateTree(_ context.Context, _ string, entries []gitremote.TreeEntry) (string, error) {
	f.record("CreateTree")
	f.calls["tree-entries"] += len(entries)
	return "tree-new", nil
}

func (f *fakeGit) CreateCommit(context.Context, string, string, []string) (string, error) {
	f.record("CreateCommit")
	return "commit-new", nil
}

func (f *fakeGit) CreatePullRequest(context.Context, string, string, string) (int, error) {
	f.record("CreatePullRequest")
	f.prNumber++
	return f.prNumber, nil
}

func (f *fakeGit) RequestReviewers(context.Context, int, []string) error {
	f.record("RequestReviewers")
	return nil
}

func (f *fakeGit) GetPullRequest(_ context.Context, number int) (gitremote.PullRequestInfo, error) {
	f.record("GetPullRequest")
	return gitremote.PullRequestInfo{
		Number:    number,
		State:     "open",
		Mergeable: f.mergeable,
		HeadSHA:   "sha-head",
		BaseSHA:   "sha-base",
	}, nil
}

func (f *fakeGit) MergePullRequest(_ context.Context, _ int, message string) error {
	f.record("MergePullRequest")
	f.mergedMessages = append(f.mergedMessages, message)
	return nil
}

func (f *fakeGit) UpdatePullRequestBranch(context.Context, int) error {
	f.record("UpdatePullRequestBranch")
	return nil
}

func (f *fakeGit) ClosePullRequest(context.Context, int) error {
	f.record("ClosePullRequest")
	return nil
}

func (f *fakeGit) ReopenPullRequest(context.Context, int) error {
	f.record("ReopenPullRequest")
	return nil
}

func (f *fakeGit) CompareCommits(context.Context, string, string) (gitremote.Comparison, error) {
	f.record("CompareCommits")
	return f.comparison, nil
}

func (f *fakeGit) GetRawContent(_ context.Context, path, ref string) (string, error) {
	f.record("GetRawContent")
	return f.contents[ref+":"+path], nil
}

// fakeIndex records search index writes.
type fakeIndex struct {
	indexed []search.DocumentRecord
	deleted []string
}

func (f *fakeIndex) IndexDocument(record search.DocumentRecord) error {
	f.indexed = append(f.indexed, record)
	return nil
}

func (f *fakeIndex) DeleteDocument(entityID string) error {
	f.deleted = append(f.deleted, entityID)
	return nil
}

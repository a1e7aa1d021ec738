// Package search indexes merged document versions and answers admin
// queries, preferring Meilisearch and falling back to Postgres when it is
// unreachable.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	EntityID       string `json:"entityId"`
	OrganizationID string `json:"organizationId"`
	SidebarLabel   string `json:"sidebarLabel"`
	Slug           string `json:"slug"`
	Snippet        string `json:"snippet"`
}

// Query describes a search request, always scoped to one organization.
type Query struct {
	Text           string
	OrganizationID string
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// DocumentRecord is the data indexed per merged document.
type DocumentRecord struct {
	EntityID       string `json:"id"`
	OrganizationID string `json:"organizationId"`
	SidebarLabel   string `json:"sidebarLabel"`
	Slug           string `json:"slug"`
	Content        string `json:"content"`
}

type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

type Indexer interface {
	IndexDocument(record DocumentRecord) error
	DeleteDocument(entityID string) error
}

// Service routes queries to Meilisearch when healthy, otherwise Postgres.
// A nil meili means Meilisearch was never configured.
type Service struct {
	meili    *Meili
	fallback Searcher
}

func NewService(meili *Meili, fallback Searcher) *Service {
	return &Service{meili: meili, fallback: fallback}
}

func (s *Service) Search(q Query) ([]Result, int, error) {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return results, total, nil
		}
	}
	return s.fallback.Search(q)
}

// IndexDocument is best effort; callers log failures and move on.
func (s *Service) IndexDocument(record DocumentRecord) error {
	if s.meili == nil {
		return nil
	}
	return s.meili.IndexDocument(record)
}

func (s *Service) DeleteDocument(entityID string) error {
	if s.meili == nil {
		return nil
	}
	return s.meili.DeleteDocument(entityID)
}

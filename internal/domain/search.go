package domain

import "context"

type SortKey string

const (
	SortRelevance    SortKey = "relevance"
	SortSalary       SortKey = "salary"
	SortUpdated      SortKey = "updated"
	SortAlphabetical SortKey = "alphabetical"
	SortExperience   SortKey = "experience"
)

func (s SortKey) Valid() bool {
	switch s {
	case SortRelevance, SortSalary, SortUpdated, SortAlphabetical, SortExperience:
		return true
	}
	return false
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// FilterCriteria is the typed form of a search query. It is treated as an
// immutable value object: the codec produces it, the compiler consumes it.
type FilterCriteria struct {
	Query string `json:"query,omitempty"`

	Roles           []string `json:"roles,omitempty"`
	Sectors         []string `json:"sectors,omitempty"`
	Specialisms     []string `json:"specialisms,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	BoardExperience []string `json:"board_experience,omitempty"`

	Experience       ExperienceLevel  `json:"experience,omitempty"`
	Location         string           `json:"location,omitempty"`
	Availability     Availability     `json:"availability,omitempty"`
	RemotePreference RemotePreference `json:"remote_preference,omitempty"`

	SalaryMin *int64 `json:"salary_min,omitempty"`
	SalaryMax *int64 `json:"salary_max,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortBy    SortKey   `json:"sort_by"`
	SortOrder SortOrder `json:"sort_order"`
}

type PredicateKind string

const (
	// PredicateEquality matches a scalar column against a single value.
	PredicateEquality PredicateKind = "equality"
	// PredicateMembership matches a scalar column against a value set (IN).
	PredicateMembership PredicateKind = "membership"
	// PredicateRange matches when the candidate salary band overlaps the
	// requested band.
	PredicateRange PredicateKind = "range"
	// PredicateSubstring is a case-insensitive substring match ORed across
	// the listed columns.
	PredicateSubstring PredicateKind = "substring"
	// PredicateContainment matches when an array column shares at least one
	// element with the value set.
	PredicateContainment PredicateKind = "containment"
)

type Predicate struct {
	Kind   PredicateKind
	Field  string   // column the predicate applies to; facet dimension key
	Fields []string // substring only: columns the OR spans
	Values []string
	Min    *int64 // range only
	Max    *int64 // range only
}

// QueryPlan is the repository-executable form of FilterCriteria. The
// non-negotiable visibility predicate (active + completed) is NOT part of the
// plan; the repository hardcodes it server-side.
type QueryPlan struct {
	Predicates []Predicate
	Sort       SortKey
	Order      SortOrder
	Offset     int
	Limit      int
}

type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facet is a dimension's value/count breakdown computed under the current
// filter set with the dimension's own filter removed.
type Facet struct {
	Dimension string       `json:"dimension"`
	Values    []FacetValue `json:"values"`
}

// ProfileView is what a viewer actually sees for one candidate: either a
// redacted preview or the fully disclosed record.
type ProfileView struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Summary          string           `json:"summary,omitempty"`
	ExperienceLevel  ExperienceLevel  `json:"experience_level,omitempty"`
	Location         string           `json:"location,omitempty"`
	RemotePreference RemotePreference `json:"remote_preference,omitempty"`
	Availability     Availability     `json:"availability,omitempty"`

	SalaryMin      *int64 `json:"salary_min,omitempty"`
	SalaryMax      *int64 `json:"salary_max,omitempty"`
	SalaryCurrency string `json:"salary_currency,omitempty"`

	Role            string   `json:"role,omitempty"`
	Sector          string   `json:"sector,omitempty"`
	Specialisms     []string `json:"specialisms,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	BoardExperience []string `json:"board_experience,omitempty"`

	Anonymized bool `json:"anonymized"`
	Disclosed  bool `json:"disclosed"`

	// Contact fields, present only when disclosed.
	FullName     *string `json:"full_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	LinkedInURL  *string `json:"linkedin_url,omitempty"`
	PortfolioURL *string `json:"portfolio_url,omitempty"`

	Purchase *CreditTransaction `json:"purchase,omitempty"`

	UpdatedAt string `json:"updated_at,omitempty"`
}

type SearchResult struct {
	Results    []ProfileView `json:"results"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
	Facets     []Facet       `json:"facets"`
	SearchID   string        `json:"search_id"`
}

type SearchUsecase interface {
	Search(ctx context.Context, criteria FilterCriteria) (*SearchResult, error)
	GetProfileView(ctx context.Context, candidateID int64) (*ProfileView, error)
}

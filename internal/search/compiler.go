package search

import (
	"exec-marketplace-backend/internal/domain"
)

// Facet dimension identifiers. Predicate.Field carries one of these so the
// facet aggregator can exclude a dimension's own predicate; the repository
// maps them to columns.
const (
	DimQuery            = "query"
	DimRole             = "role"
	DimSector           = "sectors"
	DimSpecialism       = "specialisms"
	DimSkill            = "skills"
	DimBoardExperience  = "boardExperience"
	DimExperience       = "experience"
	DimLocation         = "location"
	DimAvailability     = "availability"
	DimRemotePreference = "remotePreference"
	DimSalary           = "salary"
)

// FacetDimensions lists every dimension the aggregator reports, in response
// order. Enum dimensions are returned in full; the rest are capped top-N.
var FacetDimensions = []string{
	DimRole,
	DimSector,
	DimSpecialism,
	DimSkill,
	DimBoardExperience,
	DimExperience,
	DimLocation,
	DimAvailability,
	DimRemotePreference,
}

// CappedDimension reports whether a dimension's facet is truncated to the
// top-N values by count. Enum-backed dimensions are never capped.
func CappedDimension(dim string) bool {
	switch dim {
	case DimExperience, DimAvailability, DimRemotePreference:
		return false
	}
	return true
}

// Compile turns FilterCriteria into a repository query plan. Each filter
// field maps to exactly one predicate kind. The plan carries only
// caller-supplied predicates; profile visibility is enforced inside the
// repository and cannot be expressed (or bypassed) here.
func Compile(c domain.FilterCriteria) domain.QueryPlan {
	var predicates []domain.Predicate

	if c.Query != "" {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateSubstring,
			Field:  DimQuery,
			Fields: []string{"title", "summary", "location"},
			Values: []string{c.Query},
		})
	}

	if len(c.Roles) > 0 {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateMembership,
			Field:  DimRole,
			Values: c.Roles,
		})
	}
	if len(c.Sectors) > 0 {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateMembership,
			Field:  DimSector,
			Values: c.Sectors,
		})
	}

	if len(c.Specialisms) > 0 {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateContainment,
			Field:  DimSpecialism,
			Values: c.Specialisms,
		})
	}
	if len(c.Skills) > 0 {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateContainment,
			Field:  DimSkill,
			Values: c.Skills,
		})
	}
	if len(c.BoardExperience) > 0 {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateContainment,
			Field:  DimBoardExperience,
			Values: c.BoardExperience,
		})
	}

	if c.Experience != "" {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateEquality,
			Field:  DimExperience,
			Values: []string{string(c.Experience)},
		})
	}
	if c.Location != "" {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateEquality,
			Field:  DimLocation,
			Values: []string{c.Location},
		})
	}
	if c.Availability != "" {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateEquality,
			Field:  DimAvailability,
			Values: []string{string(c.Availability)},
		})
	}
	if c.RemotePreference != "" {
		predicates = append(predicates, domain.Predicate{
			Kind:   domain.PredicateEquality,
			Field:  DimRemotePreference,
			Values: []string{string(c.RemotePreference)},
		})
	}

	if c.SalaryMin != nil || c.SalaryMax != nil {
		predicates = append(predicates, domain.Predicate{
			Kind:  domain.PredicateRange,
			Field: DimSalary,
			Min:   c.SalaryMin,
			Max:   c.SalaryMax,
		})
	}

	page := c.Page
	if page < 1 {
		page = 1
	}
	limit := c.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sort := c.SortBy
	if !sort.Valid() {
		sort = domain.SortRelevance
	}
	order := c.SortOrder
	if order != domain.OrderAsc && order != domain.OrderDesc {
		order = DefaultOrder(sort)
	}

	return domain.QueryPlan{
		Predicates: predicates,
		Sort:       sort,
		Order:      order,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
}

// WithoutDimension returns the predicate list minus the one owned by the
// given facet dimension, so narrowing by a dimension does not zero out its
// own facet options.
func WithoutDimension(predicates []domain.Predicate, dimension string) []domain.Predicate {
	out := make([]domain.Predicate, 0, len(predicates))
	for _, p := range predicates {
		if p.Field == dimension {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Package search holds the pure request-side components of the candidate
// search pipeline: the filter codec and the criteria compiler. Nothing in
// this package performs I/O.
package search

import (
	"net/url"
	"strconv"
	"strings"

	"exec-marketplace-backend/internal/domain"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Decode translates a flat string-keyed query (URL query string or form
// body) into typed FilterCriteria. Malformed optional fields are dropped,
// never fatal; unknown keys are ignored for forward compatibility.
func Decode(values url.Values) domain.FilterCriteria {
	c := domain.FilterCriteria{
		Query:           strings.TrimSpace(values.Get("query")),
		Roles:           splitList(values.Get("role")),
		Sectors:         splitList(values.Get("sectors")),
		Specialisms:     splitList(values.Get("specialisms")),
		Skills:          splitList(values.Get("skills")),
		BoardExperience: splitList(values.Get("boardExperience")),
	}

	if exp := domain.ExperienceLevel(values.Get("experience")); exp.Valid() {
		c.Experience = exp
	}
	c.Location = strings.TrimSpace(values.Get("location"))
	if av := domain.Availability(values.Get("availability")); av.Valid() {
		c.Availability = av
	}
	if rp := domain.RemotePreference(values.Get("remotePreference")); rp.Valid() {
		c.RemotePreference = rp
	}

	c.SalaryMin = parseSalary(values.Get("salaryMin"))
	c.SalaryMax = parseSalary(values.Get("salaryMax"))
	if c.SalaryMin != nil && c.SalaryMax != nil && *c.SalaryMin > *c.SalaryMax {
		// Inverted range is malformed; drop both rather than guess intent.
		c.SalaryMin = nil
		c.SalaryMax = nil
	}

	c.Page = 1
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		c.Page = page
	}
	c.Limit = DefaultLimit
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 {
		if limit > MaxLimit {
			limit = MaxLimit
		}
		c.Limit = limit
	}

	c.SortBy = domain.SortRelevance
	if sort := domain.SortKey(values.Get("sortBy")); sort.Valid() {
		c.SortBy = sort
	}
	switch domain.SortOrder(values.Get("sortOrder")) {
	case domain.OrderAsc:
		c.SortOrder = domain.OrderAsc
	case domain.OrderDesc:
		c.SortOrder = domain.OrderDesc
	default:
		c.SortOrder = DefaultOrder(c.SortBy)
	}

	return c
}

// Encode is the inverse of Decode for well-formed criteria:
// Decode(Encode(c)) == c.
func Encode(c domain.FilterCriteria) url.Values {
	values := url.Values{}

	setIfNotEmpty(values, "query", c.Query)
	setList(values, "role", c.Roles)
	setList(values, "sectors", c.Sectors)
	setList(values, "specialisms", c.Specialisms)
	setList(values, "skills", c.Skills)
	setList(values, "boardExperience", c.BoardExperience)

	setIfNotEmpty(values, "experience", string(c.Experience))
	setIfNotEmpty(values, "location", c.Location)
	setIfNotEmpty(values, "availability", string(c.Availability))
	setIfNotEmpty(values, "remotePreference", string(c.RemotePreference))

	if c.SalaryMin != nil {
		values.Set("salaryMin", strconv.FormatInt(*c.SalaryMin, 10))
	}
	if c.SalaryMax != nil {
		values.Set("salaryMax", strconv.FormatInt(*c.SalaryMax, 10))
	}

	values.Set("page", strconv.Itoa(c.Page))
	values.Set("limit", strconv.Itoa(c.Limit))
	values.Set("sortBy", string(c.SortBy))
	values.Set("sortOrder", string(c.SortOrder))

	return values
}

// DefaultOrder picks the natural direction for a sort key when the caller
// did not specify one.
func DefaultOrder(key domain.SortKey) domain.SortOrder {
	if key == domain.SortAlphabetical {
		return domain.OrderAsc
	}
	return domain.OrderDesc
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setList(values url.Values, key string, list []string) {
	if len(list) > 0 {
		values.Set(key, strings.Join(list, ","))
	}
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

func parseSalary(raw string) *int64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

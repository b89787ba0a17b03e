// Package privacy implements the anonymization transformer: a pure mapping
// from (candidate record, viewer entitlement) to the view the viewer is
// allowed to see. Anonymization and disclosure are two independent gates -
// a non-anonymized profile still keeps its contact details behind payment.
package privacy

import (
	"strings"
	"time"

	"exec-marketplace-backend/internal/domain"
)

const (
	// SalaryBand is the rounding unit for redacted salary ranges. The
	// disclosed band is always a superset of the true band: min rounds
	// down, max rounds up.
	SalaryBand = 5000

	// TagPreviewCount caps tag lists on redacted anonymized views.
	TagPreviewCount = 3
)

// Transform produces the viewer-facing profile view. It never fails on
// missing optional fields; absent values stay absent instead of becoming
// placeholders that could be mistaken for real data.
func Transform(p *domain.CandidateProfile, ent *domain.Entitlement) domain.ProfileView {
	disclosed := ent != nil && ent.Disclosed

	view := domain.ProfileView{
		ID:               p.ID,
		Title:            p.Title,
		Summary:          p.Summary,
		ExperienceLevel:  p.ExperienceLevel,
		Location:         p.Location,
		RemotePreference: p.RemotePreference,
		Availability:     p.Availability,
		SalaryMin:        p.SalaryMin,
		SalaryMax:        p.SalaryMax,
		SalaryCurrency:   p.SalaryCurrency,
		Role:             p.Role,
		Sector:           p.Sector,
		Specialisms:      p.Specialisms,
		Skills:           p.Skills,
		BoardExperience:  p.BoardExperience,
		Anonymized:       p.IsAnonymized,
		Disclosed:        disclosed,
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}

	if disclosed {
		if p.FullName != "" {
			view.FullName = &p.FullName
		}
		if p.Email != "" {
			view.Email = &p.Email
		}
		view.LinkedInURL = p.LinkedInURL
		view.PortfolioURL = p.PortfolioURL
		if ent.Transaction != nil {
			view.Purchase = ent.Transaction
		}
		return view
	}

	// Contact gate: undisclosed views never carry name, email, or links,
	// whether or not the profile is anonymized.
	if !p.IsAnonymized {
		return view
	}

	// Anonymization gate: generalize identifying professional detail.
	view.Title = GeneralizeTitle(p.ExperienceLevel)
	view.Location = GeneralizeLocation(p.Location)
	view.SalaryMin = roundDown(p.SalaryMin)
	view.SalaryMax = roundUp(p.SalaryMax)
	view.Specialisms = capList(p.Specialisms, TagPreviewCount)
	view.Skills = capList(p.Skills, TagPreviewCount)
	view.BoardExperience = capList(p.BoardExperience, TagPreviewCount)

	return view
}

// GeneralizeTitle replaces a job title with "<Experience-level> Professional".
func GeneralizeTitle(level domain.ExperienceLevel) string {
	if level == "" {
		return "Professional"
	}
	label := string(level)
	return strings.ToUpper(label[:1]) + label[1:] + " Professional"
}

// GeneralizeLocation keeps only the last comma-delimited segment, which for
// "City, Region, Country" style locations is the country or region token.
// Unparseable locations generalize to "Remote".
func GeneralizeLocation(location string) string {
	segments := strings.Split(location, ",")
	last := strings.TrimSpace(segments[len(segments)-1])
	if last == "" {
		return "Remote"
	}
	return last
}

func roundDown(v *int64) *int64 {
	if v == nil {
		return nil
	}
	rounded := (*v / SalaryBand) * SalaryBand
	return &rounded
}

func roundUp(v *int64) *int64 {
	if v == nil {
		return nil
	}
	rounded := ((*v + SalaryBand - 1) / SalaryBand) * SalaryBand
	return &rounded
}

func capList(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

package privacy_test

import (
	"testing"
	"time"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/internal/privacy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func sampleProfile() *domain.CandidateProfile {
	return &domain.CandidateProfile{
		ID:               42,
		FullName:         "Jane Doe",
		Email:            "jane@example.com",
		LinkedInURL:      strPtr("https://linkedin.com/in/janedoe"),
		Title:            "Chief Financial Officer",
		Summary:          "Finance leader with IPO experience.",
		ExperienceLevel:  domain.ExperienceExecutive,
		Location:         "Manchester, England, United Kingdom",
		RemotePreference: domain.RemoteHybrid,
		Availability:     domain.AvailabilityOneMonth,
		SalaryMin:        int64Ptr(142500),
		SalaryMax:        int64Ptr(187200),
		SalaryCurrency:   "GBP",
		IsActive:         true,
		ProfileCompleted: true,
		IsAnonymized:     true,
		Role:             "cfo",
		Sector:           "fintech",
		Specialisms:      []string{"ipo", "m&a", "restructuring", "treasury"},
		Skills:           []string{"fundraising", "fp&a", "investor-relations", "audit"},
		UpdatedAt:        time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestTransformAnonymized(t *testing.T) {
	profile := sampleProfile()
	view := privacy.Transform(profile, nil)

	t.Run("Should generalize title and location", func(t *testing.T) {
		assert.Equal(t, "Executive Professional", view.Title)
		assert.Equal(t, "United Kingdom", view.Location)
	})

	t.Run("Should widen the salary band outward", func(t *testing.T) {
		require.NotNil(t, view.SalaryMin)
		require.NotNil(t, view.SalaryMax)
		assert.Equal(t, int64(140000), *view.SalaryMin)
		assert.Equal(t, int64(190000), *view.SalaryMax)
		// The redacted band always contains the true band.
		assert.LessOrEqual(t, *view.SalaryMin, *profile.SalaryMin)
		assert.GreaterOrEqual(t, *view.SalaryMax, *profile.SalaryMax)
	})

	t.Run("Should cap tag lists to the preview count", func(t *testing.T) {
		assert.Len(t, view.Specialisms, privacy.TagPreviewCount)
		assert.Len(t, view.Skills, privacy.TagPreviewCount)
	})

	t.Run("Should never leak contact fields", func(t *testing.T) {
		assert.Nil(t, view.FullName)
		assert.Nil(t, view.Email)
		assert.Nil(t, view.LinkedInURL)
		assert.Nil(t, view.PortfolioURL)
	})

	t.Run("Should flag the view as anonymized and undisclosed", func(t *testing.T) {
		assert.True(t, view.Anonymized)
		assert.False(t, view.Disclosed)
	})
}

func TestTransformNonAnonymized(t *testing.T) {
	profile := sampleProfile()
	profile.IsAnonymized = false
	view := privacy.Transform(profile, nil)

	t.Run("Should keep professional detail intact", func(t *testing.T) {
		assert.Equal(t, profile.Title, view.Title)
		assert.Equal(t, profile.Location, view.Location)
		assert.Equal(t, profile.SalaryMin, view.SalaryMin)
		assert.Len(t, view.Specialisms, 4)
	})

	t.Run("Should still withhold contact fields without a grant", func(t *testing.T) {
		assert.Nil(t, view.FullName)
		assert.Nil(t, view.Email)
		assert.Nil(t, view.LinkedInURL)
	})
}

func TestTransformDisclosed(t *testing.T) {
	profile := sampleProfile()
	tx := &domain.CreditTransaction{ID: 7, PaymentRef: "pay_123"}
	ent := &domain.Entitlement{ViewerID: "acct1", CandidateID: 42, Disclosed: true, Transaction: tx}
	view := privacy.Transform(profile, ent)

	t.Run("Should expose contact fields and purchase record", func(t *testing.T) {
		require.NotNil(t, view.FullName)
		assert.Equal(t, "Jane Doe", *view.FullName)
		require.NotNil(t, view.Email)
		assert.Equal(t, "jane@example.com", *view.Email)
		assert.Equal(t, profile.LinkedInURL, view.LinkedInURL)
		assert.Equal(t, tx, view.Purchase)
	})

	t.Run("Should bypass anonymization entirely", func(t *testing.T) {
		assert.Equal(t, profile.Title, view.Title)
		assert.Equal(t, profile.Location, view.Location)
		assert.Equal(t, profile.SalaryMin, view.SalaryMin)
		assert.True(t, view.Disclosed)
	})

	t.Run("Should omit absent optional contact fields", func(t *testing.T) {
		p := sampleProfile()
		p.Email = ""
		p.PortfolioURL = nil
		v := privacy.Transform(p, ent)
		assert.Nil(t, v.Email)
		assert.Nil(t, v.PortfolioURL)
		require.NotNil(t, v.FullName)
	})
}

func TestGeneralizeTitle(t *testing.T) {
	t.Run("Should capitalize the experience level", func(t *testing.T) {
		assert.Equal(t, "Senior Professional", privacy.GeneralizeTitle(domain.ExperienceSenior))
	})

	t.Run("Should fall back to a bare label without a level", func(t *testing.T) {
		assert.Equal(t, "Professional", privacy.GeneralizeTitle(""))
	})
}

func TestGeneralizeLocation(t *testing.T) {
	t.Run("Should keep the last comma segment", func(t *testing.T) {
		assert.Equal(t, "Germany", privacy.GeneralizeLocation("Berlin, Germany"))
		assert.Equal(t, "Singapore", privacy.GeneralizeLocation("Singapore"))
	})

	t.Run("Should generalize unparseable locations to Remote", func(t *testing.T) {
		assert.Equal(t, "Remote", privacy.GeneralizeLocation(""))
		assert.Equal(t, "Remote", privacy.GeneralizeLocation("Paris, "))
	})
}

func TestSalaryRounding(t *testing.T) {
	t.Run("Should keep already-aligned bounds unchanged", func(t *testing.T) {
		p := sampleProfile()
		p.SalaryMin = int64Ptr(100000)
		p.SalaryMax = int64Ptr(150000)
		view := privacy.Transform(p, nil)
		assert.Equal(t, int64(100000), *view.SalaryMin)
		assert.Equal(t, int64(150000), *view.SalaryMax)
	})

	t.Run("Should leave absent bounds absent", func(t *testing.T) {
		p := sampleProfile()
		p.SalaryMin = nil
		p.SalaryMax = nil
		view := privacy.Transform(p, nil)
		assert.Nil(t, view.SalaryMin)
		assert.Nil(t, view.SalaryMax)
	})
}

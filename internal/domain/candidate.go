package domain

import (
	"context"
	"errors"
	"time"
)

// Common domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrPaymentRefTaken     = errors.New("payment reference already in use")
	ErrQuotaExceeded       = errors.New("search quota exceeded")
)

type ExperienceLevel string

const (
	ExperienceJunior    ExperienceLevel = "junior"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceLead      ExperienceLevel = "lead"
	ExperienceExecutive ExperienceLevel = "executive"
)

// Rank defines the total order used by the experience sort key:
// executive > lead > senior > mid > junior.
func (e ExperienceLevel) Rank() int {
	switch e {
	case ExperienceExecutive:
		return 5
	case ExperienceLead:
		return 4
	case ExperienceSenior:
		return 3
	case ExperienceMid:
		return 2
	case ExperienceJunior:
		return 1
	}
	return 0
}

func (e ExperienceLevel) Valid() bool {
	return e.Rank() > 0
}

type RemotePreference string

const (
	RemoteOnsite   RemotePreference = "onsite"
	RemoteHybrid   RemotePreference = "hybrid"
	RemoteOnly     RemotePreference = "remote"
	RemoteFlexible RemotePreference = "flexible"
)

func (r RemotePreference) Valid() bool {
	switch r {
	case RemoteOnsite, RemoteHybrid, RemoteOnly, RemoteFlexible:
		return true
	}
	return false
}

type Availability string

const (
	AvailabilityImmediate   Availability = "immediate"
	AvailabilityOneMonth    Availability = "one_month"
	AvailabilityThreeMonths Availability = "three_months"
	AvailabilityNotLooking  Availability = "not_looking"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityImmediate, AvailabilityOneMonth, AvailabilityThreeMonths, AvailabilityNotLooking:
		return true
	}
	return false
}

type CandidateProfile struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id" validate:"required"`

	// Contact fields - only ever exposed through a disclosed ProfileView
	FullName     string  `json:"full_name"`
	Email        string  `json:"email" validate:"omitempty,email"`
	LinkedInURL  *string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	PortfolioURL *string `json:"portfolio_url,omitempty" validate:"omitempty,url"`

	Title            string           `json:"title" validate:"required,min=3,max=100"`
	Summary          string           `json:"summary" validate:"max=2000"`
	ExperienceLevel  ExperienceLevel  `json:"experience_level"`
	Location         string           `json:"location"`
	RemotePreference RemotePreference `json:"remote_preference"`
	Availability     Availability     `json:"availability"`

	SalaryMin      *int64 `json:"salary_min,omitempty"`
	SalaryMax      *int64 `json:"salary_max,omitempty"`
	SalaryCurrency string `json:"salary_currency,omitempty"`

	// Visibility flags. Inactive or incomplete profiles are never searchable.
	IsActive         bool `json:"is_active"`
	ProfileCompleted bool `json:"profile_completed"`
	IsAnonymized     bool `json:"is_anonymized"`

	// Filterable dimensions, denormalized onto the profile row by the
	// reprocess pipeline. Role and Sector are the candidate's primary
	// classification; the array fields are tag-derived.
	Role            string   `json:"role"`
	Sector          string   `json:"sector"`
	Specialisms     []string `json:"specialisms"`
	Skills          []string `json:"skills"`
	BoardExperience []string `json:"board_experience"`

	Enrichments []EnrichmentRecord `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkExperience struct {
	ID          int64   `json:"id"`
	ProfileID   int64   `json:"profile_id"`
	CompanyName string  `json:"company_name" validate:"required"`
	JobTitle    string  `json:"job_title" validate:"required"`
	StartDate   string  `json:"start_date"` // YYYY-MM-DD
	EndDate     *string `json:"end_date,omitempty"`
	Description string  `json:"description"`
}

type Education struct {
	ID           int64   `json:"id"`
	ProfileID    int64   `json:"profile_id"`
	Institution  string  `json:"institution" validate:"required"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
}

type TagCategory string

const (
	TagSkill         TagCategory = "skill"
	TagExpertise     TagCategory = "expertise"
	TagIndustry      TagCategory = "industry"
	TagRole          TagCategory = "role"
	TagCertification TagCategory = "certification"
	TagLanguage      TagCategory = "language"
)

// Tag is globally unique by (name, category); creation is an idempotent upsert.
type Tag struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name" validate:"required"`
	Category TagCategory `json:"category" validate:"required"`
}

type CandidateTag struct {
	ProfileID   int64 `json:"profile_id"`
	TagID       int64 `json:"tag_id"`
	Proficiency *int  `json:"proficiency,omitempty"`
	Years       *int  `json:"years,omitempty"`
	Endorsed    bool  `json:"endorsed"`
}

// CareerHistory is the full submitted child set for a profile. Reprocessing
// replaces the stored set wholesale; it never merges old and new rows.
type CareerHistory struct {
	WorkExperiences []WorkExperience `json:"work_experiences"`
	Educations      []Education      `json:"educations"`
	Tags            []Tag            `json:"tags"`
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*CandidateProfile, error)
	Search(ctx context.Context, plan QueryPlan) ([]CandidateProfile, int64, error)
	CountFacet(ctx context.Context, predicates []Predicate, dimension string, limit int) ([]FacetValue, error)
	ReplaceCareerHistory(ctx context.Context, profileID int64, history *CareerHistory) error
	SetVisibility(ctx context.Context, profileID int64, active, completed bool) error
}

type TagRepository interface {
	Upsert(ctx context.Context, tag *Tag) error
	List(ctx context.Context, category TagCategory) ([]Tag, error)
}

type CandidateUsecase interface {
	Reprocess(ctx context.Context, profileID int64, history *CareerHistory) error
	SetApproval(ctx context.Context, profileID int64, active, completed bool) error
	ListTags(ctx context.Context, category TagCategory) ([]Tag, error)
	CreateTag(ctx context.Context, tag *Tag) error
}

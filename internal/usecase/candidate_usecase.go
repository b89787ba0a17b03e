package usecase

import (
	"context"
	"errors"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

type candidateUsecase struct {
	profiles domain.ProfileRepository
	tags     domain.TagRepository
	validate *validator.Validate
}

func NewCandidateUsecase(profiles domain.ProfileRepository, tags domain.TagRepository, validate *validator.Validate) domain.CandidateUsecase {
	return &candidateUsecase{
		profiles: profiles,
		tags:     tags,
		validate: validate,
	}
}

// Reprocess replaces a profile's child records with the latest submitted
// set. Admin only: this is the approval pipeline's write path.
func (u *candidateUsecase) Reprocess(ctx context.Context, profileID int64, history *domain.CareerHistory) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	for i := range history.WorkExperiences {
		if err := u.validate.Struct(&history.WorkExperiences[i]); err != nil {
			return apperror.BadRequest(err.Error())
		}
	}
	for i := range history.Educations {
		if err := u.validate.Struct(&history.Educations[i]); err != nil {
			return apperror.BadRequest(err.Error())
		}
	}
	for i := range history.Tags {
		if err := u.validate.Struct(&history.Tags[i]); err != nil {
			return apperror.BadRequest(err.Error())
		}
	}

	if err := u.profiles.ReplaceCareerHistory(ctx, profileID, history); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperror.NotFound("Candidate profile not found")
		}
		return err
	}
	return nil
}

// SetApproval flips the visibility flags; the approval workflow is the only
// way a profile becomes searchable.
func (u *candidateUsecase) SetApproval(ctx context.Context, profileID int64, active, completed bool) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := u.profiles.SetVisibility(ctx, profileID, active, completed); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperror.NotFound("Candidate profile not found")
		}
		return err
	}
	return nil
}

func (u *candidateUsecase) ListTags(ctx context.Context, category domain.TagCategory) ([]domain.Tag, error) {
	return u.tags.List(ctx, category)
}

func (u *candidateUsecase) CreateTag(ctx context.Context, tag *domain.Tag) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := u.validate.Struct(tag); err != nil {
		return apperror.BadRequest(err.Error())
	}
	return u.tags.Upsert(ctx, tag)
}

func requireAdmin(ctx context.Context) error {
	role, _ := ctx.Value(domain.KeyViewerRole).(string)
	if role == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	if role != "admin" {
		return apperror.Forbidden("Admin role required")
	}
	return nil
}

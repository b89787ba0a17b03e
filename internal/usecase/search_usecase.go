package usecase

import (
	"context"
	"sync"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/internal/privacy"
	"exec-marketplace-backend/internal/search"
	"exec-marketplace-backend/pkg/apperror"
	"exec-marketplace-backend/pkg/logger"

	"github.com/google/uuid"
)

type searchUsecase struct {
	profiles domain.ProfileRepository
	ledger   domain.LedgerRepository
	accounts domain.AccountRepository
	facetCap int
}

func NewSearchUsecase(profiles domain.ProfileRepository, ledger domain.LedgerRepository, accounts domain.AccountRepository, facetCap int) domain.SearchUsecase {
	return &searchUsecase{
		profiles: profiles,
		ledger:   ledger,
		accounts: accounts,
		facetCap: facetCap,
	}
}

// Search runs the full pipeline: compile criteria, consume the account's
// search quota, execute the result query and the facet fan-out, then redact
// every row according to the viewer's entitlements. Unauthenticated callers
// search in public mode with maximal redaction.
func (u *searchUsecase) Search(ctx context.Context, criteria domain.FilterCriteria) (*domain.SearchResult, error) {
	plan := search.Compile(criteria)

	viewerID, _ := ctx.Value(domain.KeyViewerID).(string)
	var account *domain.Account
	if viewerID != "" {
		var err error
		account, err = u.accounts.GetByID(ctx, viewerID)
		if err != nil {
			if err == domain.ErrNotFound {
				return nil, apperror.Forbidden("No company account for this user")
			}
			return nil, err
		}
		if err := u.accounts.ConsumeSearchQuota(ctx, viewerID); err != nil {
			if err == domain.ErrQuotaExceeded {
				return nil, apperror.QuotaExceeded("Search allowance exhausted for this billing period")
			}
			return nil, err
		}
	}

	// The result query and each facet dimension are read-only and mutually
	// independent, so they run concurrently.
	var (
		wg       sync.WaitGroup
		profiles []domain.CandidateProfile
		total    int64
		mainErr  error

		facetMu sync.Mutex
		facets  = make(map[string][]domain.FacetValue)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		profiles, total, mainErr = u.profiles.Search(ctx, plan)
	}()

	for _, dim := range search.FacetDimensions {
		wg.Add(1)
		go func(dim string) {
			defer wg.Done()
			baseline := search.WithoutDimension(plan.Predicates, dim)
			limit := 0
			if search.CappedDimension(dim) {
				limit = u.facetCap
			}
			values, err := u.profiles.CountFacet(ctx, baseline, dim, limit)
			if err != nil {
				// Partial degradation: a failed dimension is dropped from
				// the response, never fails the whole search.
				logger.Log.Warn("facet aggregation failed", "dimension", dim, "error", err)
				return
			}
			if len(values) == 0 {
				return
			}
			facetMu.Lock()
			facets[dim] = values
			facetMu.Unlock()
		}(dim)
	}

	wg.Wait()
	if mainErr != nil {
		return nil, mainErr
	}

	unlocked, err := u.unlockedSet(ctx, viewerID, account, profiles)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProfileView, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		ent := &domain.Entitlement{
			ViewerID:    viewerID,
			CandidateID: p.ID,
			Disclosed:   unlocked[p.ID],
		}
		views = append(views, privacy.Transform(p, ent))
	}

	orderedFacets := make([]domain.Facet, 0, len(facets))
	for _, dim := range search.FacetDimensions {
		if values, ok := facets[dim]; ok {
			orderedFacets = append(orderedFacets, domain.Facet{Dimension: dim, Values: values})
		}
	}

	totalPages := 0
	if plan.Limit > 0 {
		totalPages = int((total + int64(plan.Limit) - 1) / int64(plan.Limit))
	}

	return &domain.SearchResult{
		Results:    views,
		Total:      total,
		Page:       plan.Offset/plan.Limit + 1,
		Limit:      plan.Limit,
		TotalPages: totalPages,
		Facets:     orderedFacets,
		SearchID:   uuid.NewString(),
	}, nil
}

// GetProfileView returns a single candidate through the same redaction gate
// as search, with the purchase record attached when disclosed.
func (u *searchUsecase) GetProfileView(ctx context.Context, candidateID int64) (*domain.ProfileView, error) {
	profile, err := u.profiles.GetByID(ctx, candidateID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, apperror.NotFound("Candidate not found")
		}
		return nil, err
	}
	// Inactive and incomplete profiles do not exist as far as viewers are
	// concerned.
	if !profile.IsActive || !profile.ProfileCompleted {
		return nil, apperror.NotFound("Candidate not found")
	}

	viewerID, _ := ctx.Value(domain.KeyViewerID).(string)
	ent := &domain.Entitlement{ViewerID: viewerID, CandidateID: candidateID}
	if viewerID != "" {
		account, err := u.accounts.GetByID(ctx, viewerID)
		if err != nil && err != domain.ErrNotFound {
			return nil, err
		}
		if account != nil && account.PlanTier == domain.TierUnlimited {
			ent.Disclosed = true
		} else {
			ent, err = u.ledger.GetEntitlement(ctx, viewerID, candidateID)
			if err != nil {
				return nil, err
			}
		}
	}

	view := privacy.Transform(profile, ent)
	return &view, nil
}

func (u *searchUsecase) unlockedSet(ctx context.Context, viewerID string, account *domain.Account, profiles []domain.CandidateProfile) (map[int64]bool, error) {
	if viewerID == "" || len(profiles) == 0 {
		return map[int64]bool{}, nil
	}

	if account != nil && account.PlanTier == domain.TierUnlimited {
		all := make(map[int64]bool, len(profiles))
		for i := range profiles {
			all[profiles[i].ID] = true
		}
		return all, nil
	}

	ids := make([]int64, 0, len(profiles))
	for i := range profiles {
		ids = append(ids, profiles[i].ID)
	}
	return u.ledger.ListUnlocked(ctx, viewerID, ids)
}

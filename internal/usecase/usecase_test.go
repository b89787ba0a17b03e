package usecase_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/internal/search"
	"exec-marketplace-backend/internal/usecase"
	"exec-marketplace-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Mock Repositories

type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) GetByID(ctx context.Context, id int64) (*domain.CandidateProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateProfile), args.Error(1)
}

func (m *MockProfileRepo) Search(ctx context.Context, plan domain.QueryPlan) ([]domain.CandidateProfile, int64, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.CandidateProfile), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepo) CountFacet(ctx context.Context, predicates []domain.Predicate, dimension string, limit int) ([]domain.FacetValue, error) {
	args := m.Called(ctx, predicates, dimension, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FacetValue), args.Error(1)
}

func (m *MockProfileRepo) ReplaceCareerHistory(ctx context.Context, profileID int64, history *domain.CareerHistory) error {
	return m.Called(ctx, profileID, history).Error(0)
}

func (m *MockProfileRepo) SetVisibility(ctx context.Context, profileID int64, active, completed bool) error {
	return m.Called(ctx, profileID, active, completed).Error(0)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) GetEntitlement(ctx context.Context, viewerID string, candidateID int64) (*domain.Entitlement, error) {
	args := m.Called(ctx, viewerID, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entitlement), args.Error(1)
}

func (m *MockLedgerRepo) ListUnlocked(ctx context.Context, viewerID string, candidateIDs []int64) (map[int64]bool, error) {
	args := m.Called(ctx, viewerID, candidateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]bool), args.Error(1)
}

func (m *MockLedgerRepo) UnlockWithCredit(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*domain.Entitlement, error) {
	args := m.Called(ctx, viewerID, candidateID, paymentRef, cost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entitlement), args.Error(1)
}

func (m *MockLedgerRepo) GrantComplimentary(ctx context.Context, viewerID string, candidateID int64, paymentRef string) (*domain.Entitlement, error) {
	args := m.Called(ctx, viewerID, candidateID, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entitlement), args.Error(1)
}

func (m *MockLedgerRepo) ReserveUnlock(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*domain.CreditTransaction, error) {
	args := m.Called(ctx, viewerID, candidateID, paymentRef, cost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditTransaction), args.Error(1)
}

func (m *MockLedgerRepo) ConfirmUnlock(ctx context.Context, paymentRef string) (*domain.Entitlement, error) {
	args := m.Called(ctx, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entitlement), args.Error(1)
}

func (m *MockLedgerRepo) ListTransactions(ctx context.Context, accountID string) ([]domain.CreditTransaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CreditTransaction), args.Error(1)
}

func (m *MockLedgerRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepo) ConsumeSearchQuota(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

type MockTagRepo struct {
	mock.Mock
}

func (m *MockTagRepo) Upsert(ctx context.Context, tag *domain.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockTagRepo) List(ctx context.Context, category domain.TagCategory) ([]domain.Tag, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tag), args.Error(1)
}

// Fixtures

func activeProfile(id int64) domain.CandidateProfile {
	return domain.CandidateProfile{
		ID:               id,
		FullName:         "Jane Doe",
		Email:            "jane@example.com",
		Title:            "Chief Financial Officer",
		ExperienceLevel:  domain.ExperienceExecutive,
		Location:         "London, United Kingdom",
		IsActive:         true,
		ProfileCompleted: true,
		IsAnonymized:     true,
		Role:             "cfo",
		Skills:           []string{"fundraising", "fp&a"},
		UpdatedAt:        time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func viewerCtx(viewerID string) context.Context {
	return context.WithValue(context.Background(), domain.KeyViewerID, viewerID)
}

// Search Usecase

func TestSearchAnonymousViewer(t *testing.T) {
	profileRepo := new(MockProfileRepo)
	ledgerRepo := new(MockLedgerRepo)
	accountRepo := new(MockAccountRepo)
	uc := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, 20)

	profiles := []domain.CandidateProfile{activeProfile(1), activeProfile(2)}
	profileRepo.On("Search", mock.Anything, mock.Anything).Return(profiles, int64(25), nil)
	profileRepo.On("CountFacet", mock.Anything, mock.Anything, search.DimRole, 20).
		Return([]domain.FacetValue{{Value: "cfo", Count: 14}, {Value: "ceo", Count: 11}}, nil)
	profileRepo.On("CountFacet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.FacetValue{}, nil)

	result, err := uc.Search(context.Background(), domain.FilterCriteria{Page: 2, Limit: 10})
	require.NoError(t, err)

	t.Run("Should never touch account or ledger state", func(t *testing.T) {
		accountRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		accountRepo.AssertNotCalled(t, "ConsumeSearchQuota", mock.Anything, mock.Anything)
		ledgerRepo.AssertNotCalled(t, "ListUnlocked", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should redact every result", func(t *testing.T) {
		require.Len(t, result.Results, 2)
		for _, view := range result.Results {
			assert.False(t, view.Disclosed)
			assert.Nil(t, view.FullName)
			assert.Nil(t, view.Email)
			assert.Equal(t, "Executive Professional", view.Title)
		}
	})

	t.Run("Should compute pagination metadata", func(t *testing.T) {
		assert.Equal(t, int64(25), result.Total)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, 3, result.TotalPages)
		assert.NotEmpty(t, result.SearchID)
	})

	t.Run("Should include only non-empty facets", func(t *testing.T) {
		require.Len(t, result.Facets, 1)
		assert.Equal(t, search.DimRole, result.Facets[0].Dimension)
		assert.Equal(t, int64(14), result.Facets[0].Values[0].Count)
	})
}

func TestSearchFacetDegradation(t *testing.T) {
	profileRepo := new(MockProfileRepo)
	uc := usecase.NewSearchUsecase(profileRepo, new(MockLedgerRepo), new(MockAccountRepo), 20)

	profileRepo.On("Search", mock.Anything, mock.Anything).
		Return([]domain.CandidateProfile{}, int64(0), nil)
	profileRepo.On("CountFacet", mock.Anything, mock.Anything, search.DimSkill, mock.Anything).
		Return(nil, errors.New("query timeout"))
	profileRepo.On("CountFacet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.FacetValue{{Value: "x", Count: 1}}, nil)

	t.Run("Should drop a failed dimension without failing the search", func(t *testing.T) {
		result, err := uc.Search(context.Background(), domain.FilterCriteria{})
		require.NoError(t, err)
		assert.Len(t, result.Facets, len(search.FacetDimensions)-1)
		for _, f := range result.Facets {
			assert.NotEqual(t, search.DimSkill, f.Dimension)
		}
	})
}

func TestSearchQuota(t *testing.T) {
	profileRepo := new(MockProfileRepo)
	ledgerRepo := new(MockLedgerRepo)
	accountRepo := new(MockAccountRepo)
	uc := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, 20)

	account := &domain.Account{ID: "acct1", PlanTier: domain.TierSubscription, SearchQuota: 100}

	t.Run("Should reject an exhausted quota before running the query", func(t *testing.T) {
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil).Once()
		accountRepo.On("ConsumeSearchQuota", mock.Anything, "acct1").Return(domain.ErrQuotaExceeded).Once()

		_, err := uc.Search(viewerCtx("acct1"), domain.FilterCriteria{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowance exhausted")
		profileRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("Should consume one quota unit per search", func(t *testing.T) {
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil).Once()
		accountRepo.On("ConsumeSearchQuota", mock.Anything, "acct1").Return(nil).Once()
		profileRepo.On("Search", mock.Anything, mock.Anything).Return([]domain.CandidateProfile{}, int64(0), nil)
		profileRepo.On("CountFacet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.FacetValue{}, nil)

		_, err := uc.Search(viewerCtx("acct1"), domain.FilterCriteria{})
		require.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})
}

func TestSearchEntitlementAnnotation(t *testing.T) {
	t.Run("Should disclose only unlocked candidates for a metered plan", func(t *testing.T) {
		profileRepo := new(MockProfileRepo)
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		uc := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, 20)

		account := &domain.Account{ID: "acct1", PlanTier: domain.TierPayAsYouGo}
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		accountRepo.On("ConsumeSearchQuota", mock.Anything, "acct1").Return(nil)
		profileRepo.On("Search", mock.Anything, mock.Anything).
			Return([]domain.CandidateProfile{activeProfile(1), activeProfile(2)}, int64(2), nil)
		profileRepo.On("CountFacet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.FacetValue{}, nil)
		ledgerRepo.On("ListUnlocked", mock.Anything, "acct1", []int64{1, 2}).
			Return(map[int64]bool{1: true}, nil)

		result, err := uc.Search(viewerCtx("acct1"), domain.FilterCriteria{})
		require.NoError(t, err)
		require.Len(t, result.Results, 2)
		assert.True(t, result.Results[0].Disclosed)
		assert.NotNil(t, result.Results[0].FullName)
		assert.False(t, result.Results[1].Disclosed)
		assert.Nil(t, result.Results[1].FullName)
	})

	t.Run("Should disclose everything for an unlimited plan without ledger reads", func(t *testing.T) {
		profileRepo := new(MockProfileRepo)
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		uc := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, 20)

		account := &domain.Account{ID: "acct1", PlanTier: domain.TierUnlimited}
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		accountRepo.On("ConsumeSearchQuota", mock.Anything, "acct1").Return(nil)
		profileRepo.On("Search", mock.Anything, mock.Anything).
			Return([]domain.CandidateProfile{activeProfile(1)}, int64(1), nil)
		profileRepo.On("CountFacet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.FacetValue{}, nil)

		result, err := uc.Search(viewerCtx("acct1"), domain.FilterCriteria{})
		require.NoError(t, err)
		assert.True(t, result.Results[0].Disclosed)
		ledgerRepo.AssertNotCalled(t, "ListUnlocked", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetProfileView(t *testing.T) {
	t.Run("Should hide inactive profiles behind a 404", func(t *testing.T) {
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewSearchUsecase(profileRepo, new(MockLedgerRepo), new(MockAccountRepo), 20)

		hidden := activeProfile(9)
		hidden.IsActive = false
		profileRepo.On("GetByID", mock.Anything, int64(9)).Return(&hidden, nil)

		_, err := uc.GetProfileView(context.Background(), 9)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Candidate not found")
	})

	t.Run("Should attach the purchase record on a disclosed view", func(t *testing.T) {
		profileRepo := new(MockProfileRepo)
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		uc := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, 20)

		p := activeProfile(5)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&p, nil)
		accountRepo.On("GetByID", mock.Anything, "acct1").
			Return(&domain.Account{ID: "acct1", PlanTier: domain.TierPayAsYouGo}, nil)
		tx := &domain.CreditTransaction{ID: 77, PaymentRef: "pay_abc"}
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5, Disclosed: true, Transaction: tx}, nil)

		view, err := uc.GetProfileView(viewerCtx("acct1"), 5)
		require.NoError(t, err)
		assert.True(t, view.Disclosed)
		assert.Equal(t, tx, view.Purchase)
	})
}

// Disclosure Usecase

func TestEnsureUnlocked(t *testing.T) {
	account := &domain.Account{ID: "acct1", PlanTier: domain.TierPayAsYouGo, CreditBalance: 10}
	candidate := activeProfile(5)

	t.Run("Should fail safe when the viewer is not authenticated", func(t *testing.T) {
		uc := usecase.NewDisclosureUsecase(new(MockLedgerRepo), new(MockAccountRepo), new(MockProfileRepo), 1)
		_, err := uc.EnsureUnlocked(context.Background(), 5, "pay_1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "User not authenticated")
	})

	t.Run("Should return the existing grant without a second charge", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 1)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5, Disclosed: true}, nil)

		ent, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "pay_different_ref")
		require.NoError(t, err)
		assert.True(t, ent.Disclosed)
		ledgerRepo.AssertNotCalled(t, "UnlockWithCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should debit credits for a first unlock", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 2)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5}, nil)
		ledgerRepo.On("UnlockWithCredit", mock.Anything, "acct1", int64(5), "pay_1", int64(2)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5, Disclosed: true}, nil)

		ent, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "pay_1")
		require.NoError(t, err)
		assert.True(t, ent.Disclosed)
		ledgerRepo.AssertExpectations(t)
	})

	t.Run("Should map insufficient credits to payment required", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 1)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5}, nil)
		ledgerRepo.On("UnlockWithCredit", mock.Anything, "acct1", int64(5), "pay_1", int64(1)).
			Return(nil, domain.ErrInsufficientCredits)

		_, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "pay_1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Insufficient credits")
	})

	t.Run("Should grant a complimentary unlock on the unlimited tier", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 1)

		unlimited := &domain.Account{ID: "acct1", PlanTier: domain.TierUnlimited}
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(unlimited, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5}, nil)
		ledgerRepo.On("GrantComplimentary", mock.Anything, "acct1", int64(5), mock.AnythingOfType("string")).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5, Disclosed: true}, nil)

		ent, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "")
		require.NoError(t, err)
		assert.True(t, ent.Disclosed)
		ledgerRepo.AssertNotCalled(t, "UnlockWithCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should require a payment reference on metered plans", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 1)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("GetEntitlement", mock.Anything, "acct1", int64(5)).
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5}, nil)

		_, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paymentRef is required")
	})

	t.Run("Should treat hidden candidates as not found", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 1)

		hidden := activeProfile(5)
		hidden.ProfileCompleted = false
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&hidden, nil)

		_, err := uc.EnsureUnlocked(viewerCtx("acct1"), 5, "pay_1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Candidate not found")
		ledgerRepo.AssertNotCalled(t, "GetEntitlement", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReserveAndConfirm(t *testing.T) {
	account := &domain.Account{ID: "acct1", PlanTier: domain.TierPayAsYouGo}
	candidate := activeProfile(5)

	t.Run("Should record a pending reservation", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 3)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("ReserveUnlock", mock.Anything, "acct1", int64(5), "pay_ext_1", int64(3)).
			Return(&domain.CreditTransaction{ID: 1, Status: domain.TransactionPending, PaymentRef: "pay_ext_1"}, nil)

		tx, err := uc.ReserveUnlock(viewerCtx("acct1"), 5, "pay_ext_1")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionPending, tx.Status)
	})

	t.Run("Should reject a reservation without a payment reference", func(t *testing.T) {
		accountRepo := new(MockAccountRepo)
		uc := usecase.NewDisclosureUsecase(new(MockLedgerRepo), accountRepo, new(MockProfileRepo), 3)
		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)

		_, err := uc.ReserveUnlock(viewerCtx("acct1"), 5, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paymentRef is required")
	})

	t.Run("Should surface a reference owned by another account as a conflict", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		accountRepo := new(MockAccountRepo)
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, 3)

		accountRepo.On("GetByID", mock.Anything, "acct1").Return(account, nil)
		profileRepo.On("GetByID", mock.Anything, int64(5)).Return(&candidate, nil)
		ledgerRepo.On("ReserveUnlock", mock.Anything, "acct1", int64(5), "pay_claimed", int64(3)).
			Return(nil, domain.ErrPaymentRefTaken)

		_, err := uc.ReserveUnlock(viewerCtx("acct1"), 5, "pay_claimed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already in use")
	})

	t.Run("Should confirm a known reservation", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, new(MockAccountRepo), new(MockProfileRepo), 3)

		ledgerRepo.On("ConfirmUnlock", mock.Anything, "pay_ext_1").
			Return(&domain.Entitlement{ViewerID: "acct1", CandidateID: 5, Disclosed: true}, nil)

		ent, err := uc.ConfirmPayment(context.Background(), "pay_ext_1")
		require.NoError(t, err)
		assert.True(t, ent.Disclosed)
	})

	t.Run("Should surface an unknown reference as not found", func(t *testing.T) {
		ledgerRepo := new(MockLedgerRepo)
		uc := usecase.NewDisclosureUsecase(ledgerRepo, new(MockAccountRepo), new(MockProfileRepo), 3)

		ledgerRepo.On("ConfirmUnlock", mock.Anything, "pay_unknown").Return(nil, domain.ErrNotFound)

		_, err := uc.ConfirmPayment(context.Background(), "pay_unknown")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No reservation")
	})
}

// Candidate Usecase

func TestAdminGating(t *testing.T) {
	uc := usecase.NewCandidateUsecase(new(MockProfileRepo), new(MockTagRepo), validator.New())

	t.Run("Should fail when the viewer has no role", func(t *testing.T) {
		err := uc.SetApproval(context.Background(), 1, true, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "User not authenticated")
	})

	t.Run("Should fail when the viewer is not an admin", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), domain.KeyViewerRole, "member")
		err := uc.SetApproval(ctx, 1, true, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Admin role required")
	})
}

func TestReprocess(t *testing.T) {
	adminCtx := context.WithValue(context.Background(), domain.KeyViewerRole, "admin")

	t.Run("Should reject invalid work experience rows", func(t *testing.T) {
		uc := usecase.NewCandidateUsecase(new(MockProfileRepo), new(MockTagRepo), validator.New())
		history := &domain.CareerHistory{
			WorkExperiences: []domain.WorkExperience{{JobTitle: "CFO"}}, // missing company
		}
		err := uc.Reprocess(adminCtx, 1, history)
		require.Error(t, err)
	})

	t.Run("Should replace history wholesale for a valid submission", func(t *testing.T) {
		profileRepo := new(MockProfileRepo)
		uc := usecase.NewCandidateUsecase(profileRepo, new(MockTagRepo), validator.New())

		history := &domain.CareerHistory{
			WorkExperiences: []domain.WorkExperience{
				{CompanyName: "Acme", JobTitle: "CFO", StartDate: "2020-01-01"},
			},
			Tags: []domain.Tag{{Name: "fundraising", Category: domain.TagSkill}},
		}
		profileRepo.On("ReplaceCareerHistory", adminCtx, int64(1), history).Return(nil)

		err := uc.Reprocess(adminCtx, 1, history)
		require.NoError(t, err)
		profileRepo.AssertExpectations(t)
	})
}

func TestCreateTag(t *testing.T) {
	adminCtx := context.WithValue(context.Background(), domain.KeyViewerRole, "admin")

	t.Run("Should reject a tag without a category", func(t *testing.T) {
		uc := usecase.NewCandidateUsecase(new(MockProfileRepo), new(MockTagRepo), validator.New())
		err := uc.CreateTag(adminCtx, &domain.Tag{Name: "fundraising"})
		require.Error(t, err)
	})

	t.Run("Should upsert a valid tag", func(t *testing.T) {
		tagRepo := new(MockTagRepo)
		uc := usecase.NewCandidateUsecase(new(MockProfileRepo), tagRepo, validator.New())

		tag := &domain.Tag{Name: "fundraising", Category: domain.TagSkill}
		tagRepo.On("Upsert", adminCtx, tag).Return(nil)

		err := uc.CreateTag(adminCtx, tag)
		require.NoError(t, err)
		tagRepo.AssertExpectations(t)
	})
}

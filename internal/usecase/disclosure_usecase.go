package usecase

import (
	"context"
	"errors"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/apperror"

	"github.com/google/uuid"
)

type disclosureUsecase struct {
	ledger     domain.LedgerRepository
	accounts   domain.AccountRepository
	profiles   domain.ProfileRepository
	unlockCost int64
}

func NewDisclosureUsecase(ledger domain.LedgerRepository, accounts domain.AccountRepository, profiles domain.ProfileRepository, unlockCost int64) domain.DisclosureUsecase {
	return &disclosureUsecase{
		ledger:     ledger,
		accounts:   accounts,
		profiles:   profiles,
		unlockCost: unlockCost,
	}
}

// EnsureUnlocked is the single entry point for the credit unlock flow. Per
// (viewer, candidate) pair, unpurchased -> purchased is the only transition,
// and it is idempotent: a repeat call - with the same or a different payment
// reference - returns the existing entitlement without a second charge.
func (u *disclosureUsecase) EnsureUnlocked(ctx context.Context, candidateID int64, paymentRef string) (*domain.Entitlement, error) {
	viewerID, account, err := u.requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	if err := u.requireActiveCandidate(ctx, candidateID); err != nil {
		return nil, err
	}

	existing, err := u.ledger.GetEntitlement(ctx, viewerID, candidateID)
	if err != nil {
		return nil, err
	}
	if existing.Disclosed {
		return existing, nil
	}

	if account.PlanTier == domain.TierUnlimited {
		if paymentRef == "" {
			paymentRef = "comp_" + uuid.NewString()
		}
		return u.ledger.GrantComplimentary(ctx, viewerID, candidateID, paymentRef)
	}

	if paymentRef == "" {
		return nil, apperror.BadRequest("paymentRef is required")
	}

	ent, err := u.ledger.UnlockWithCredit(ctx, viewerID, candidateID, paymentRef, u.unlockCost)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			return nil, apperror.PaymentRequired("Insufficient credits to unlock this profile")
		case errors.Is(err, domain.ErrPaymentNotConfirmed):
			return nil, apperror.Conflict("Payment for this reference has not been confirmed yet")
		}
		return nil, err
	}
	return ent, nil
}

// ReserveUnlock starts the two-phase external-payment flow: a pending ledger
// row is written now, the entitlement is granted only once the payment
// processor confirms via webhook.
func (u *disclosureUsecase) ReserveUnlock(ctx context.Context, candidateID int64, paymentRef string) (*domain.CreditTransaction, error) {
	viewerID, _, err := u.requireAccount(ctx)
	if err != nil {
		return nil, err
	}
	if paymentRef == "" {
		return nil, apperror.BadRequest("paymentRef is required")
	}
	if err := u.requireActiveCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	reservation, err := u.ledger.ReserveUnlock(ctx, viewerID, candidateID, paymentRef, u.unlockCost)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentRefTaken) {
			return nil, apperror.Conflict("Payment reference is already in use")
		}
		return nil, err
	}
	return reservation, nil
}

// ConfirmPayment completes a reservation. Called from the webhook handler
// after signature verification; webhook redelivery is harmless because
// confirmation is idempotent.
func (u *disclosureUsecase) ConfirmPayment(ctx context.Context, paymentRef string) (*domain.Entitlement, error) {
	ent, err := u.ledger.ConfirmUnlock(ctx, paymentRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("No reservation for this payment reference")
		}
		return nil, err
	}
	return ent, nil
}

func (u *disclosureUsecase) GetBalance(ctx context.Context) (int64, []domain.CreditTransaction, error) {
	viewerID, _, err := u.requireAccount(ctx)
	if err != nil {
		return 0, nil, err
	}
	balance, err := u.ledger.GetBalance(ctx, viewerID)
	if err != nil {
		return 0, nil, err
	}
	transactions, err := u.ledger.ListTransactions(ctx, viewerID)
	if err != nil {
		return 0, nil, err
	}
	return balance, transactions, nil
}

// requireAccount enforces that disclosure always runs authenticated; search
// may be public, unlocking never is.
func (u *disclosureUsecase) requireAccount(ctx context.Context) (string, *domain.Account, error) {
	viewerID, ok := ctx.Value(domain.KeyViewerID).(string)
	if !ok || viewerID == "" {
		return "", nil, apperror.Unauthorized("User not authenticated")
	}
	account, err := u.accounts.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, apperror.Forbidden("No company account for this user")
		}
		return "", nil, err
	}
	return viewerID, account, nil
}

func (u *disclosureUsecase) requireActiveCandidate(ctx context.Context, candidateID int64) error {
	profile, err := u.profiles.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperror.NotFound("Candidate not found")
		}
		return err
	}
	if !profile.IsActive || !profile.ProfileCompleted {
		return apperror.NotFound("Candidate not found")
	}
	return nil
}

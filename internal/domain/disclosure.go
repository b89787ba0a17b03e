package domain

import (
	"context"
	"time"
)

type PlanTier string

const (
	TierPayAsYouGo   PlanTier = "payg"
	TierSubscription PlanTier = "subscription"
	TierUnlimited    PlanTier = "unlimited"
)

// Account is a viewing company account. CreditBalance and SearchesUsed are
// the only mutable shared state in the subsystem; both are mutated through
// atomic conditional updates at the repository boundary.
type Account struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"company_name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"` // member, admin
	PlanTier      PlanTier  `json:"plan_tier"`
	CreditBalance int64     `json:"credit_balance"`
	SearchQuota   int       `json:"search_quota"`
	SearchesUsed  int       `json:"searches_used"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionFailed    TransactionStatus = "failed"
)

// CreditTransaction is one append-only ledger row. PaymentRef is the external
// payment reference and the idempotency key for unlocks: at most one row per
// ref, enforced by a unique constraint.
type CreditTransaction struct {
	ID          int64             `json:"id"`
	AccountID   string            `json:"account_id"`
	CandidateID *int64            `json:"candidate_id,omitempty"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      int64             `json:"amount"`
	PaymentRef  string            `json:"payment_ref"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Entitlement is derived from the ledger, never stored as a bare boolean.
// A profile is disclosed to a viewer iff a purchased entitlement exists for
// that exact (viewer, candidate) pair or the viewer's plan is unlimited.
type Entitlement struct {
	ViewerID    string             `json:"viewer_id"`
	CandidateID int64              `json:"candidate_id"`
	Disclosed   bool               `json:"disclosed"`
	UnlockedAt  *time.Time         `json:"unlocked_at,omitempty"`
	Transaction *CreditTransaction `json:"transaction,omitempty"`
}

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	// ConsumeSearchQuota atomically increments searches_used, failing with
	// ErrQuotaExceeded when the quota is already spent. Implemented as a
	// conditional UPDATE so concurrent requests cannot race past the limit.
	ConsumeSearchQuota(ctx context.Context, accountID string) error
}

type LedgerRepository interface {
	GetEntitlement(ctx context.Context, viewerID string, candidateID int64) (*Entitlement, error)
	// ListUnlocked returns the subset of candidateIDs the viewer has
	// purchased, for batch annotation of a result page.
	ListUnlocked(ctx context.Context, viewerID string, candidateIDs []int64) (map[int64]bool, error)
	// UnlockWithCredit debits one unlock's cost and grants the entitlement in
	// a single transaction. Replaying an already-recorded paymentRef returns
	// the existing entitlement without further mutation.
	UnlockWithCredit(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*Entitlement, error)
	// GrantComplimentary records a zero-cost grant for unlimited-tier
	// viewers, keeping the audit trail intact.
	GrantComplimentary(ctx context.Context, viewerID string, candidateID int64, paymentRef string) (*Entitlement, error)
	// ReserveUnlock records a pending transaction for the external-payment
	// flow. No entitlement is granted until ConfirmUnlock.
	ReserveUnlock(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*CreditTransaction, error)
	// ConfirmUnlock flips a pending reservation to confirmed and grants the
	// entitlement. Idempotent: confirming a confirmed ref is a no-op success.
	ConfirmUnlock(ctx context.Context, paymentRef string) (*Entitlement, error)
	ListTransactions(ctx context.Context, accountID string) ([]CreditTransaction, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)
}

type DisclosureUsecase interface {
	EnsureUnlocked(ctx context.Context, candidateID int64, paymentRef string) (*Entitlement, error)
	ReserveUnlock(ctx context.Context, candidateID int64, paymentRef string) (*CreditTransaction, error)
	ConfirmPayment(ctx context.Context, paymentRef string) (*Entitlement, error)
	GetBalance(ctx context.Context) (int64, []CreditTransaction, error)
}

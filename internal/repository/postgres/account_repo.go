package postgres

import (
	"context"
	"errors"

	"exec-marketplace-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) domain.AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, company_name, email, role, plan_tier, credit_balance, search_quota, searches_used, created_at, updated_at
		FROM accounts WHERE id = $1`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.CompanyName, &a.Email, &a.Role, &a.PlanTier,
		&a.CreditBalance, &a.SearchQuota, &a.SearchesUsed,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, company_name, email, role, plan_tier, credit_balance, search_quota, searches_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())`
	_, err := r.db.Exec(ctx, query,
		account.ID, account.CompanyName, account.Email, account.Role,
		account.PlanTier, account.CreditBalance, account.SearchQuota,
	)
	return err
}

// ConsumeSearchQuota increments searches_used with a conditional UPDATE so
// concurrent requests from the same account cannot race past the limit.
// A search_quota of zero means unmetered.
func (r *accountRepo) ConsumeSearchQuota(ctx context.Context, accountID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE accounts SET searches_used = searches_used + 1, updated_at = NOW()
		 WHERE id = $1 AND (search_quota = 0 OR searches_used < search_quota)`,
		accountID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a spent quota from a missing account.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrQuotaExceeded
}

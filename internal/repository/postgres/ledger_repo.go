package postgres

import (
	"context"
	"errors"
	"fmt"

	"exec-marketplace-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// ledgerDB is the slice of the pool the ledger uses. Narrowed to an
// interface so the conflict-handling paths can be exercised without a live
// database.
type ledgerDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ledgerRepo struct {
	db ledgerDB
}

func NewLedgerRepository(db *pgxpool.Pool) domain.LedgerRepository {
	return &ledgerRepo{db: db}
}

const transactionColumns = `id, account_id, candidate_id, type, status, amount, payment_ref, created_at`

func (r *ledgerRepo) GetEntitlement(ctx context.Context, viewerID string, candidateID int64) (*domain.Entitlement, error) {
	return getEntitlement(ctx, r.db, viewerID, candidateID)
}

// querier covers both the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntitlement(ctx context.Context, q querier, viewerID string, candidateID int64) (*domain.Entitlement, error) {
	query := `
		SELECT g.unlocked_at, t.id, t.account_id, t.candidate_id, t.type, t.status, t.amount, t.payment_ref, t.created_at
		FROM disclosure_grants g
		LEFT JOIN credit_transactions t ON g.transaction_id = t.id
		WHERE g.viewer_id = $1 AND g.candidate_id = $2`

	ent := &domain.Entitlement{ViewerID: viewerID, CandidateID: candidateID}
	var tx domain.CreditTransaction
	var txID *int64

	err := q.QueryRow(ctx, query, viewerID, candidateID).Scan(
		&ent.UnlockedAt,
		&txID, &tx.AccountID, &tx.CandidateID, &tx.Type, &tx.Status, &tx.Amount, &tx.PaymentRef, &tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No grant row: not purchased. Not an error.
			return ent, nil
		}
		return nil, err
	}

	ent.Disclosed = true
	if txID != nil {
		tx.ID = *txID
		ent.Transaction = &tx
	}
	return ent, nil
}

func (r *ledgerRepo) ListUnlocked(ctx context.Context, viewerID string, candidateIDs []int64) (map[int64]bool, error) {
	if len(candidateIDs) == 0 {
		return map[int64]bool{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT candidate_id FROM disclosure_grants WHERE viewer_id = $1 AND candidate_id = ANY($2)`,
		viewerID, pq.Array(candidateIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unlocked := make(map[int64]bool, len(candidateIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unlocked[id] = true
	}
	return unlocked, rows.Err()
}

// UnlockWithCredit performs the debit and the grant inside one transaction,
// so the viewer can never end up charged but locked out. The unique
// constraint on payment_ref makes the whole operation replay-safe.
func (r *ledgerRepo) UnlockWithCredit(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*domain.Entitlement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Already purchased: return the existing entitlement untouched, even
	// when the caller supplied a fresh payment reference.
	existing, err := getEntitlement(ctx, tx, viewerID, candidateID)
	if err != nil {
		return nil, err
	}
	if existing.Disclosed {
		return existing, tx.Commit(ctx)
	}

	// Replayed reference without a grant means a reservation is still
	// waiting on the payment processor.
	var pendingStatus domain.TransactionStatus
	err = tx.QueryRow(ctx, `SELECT status FROM credit_transactions WHERE payment_ref = $1`, paymentRef).Scan(&pendingStatus)
	if err == nil && pendingStatus == domain.TransactionPending {
		return nil, domain.ErrPaymentNotConfirmed
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Conditional debit: fails atomically when the balance cannot cover
	// the cost, with no ledger mutation.
	result, err := tx.Exec(ctx,
		`UPDATE accounts SET credit_balance = credit_balance - $1, updated_at = NOW()
		 WHERE id = $2 AND credit_balance >= $1`,
		cost, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrInsufficientCredits
	}

	ledgerTx := &domain.CreditTransaction{
		AccountID:   viewerID,
		CandidateID: &candidateID,
		Type:        domain.TransactionDebit,
		Status:      domain.TransactionConfirmed,
		Amount:      cost,
		PaymentRef:  paymentRef,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO credit_transactions (account_id, candidate_id, type, status, amount, payment_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		viewerID, candidateID, ledgerTx.Type, ledgerTx.Status, cost, paymentRef,
	).Scan(&ledgerTx.ID, &ledgerTx.CreatedAt)
	if err != nil {
		// A concurrent request committed this reference first. Our debit
		// rolls back with the transaction; answer from what that request
		// left behind.
		if isUniqueViolation(err) {
			_ = tx.Rollback(ctx)
			return r.settledEntitlement(ctx, viewerID, candidateID)
		}
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	ent := &domain.Entitlement{ViewerID: viewerID, CandidateID: candidateID, Disclosed: true, Transaction: ledgerTx}
	err = tx.QueryRow(ctx,
		`INSERT INTO disclosure_grants (viewer_id, candidate_id, transaction_id, unlocked_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (viewer_id, candidate_id) DO NOTHING
		 RETURNING unlocked_at`,
		viewerID, candidateID, ledgerTx.ID,
	).Scan(&ent.UnlockedAt)
	if err != nil {
		// No returned row: another transaction granted this pair while we
		// were debiting. Roll back so the viewer is charged exactly once.
		if errors.Is(err, pgx.ErrNoRows) {
			_ = tx.Rollback(ctx)
			return r.settledEntitlement(ctx, viewerID, candidateID)
		}
		return nil, fmt.Errorf("failed to grant unlock: %w", err)
	}

	return ent, tx.Commit(ctx)
}

// settledEntitlement re-reads the pair after losing an unlock race. The
// winning request normally leaves a grant behind; a reference recorded
// without one is still waiting on the payment processor.
func (r *ledgerRepo) settledEntitlement(ctx context.Context, viewerID string, candidateID int64) (*domain.Entitlement, error) {
	ent, err := getEntitlement(ctx, r.db, viewerID, candidateID)
	if err != nil {
		return nil, err
	}
	if !ent.Disclosed {
		return nil, domain.ErrPaymentNotConfirmed
	}
	return ent, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GrantComplimentary records a zero-cost confirmed transaction and the grant
// for unlimited-tier viewers, keeping the ledger's audit trail complete.
func (r *ledgerRepo) GrantComplimentary(ctx context.Context, viewerID string, candidateID int64, paymentRef string) (*domain.Entitlement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err := getEntitlement(ctx, tx, viewerID, candidateID)
	if err != nil {
		return nil, err
	}
	if existing.Disclosed {
		return existing, tx.Commit(ctx)
	}

	ledgerTx := &domain.CreditTransaction{
		AccountID:   viewerID,
		CandidateID: &candidateID,
		Type:        domain.TransactionDebit,
		Status:      domain.TransactionConfirmed,
		Amount:      0,
		PaymentRef:  paymentRef,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO credit_transactions (account_id, candidate_id, type, status, amount, payment_ref)
		 VALUES ($1, $2, $3, $4, 0, $5)
		 RETURNING id, created_at`,
		viewerID, candidateID, ledgerTx.Type, ledgerTx.Status, paymentRef,
	).Scan(&ledgerTx.ID, &ledgerTx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record complimentary transaction: %w", err)
	}

	ent := &domain.Entitlement{ViewerID: viewerID, CandidateID: candidateID, Disclosed: true, Transaction: ledgerTx}
	err = tx.QueryRow(ctx,
		`INSERT INTO disclosure_grants (viewer_id, candidate_id, transaction_id, unlocked_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (viewer_id, candidate_id) DO NOTHING
		 RETURNING unlocked_at`,
		viewerID, candidateID, ledgerTx.ID,
	).Scan(&ent.UnlockedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = tx.Rollback(ctx)
			return r.settledEntitlement(ctx, viewerID, candidateID)
		}
		return nil, fmt.Errorf("failed to grant unlock: %w", err)
	}

	return ent, tx.Commit(ctx)
}

// ReserveUnlock records a pending transaction for the external-payment flow.
// Re-reserving a reference hands back the existing reservation, but only to
// the account that owns it.
func (r *ledgerRepo) ReserveUnlock(ctx context.Context, viewerID string, candidateID int64, paymentRef string, cost int64) (*domain.CreditTransaction, error) {
	ledgerTx := &domain.CreditTransaction{
		AccountID:   viewerID,
		CandidateID: &candidateID,
		Type:        domain.TransactionDebit,
		Status:      domain.TransactionPending,
		Amount:      cost,
		PaymentRef:  paymentRef,
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO credit_transactions (account_id, candidate_id, type, status, amount, payment_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (payment_ref) DO NOTHING
		 RETURNING id, created_at`,
		viewerID, candidateID, ledgerTx.Type, ledgerTx.Status, cost, paymentRef,
	).Scan(&ledgerTx.ID, &ledgerTx.CreatedAt)
	if err == nil {
		return ledgerTx, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve unlock: %w", err)
	}

	// The reference is already recorded. Scoping the re-read to the caller's
	// account keeps another account's reservation details out of reach.
	var existing domain.CreditTransaction
	err = r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions WHERE payment_ref = $1 AND account_id = $2`,
		paymentRef, viewerID,
	).Scan(&existing.ID, &existing.AccountID, &existing.CandidateID, &existing.Type, &existing.Status,
		&existing.Amount, &existing.PaymentRef, &existing.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentRefTaken
		}
		return nil, err
	}
	return &existing, nil
}

// ConfirmUnlock flips a pending reservation to confirmed and grants the
// entitlement. Confirming an already-confirmed reference is a no-op success,
// so webhook redelivery cannot double-unlock.
func (r *ledgerRepo) ConfirmUnlock(ctx context.Context, paymentRef string) (*domain.Entitlement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ledgerTx domain.CreditTransaction
	err = tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions WHERE payment_ref = $1 FOR UPDATE`,
		paymentRef,
	).Scan(&ledgerTx.ID, &ledgerTx.AccountID, &ledgerTx.CandidateID, &ledgerTx.Type, &ledgerTx.Status,
		&ledgerTx.Amount, &ledgerTx.PaymentRef, &ledgerTx.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if ledgerTx.CandidateID == nil {
		return nil, fmt.Errorf("transaction %s has no candidate", paymentRef)
	}

	if ledgerTx.Status == domain.TransactionConfirmed {
		ent, err := getEntitlement(ctx, tx, ledgerTx.AccountID, *ledgerTx.CandidateID)
		if err != nil {
			return nil, err
		}
		return ent, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE credit_transactions SET status = $1 WHERE id = $2`,
		domain.TransactionConfirmed, ledgerTx.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to confirm transaction: %w", err)
	}
	ledgerTx.Status = domain.TransactionConfirmed

	ent := &domain.Entitlement{
		ViewerID:    ledgerTx.AccountID,
		CandidateID: *ledgerTx.CandidateID,
		Disclosed:   true,
		Transaction: &ledgerTx,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO disclosure_grants (viewer_id, candidate_id, transaction_id, unlocked_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (viewer_id, candidate_id) DO UPDATE SET viewer_id = EXCLUDED.viewer_id
		 RETURNING unlocked_at`,
		ledgerTx.AccountID, *ledgerTx.CandidateID, ledgerTx.ID,
	).Scan(&ent.UnlockedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to grant unlock: %w", err)
	}

	return ent, tx.Commit(ctx)
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, accountID string) ([]domain.CreditTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions WHERE account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.CreditTransaction
	for rows.Next() {
		var t domain.CreditTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CandidateID, &t.Type, &t.Status, &t.Amount, &t.PaymentRef, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *ledgerRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT credit_balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

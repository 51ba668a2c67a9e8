package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/google/uuid"
)

type creditsRepository struct {
	db *sql.DB
}

func NewCreditsRepository(db *sql.DB) CreditsRepository {
	return &creditsRepository{db: db}
}

// Apply performs the read-modify-write of the user balance under a row
// lock, then writes the ledger entry and the new cached balance in the
// same transaction. A negative resulting balance never commits.
func (r *creditsRepository) Apply(ctx context.Context, userID int64, delta float64, reason string) (*entity.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	// Ensure the balance row exists, then lock it for the duration of
	// the transaction. Serializes concurrent applies per user.
	query := `
		INSERT INTO credit_balances (user_id, balance, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, userID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to ensure balance row: %v", err)
	}

	var balance float64
	query = `SELECT balance FROM credit_balances WHERE user_id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return nil, fmt.Errorf("failed to lock balance row: %v", err)
	}

	newBalance := balance + delta
	if delta < 0 && newBalance < 0 {
		return nil, entity.ErrInsufficientCredits
	}

	now := time.Now()
	transaction := &entity.CreditTransaction{
		ID:               uuid.NewString(),
		UserID:           userID,
		Delta:            delta,
		Reason:           reason,
		ResultingBalance: newBalance,
		CreatedAt:        now,
	}

	query = `
		INSERT INTO credit_transactions (id, user_id, delta, reason, resulting_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, query,
		transaction.ID,
		transaction.UserID,
		transaction.Delta,
		transaction.Reason,
		transaction.ResultingBalance,
		transaction.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to write credit transaction: %v", err)
	}

	query = `UPDATE credit_balances SET balance = $2, updated_at = $3 WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, newBalance, now); err != nil {
		return nil, fmt.Errorf("failed to update cached balance: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	return transaction, nil
}

func (r *creditsRepository) GetBalance(ctx context.Context, userID int64) (float64, error) {
	query := `SELECT balance FROM credit_balances WHERE user_id = $1`

	var balance float64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %v", err)
	}
	return balance, nil
}

func (r *creditsRepository) GetHistory(ctx context.Context, userID int64, limit int) ([]*entity.CreditTransaction, error) {
	query := `
		SELECT id, user_id, delta, reason, resulting_balance, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit history: %v", err)
	}
	defer rows.Close()

	var transactions []*entity.CreditTransaction
	for rows.Next() {
		var t entity.CreditTransaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Delta, &t.Reason, &t.ResultingBalance, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %v", err)
		}
		transactions = append(transactions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit transactions: %v", err)
	}
	return transactions, nil
}

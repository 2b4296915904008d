package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"b4u/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lookup selects a transaction either by its id or by the Pi payment id.
type Lookup struct {
	ID        string
	PaymentID string
}

func ByID(id string) Lookup               { return Lookup{ID: id} }
func ByPaymentID(paymentID string) Lookup { return Lookup{PaymentID: paymentID} }

// TransactionFilter narrows admin listings.
type TransactionFilter struct {
	Status models.TransactionStatus
	UserID uint
}

// Stats summarises the store for the admin dashboard.
type Stats struct {
	TotalUsers        int64                              `json:"total_users"`
	TotalTransactions int64                              `json:"total_transactions"`
	ByStatus          map[models.TransactionStatus]int64 `json:"by_status"`
	CompletedUsd      decimal.Decimal                    `json:"completed_usd"`
	CompletedPi       decimal.Decimal                    `json:"completed_pi"`
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	return r.get(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	return r.get(r.db.WithContext(ctx).Where("payment_id = ?", paymentID))
}

func (r *TransactionRepository) get(q *gorm.DB) (*models.Transaction, error) {
	var tx models.Transaction
	if err := q.Preload("Package").First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// ListByUser returns a user's transactions newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]models.Transaction, int64, error) {
	return r.List(ctx, TransactionFilter{UserID: userID}, page)
}

func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter, page Page) ([]models.Transaction, int64, error) {
	var (
		txs   []models.Transaction
		total int64
	)

	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	err := q.Preload("Package").
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Size()).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, total, nil
}

// Mutate loads the transaction with a row lock, applies fn and saves the
// result in the same database transaction. An error from fn rolls back and
// leaves the row untouched.
func (r *TransactionRepository) Mutate(ctx context.Context, l Lookup, fn func(tx *models.Transaction) error) (*models.Transaction, error) {
	var out models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		q := db.Clauses(clause.Locking{Strength: "UPDATE"})
		if l.PaymentID != "" {
			q = q.Where("payment_id = ?", l.PaymentID)
		} else {
			q = q.Where("id = ?", l.ID)
		}

		if err := q.First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if err := fn(&out); err != nil {
			return err
		}

		if err := db.Omit(clause.Associations).Save(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePaymentID
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StalePending returns ids of PENDING transactions created before cutoff
// that never received a payment id.
func (r *TransactionRepository) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ? AND payment_id IS NULL AND created_at < ?", models.StatusPending, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale transactions: %w", err)
	}
	return ids, nil
}

// Cursor marks the last row of a ProcessingBefore page. The zero Cursor
// starts from the oldest row.
type Cursor struct {
	ApprovedAt time.Time
	ID         string
}

// CursorOf returns the cursor that continues after tx.
func CursorOf(tx models.Transaction) Cursor {
	c := Cursor{ID: tx.ID}
	if tx.ApprovedAt != nil {
		c.ApprovedAt = *tx.ApprovedAt
	}
	return c
}

// ProcessingBefore returns PROCESSING transactions approved before cutoff,
// ordered by (approved_at, id) and starting after the given cursor.
func (r *TransactionRepository) ProcessingBefore(ctx context.Context, cutoff time.Time, after Cursor, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.db.WithContext(ctx).
		Where("status = ? AND payment_id IS NOT NULL AND approved_at < ?", models.StatusProcessing, cutoff)
	if after.ID != "" {
		q = q.Where("(approved_at > ? OR (approved_at = ? AND id > ?))", after.ApprovedAt, after.ApprovedAt, after.ID)
	}
	err := q.Order("approved_at ASC, id ASC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find processing transactions: %w", err)
	}
	return txs, nil
}

func (r *TransactionRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: map[models.TransactionStatus]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var rows []struct {
		Status models.TransactionStatus
		Count  int64
	}
	if err := db.Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalTransactions += row.Count
	}

	var sums struct {
		Usd decimal.NullDecimal
		Pi  decimal.NullDecimal
	}
	if err := db.Model(&models.Transaction{}).
		Select("SUM(usd_amount) AS usd, SUM(pi_amount) AS pi").
		Where("status = ?", models.StatusCompleted).
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("failed to sum completed volume: %w", err)
	}
	stats.CompletedUsd = sums.Usd.Decimal
	stats.CompletedPi = sums.Pi.Decimal

	return stats, nil
}

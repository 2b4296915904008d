// Package services holds the storefront business logic: pricing, order
// creation, the Pi payment handshake and authentication.
package services

import (
	"context"
	"errors"
	"time"

	"b4u/mailer"
	"b4u/models"
	"b4u/providers/pinetwork"
	"b4u/repository"

	"github.com/rs/zerolog/log"
)

var (
	ErrNoPendingTransaction = errors.New("no pending transaction found")
	ErrNotProcessing        = errors.New("transaction is not awaiting completion")
	ErrInvalidTransition    = errors.New("transaction status does not allow this action")
	ErrProfileRequired      = errors.New("game profile required for this package")
	ErrPackageUnavailable   = errors.New("package is not available")
	ErrAmountMismatch       = errors.New("payment amount does not match transaction")
	ErrTxidMismatch         = errors.New("transaction already completed with a different txid")
	ErrUpstream             = errors.New("pi network request failed")
)

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uint, page repository.Page) ([]models.Transaction, int64, error)
	Mutate(ctx context.Context, l repository.Lookup, fn func(tx *models.Transaction) error) (*models.Transaction, error)
	StalePending(ctx context.Context, cutoff time.Time) ([]string, error)
	ProcessingBefore(ctx context.Context, cutoff time.Time, after repository.Cursor, limit int) ([]models.Transaction, error)
}

type PackageCatalog interface {
	GetByID(ctx context.Context, id uint) (*models.Package, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// PiPayments is the server side of the Pi payment flow.
type PiPayments interface {
	GetPayment(ctx context.Context, paymentID string) (*pinetwork.Payment, error)
	Approve(ctx context.Context, paymentID string) (*pinetwork.Payment, error)
	Complete(ctx context.Context, paymentID, txid string) (*pinetwork.Payment, error)
	Cancel(ctx context.Context, paymentID string) (*pinetwork.Payment, error)
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o mailer.Order) error
	SendOrderCompleted(ctx context.Context, o mailer.Order) error
	SendAdminNewOrder(ctx context.Context, o mailer.Order) error
}

// Deliverer hands the purchased currency to the player's game account.
type Deliverer interface {
	Deliver(ctx context.Context, tx *models.Transaction, pkg *models.Package) error
}

// LogDeliverer only records the delivery; top-ups are fulfilled by hand.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(ctx context.Context, tx *models.Transaction, pkg *models.Package) error {
	log.Info().
		Str("transaction_id", tx.ID).
		Str("game", string(pkg.Game)).
		Int("quantity", pkg.Amount+pkg.Bonus).
		Str("unit", pkg.Game.Unit()).
		Str("game_account_id", tx.GameAccountID).
		Str("game_zone_id", tx.GameZoneID).
		Msg("🎮 delivering in-game currency")
	return nil
}

const sideEffectTimeout = 30 * time.Second

// dispatcher runs fire-and-forget side effects.
type dispatcher func(fn func(ctx context.Context))

func goDispatch(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func orderMail(tx *models.Transaction, pkg *models.Package, user *models.User) mailer.Order {
	o := mailer.Order{
		OrderID:       tx.ID,
		PiAmount:      tx.PiAmount,
		UsdAmount:     tx.UsdAmount,
		GameAccountID: tx.GameAccountID,
		GameZoneID:    tx.GameZoneID,
		Txid:          tx.Txid,
		Status:        tx.Status,
		CreatedAt:     tx.CreatedAt,
	}
	if pkg != nil {
		o.PackageName = pkg.Name
		o.Game = pkg.Game
		o.Quantity = pkg.Amount + pkg.Bonus
	}
	if user != nil {
		o.Username = user.Username
		o.Email = user.Email
	}
	return o
}

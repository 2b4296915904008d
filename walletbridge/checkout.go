package walletbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"b4u/providers/pinetwork"

	"github.com/rs/zerolog/log"
)

var ErrPaymentCancelled = errors.New("payment cancelled")

type Result struct {
	PaymentID   string
	Txid        string
	Transaction *Transaction
}

// Backend is the server half Checkout reports to.
type Backend interface {
	Approve(ctx context.Context, paymentID, transactionID string) (*Transaction, error)
	Complete(ctx context.Context, paymentID, txid string) (*Transaction, error)
	Cancel(ctx context.Context, paymentID, transactionID string) (*Transaction, error)
}

// Checkout runs one payment to the end: it creates the payment in the
// wallet, forwards approval and completion to the server and returns when
// the payment is completed, cancelled or failed.
func Checkout(ctx context.Context, wallet Wallet, server Backend, order *Order) (*Result, error) {
	transactionID := order.TransactionID()

	var once sync.Once
	done := make(chan struct{})
	var (
		result *Result
		failed error
	)
	finish := func(r *Result, err error) {
		once.Do(func() {
			result, failed = r, err
			close(done)
		})
	}

	cb := Callbacks{
		OnReadyForServerApproval: func(paymentID string) {
			if _, err := server.Approve(ctx, paymentID, transactionID); err != nil {
				finish(nil, fmt.Errorf("approve %s: %w", paymentID, err))
				return
			}
			log.Info().Str("payment_id", paymentID).Msg("[BRIDGE] payment approved")
		},
		OnReadyForServerCompletion: func(paymentID, txid string) {
			tx, err := server.Complete(ctx, paymentID, txid)
			if err != nil {
				finish(nil, fmt.Errorf("complete %s: %w", paymentID, err))
				return
			}
			finish(&Result{PaymentID: paymentID, Txid: txid, Transaction: tx}, nil)
		},
		OnCancel: func(paymentID string) {
			if _, err := server.Cancel(ctx, paymentID, transactionID); err != nil {
				log.Warn().Err(err).Str("payment_id", paymentID).Msg("[BRIDGE] failed to report cancel")
			}
			finish(nil, ErrPaymentCancelled)
		},
		OnError: func(err error, payment *pinetwork.Payment) {
			if err == nil {
				err = errors.New("wallet reported an unknown error")
			}
			finish(nil, err)
		},
	}

	if err := wallet.CreatePayment(ctx, order.Payment, cb); err != nil {
		return nil, err
	}

	select {
	case <-done:
		return result, failed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IncompleteResolver settles payments handed back by Authenticate.
type IncompleteResolver interface {
	Incomplete(ctx context.Context, paymentID, txid string) (*Transaction, error)
}

// ResolveIncomplete returns an onIncomplete callback that forwards the
// payment to the server and logs the outcome.
func ResolveIncomplete(ctx context.Context, server IncompleteResolver) func(p pinetwork.Payment) {
	return func(p pinetwork.Payment) {
		tx, err := server.Incomplete(ctx, p.Identifier, p.Txid())
		if err != nil {
			log.Warn().Err(err).Str("payment_id", p.Identifier).Msg("[BRIDGE] failed to resolve incomplete payment")
			return
		}
		log.Info().Str("payment_id", p.Identifier).Str("status", tx.Status).Msg("[BRIDGE] incomplete payment resolved")
	}
}

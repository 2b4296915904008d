package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"b4u/models"
	"b4u/providers/pinetwork"
	"b4u/repository"

	"github.com/rs/zerolog/log"
)

// PaymentService drives the wallet SDK handshake: approve moves a PENDING
// transaction to PROCESSING, complete moves it to COMPLETED or FAILED.
type PaymentService struct {
	store     TransactionStore
	packages  PackageCatalog
	users     UserDirectory
	pi        PiPayments
	notifier  Notifier
	deliverer Deliverer
	dispatch  dispatcher
	now       func() time.Time
}

func NewPaymentService(store TransactionStore, packages PackageCatalog, users UserDirectory, pi PiPayments, notifier Notifier, deliverer Deliverer) *PaymentService {
	return &PaymentService{
		store:     store,
		packages:  packages,
		users:     users,
		pi:        pi,
		notifier:  notifier,
		deliverer: deliverer,
		dispatch:  goDispatch,
		now:       time.Now,
	}
}

// Approve attaches paymentID to its transaction and approves it with Pi
// Network. userID 0 skips the ownership check (SDK callbacks may arrive
// without a session).
func (s *PaymentService) Approve(ctx context.Context, userID uint, paymentID, transactionID string) (*models.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, ErrNoPendingTransaction
	}

	existing, err := s.store.GetByPaymentID(ctx, paymentID)
	switch {
	case err == nil:
		if existing.Status == models.StatusProcessing || existing.Status == models.StatusCompleted {
			log.Info().Str("payment_id", paymentID).Str("transaction_id", existing.ID).Msg("payment already approved")
			return existing, nil
		}
		if existing.Status != models.StatusPending {
			return nil, ErrInvalidTransition
		}
		transactionID = existing.ID
	case errors.Is(err, repository.ErrTransactionNotFound):
	default:
		return nil, err
	}

	payment, err := s.pi.GetPayment(ctx, paymentID)
	if err != nil && !errors.Is(err, pinetwork.ErrPaymentNotFound) {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to fetch pi payment")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if payment != nil {
		if meta := payment.TransactionID(); meta != "" {
			if transactionID != "" && transactionID != meta {
				log.Warn().Str("payment_id", paymentID).Str("transaction_id", transactionID).Str("metadata_transaction_id", meta).Msg("payment metadata points at another transaction")
				return nil, ErrNoPendingTransaction
			}
			transactionID = meta
		}
	}
	if transactionID == "" {
		log.Warn().Str("payment_id", paymentID).Msg("no transaction matches payment")
		return nil, ErrNoPendingTransaction
	}

	tx, err := s.store.Mutate(ctx, repository.ByID(transactionID), func(tx *models.Transaction) error {
		if userID != 0 && tx.UserID != userID {
			return ErrNoPendingTransaction
		}
		if tx.Status != models.StatusPending {
			return ErrNoPendingTransaction
		}
		if tx.PaymentID != nil && *tx.PaymentID != paymentID {
			return ErrNoPendingTransaction
		}
		if payment != nil && !payment.Amount.IsZero() && !payment.Amount.Equal(tx.PiAmount) {
			return ErrAmountMismatch
		}

		if _, err := s.pi.Approve(ctx, paymentID); err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		now := s.now()
		pid := paymentID
		tx.PaymentID = &pid
		tx.Status = models.StatusProcessing
		tx.ApprovedAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrNoPendingTransaction
		}
		log.Error().Err(err).Str("payment_id", paymentID).Str("transaction_id", transactionID).Msg("❌ payment approval failed")
		return nil, err
	}

	log.Info().Str("payment_id", paymentID).Str("transaction_id", tx.ID).Msg("✅ payment approved")
	return tx, nil
}

// Complete records the blockchain txid and finishes the payment with Pi
// Network. A repeated call with the same txid returns the completed
// transaction without delivering or mailing again.
func (s *PaymentService) Complete(ctx context.Context, userID uint, paymentID, txid string) (*models.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	txid = strings.TrimSpace(txid)
	if paymentID == "" {
		return nil, repository.ErrTransactionNotFound
	}

	var (
		already bool
		piErr   error
	)
	tx, err := s.store.Mutate(ctx, repository.ByPaymentID(paymentID), func(tx *models.Transaction) error {
		if userID != 0 && tx.UserID != userID {
			return repository.ErrTransactionNotFound
		}
		if tx.Status == models.StatusCompleted {
			if tx.Txid != "" && txid != "" && tx.Txid != txid {
				return ErrTxidMismatch
			}
			already = true
			return nil
		}
		if tx.Status != models.StatusProcessing {
			return ErrNotProcessing
		}

		if _, err := s.pi.Complete(ctx, paymentID, txid); err != nil {
			piErr = err
			tx.Status = models.StatusFailed
			tx.ErrorMessage = err.Error()
			tx.Txid = txid
			return nil
		}

		now := s.now()
		tx.Status = models.StatusCompleted
		tx.Txid = txid
		tx.CompletedAt = &now
		tx.ErrorMessage = ""
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrTransactionNotFound) {
			log.Warn().Err(err).Str("payment_id", paymentID).Msg("payment completion rejected")
		}
		return nil, err
	}
	if piErr != nil {
		log.Error().Err(piErr).Str("payment_id", paymentID).Str("transaction_id", tx.ID).Msg("❌ pi completion failed, transaction marked FAILED")
		return tx, fmt.Errorf("%w: %v", ErrUpstream, piErr)
	}
	if already {
		log.Info().Str("payment_id", paymentID).Str("transaction_id", tx.ID).Msg("payment already completed")
		return tx, nil
	}

	log.Info().Str("payment_id", paymentID).Str("transaction_id", tx.ID).Str("txid", txid).Msg("✅ payment completed")
	s.fulfil(ctx, tx)
	return tx, nil
}

// fulfil runs delivery and the completion email. Failures are logged only.
func (s *PaymentService) fulfil(ctx context.Context, tx *models.Transaction) {
	pkg, err := s.packages.GetByID(ctx, tx.PackageID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", tx.ID).Msg("failed to load package for delivery")
		return
	}
	tx.Package = pkg

	if err := s.deliverer.Deliver(ctx, tx, pkg); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.ID).Msg("delivery failed")
	} else {
		delivered, err := s.store.Mutate(ctx, repository.ByID(tx.ID), func(t *models.Transaction) error {
			now := s.now()
			t.DeliveredAt = &now
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("failed to stamp delivery")
		} else {
			tx.DeliveredAt = delivered.DeliveredAt
		}
	}

	user, err := s.users.GetByID(ctx, tx.UserID)
	if err != nil {
		log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("failed to load user for completion email")
		return
	}
	if user.Email == "" {
		return
	}
	mail := orderMail(tx, pkg, user)
	s.dispatch(func(ctx context.Context) {
		if err := s.notifier.SendOrderCompleted(ctx, mail); err != nil {
			log.Error().Err(err).Str("transaction_id", mail.OrderID).Msg("failed to send completion email")
		}
	})
}

// Incomplete settles a payment the wallet SDK reports as unfinished from an
// earlier session. A PROCESSING transaction with a txid is completed; one
// without a txid, or still PENDING, is cancelled. Terminal ones are left alone.
func (s *PaymentService) Incomplete(ctx context.Context, userID uint, paymentID, txid string) (*models.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	txid = strings.TrimSpace(txid)

	tx, err := s.store.GetByPaymentID(ctx, paymentID)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		if payment, perr := s.pi.GetPayment(ctx, paymentID); perr == nil && payment.TransactionID() != "" {
			tx, err = s.store.GetByID(ctx, payment.TransactionID())
			if txid == "" {
				txid = payment.Txid()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if userID != 0 && tx.UserID != userID {
		return nil, repository.ErrTransactionNotFound
	}

	if txid == "" && tx.Status == models.StatusProcessing {
		if payment, perr := s.pi.GetPayment(ctx, paymentID); perr == nil {
			txid = payment.Txid()
		}
	}

	switch {
	case tx.Status.Terminal():
		return tx, nil
	case tx.Status == models.StatusProcessing && txid != "":
		return s.Complete(ctx, userID, paymentID, txid)
	default:
		return s.cancel(ctx, repository.ByID(tx.ID), 0, paymentID, "abandoned payment")
	}
}

// Cancel handles the SDK's onCancel. The transaction is found by payment id
// or, before approval, by its own id.
func (s *PaymentService) Cancel(ctx context.Context, userID uint, paymentID, transactionID string) (*models.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	transactionID = strings.TrimSpace(transactionID)

	if paymentID != "" {
		tx, err := s.cancel(ctx, repository.ByPaymentID(paymentID), userID, "", "cancelled by user")
		if err == nil || !errors.Is(err, repository.ErrTransactionNotFound) || transactionID == "" {
			return tx, err
		}
	}
	if transactionID == "" {
		return nil, repository.ErrTransactionNotFound
	}
	return s.cancel(ctx, repository.ByID(transactionID), userID, "", "cancelled by user")
}

// AdminCancel cancels any non-terminal transaction and tells Pi Network when
// a payment was already attached.
func (s *PaymentService) AdminCancel(ctx context.Context, transactionID string) (*models.Transaction, error) {
	tx, err := s.cancel(ctx, repository.ByID(transactionID), 0, "", "cancelled by admin")
	if err != nil {
		return nil, err
	}
	if tx.PaymentID != nil {
		if _, err := s.pi.Cancel(ctx, *tx.PaymentID); err != nil {
			log.Warn().Err(err).Str("payment_id", *tx.PaymentID).Msg("failed to cancel pi payment")
		}
	}
	return tx, nil
}

func (s *PaymentService) cancel(ctx context.Context, l repository.Lookup, userID uint, piPaymentID, reason string) (*models.Transaction, error) {
	tx, err := s.store.Mutate(ctx, l, func(tx *models.Transaction) error {
		if userID != 0 && tx.UserID != userID {
			return repository.ErrTransactionNotFound
		}
		if tx.Status == models.StatusCancelled {
			return nil
		}
		if !tx.Status.CanTransition(models.StatusCancelled) {
			return ErrInvalidTransition
		}
		if piPaymentID != "" && tx.Status == models.StatusProcessing {
			if _, err := s.pi.Cancel(ctx, piPaymentID); err != nil {
				log.Warn().Err(err).Str("payment_id", piPaymentID).Msg("failed to cancel pi payment")
			}
		}

		now := s.now()
		tx.Status = models.StatusCancelled
		tx.CancelledAt = &now
		tx.ErrorMessage = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("transaction_id", tx.ID).Str("reason", reason).Msg("transaction cancelled")
	return tx, nil
}

// ExpireStale cancels PENDING transactions created before cutoff that never
// got a payment id and returns how many were cancelled.
func (s *PaymentService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.store.StalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, id := range ids {
		_, err := s.store.Mutate(ctx, repository.ByID(id), func(tx *models.Transaction) error {
			if tx.Status != models.StatusPending || tx.PaymentID != nil {
				return ErrInvalidTransition
			}
			now := s.now()
			tx.Status = models.StatusCancelled
			tx.CancelledAt = &now
			tx.ErrorMessage = "expired"
			return nil
		})
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				log.Warn().Err(err).Str("transaction_id", id).Msg("failed to expire transaction")
			}
			continue
		}
		n++
	}
	return n, nil
}

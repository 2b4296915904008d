package services

import (
	"context"
	"time"

	"b4u/models"
	"b4u/repository"

	"github.com/rs/zerolog/log"
)

const reconcileBatch = 50

// Reconcile asks Pi Network about PROCESSING transactions approved before
// cutoff whose completion callback never arrived. Payments that reached the
// chain are completed; payments cancelled on Pi's side are cancelled here.
// Rows Pi still reports as open are skipped and the scan pages past them.
// It returns how many transactions changed.
func (s *PaymentService) Reconcile(ctx context.Context, cutoff time.Time) (int, error) {
	var (
		after repository.Cursor
		n     int
	)
	for {
		txs, err := s.store.ProcessingBefore(ctx, cutoff, after, reconcileBatch)
		if err != nil {
			return n, err
		}
		for _, tx := range txs {
			if s.reconcileOne(ctx, tx) {
				n++
			}
		}
		if len(txs) < reconcileBatch {
			break
		}
		after = repository.CursorOf(txs[len(txs)-1])
		if err := ctx.Err(); err != nil {
			return n, err
		}
	}

	if n > 0 {
		log.Info().Int("count", n).Msg("reconciled processing transactions")
	}
	return n, nil
}

func (s *PaymentService) reconcileOne(ctx context.Context, tx models.Transaction) bool {
	pid := *tx.PaymentID

	payment, err := s.pi.GetPayment(ctx, pid)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", pid).Msg("reconcile: failed to fetch pi payment")
		return false
	}

	switch {
	case payment.Status.Cancelled || payment.Status.UserCancelled:
		if _, err := s.cancel(ctx, repository.ByPaymentID(pid), 0, "", "cancelled on pi network"); err != nil {
			log.Warn().Err(err).Str("payment_id", pid).Msg("reconcile: failed to cancel transaction")
			return false
		}
	case payment.Txid() != "":
		if _, err := s.Complete(ctx, 0, pid, payment.Txid()); err != nil {
			log.Warn().Err(err).Str("payment_id", pid).Msg("reconcile: failed to complete transaction")
			return false
		}
	default:
		return false
	}
	return true
}

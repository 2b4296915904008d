package pinetwork

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog/log"
)

// Offline stands in for the platform API when no API key is configured, so
// the mock wallet can drive the full flow locally. Approve, Complete and
// Cancel always succeed; GetPayment reports the payment as unknown.
type Offline struct{}

func (Offline) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	return nil, ErrPaymentNotFound
}

func (Offline) Approve(ctx context.Context, paymentID string) (*Payment, error) {
	log.Warn().Str("payment_id", paymentID).Msg("[PI] offline mode: approval not sent to Pi Network")
	p := &Payment{Identifier: paymentID}
	p.Status.DeveloperApproved = true
	return p, nil
}

func (Offline) Complete(ctx context.Context, paymentID, txid string) (*Payment, error) {
	log.Warn().Str("payment_id", paymentID).Str("txid", txid).Msg("[PI] offline mode: completion not sent to Pi Network")
	p := &Payment{Identifier: paymentID, Transaction: &PaymentTransaction{Txid: txid, Verified: true}}
	p.Status.DeveloperApproved = true
	p.Status.TransactionVerified = true
	p.Status.DeveloperCompleted = true
	return p, nil
}

func (Offline) Cancel(ctx context.Context, paymentID string) (*Payment, error) {
	p := &Payment{Identifier: paymentID}
	p.Status.Cancelled = true
	return p, nil
}

// Me derives a stable fake Pioneer from the token.
func (Offline) Me(ctx context.Context, accessToken string) (*Me, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}
	sum := sha256.Sum256([]byte(accessToken))
	uid := "offline-" + hex.EncodeToString(sum[:8])
	return &Me{UID: uid, Username: "pioneer_" + uid[len(uid)-6:]}, nil
}

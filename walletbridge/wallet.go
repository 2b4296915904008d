// Package walletbridge wraps the Pi wallet's callback-driven payment API
// behind blocking Go calls and ships a mock wallet for local development.
package walletbridge

import (
	"context"
	"encoding/json"

	"b4u/providers/pinetwork"

	"github.com/shopspring/decimal"
)

// PaymentData is what createPayment receives.
type PaymentData struct {
	Amount   decimal.Decimal `json:"amount"`
	Memo     string          `json:"memo"`
	Metadata json.RawMessage `json:"metadata"`
}

// Callbacks are the four hooks the wallet invokes while a payment runs.
// The wallet waits for OnReadyForServerApproval to return before it lets the
// user sign the transaction.
type Callbacks struct {
	OnReadyForServerApproval   func(paymentID string)
	OnReadyForServerCompletion func(paymentID, txid string)
	OnCancel                   func(paymentID string)
	OnError                    func(err error, payment *pinetwork.Payment)
}

type AuthUser struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

type AuthResult struct {
	AccessToken string   `json:"accessToken"`
	User        AuthUser `json:"user"`
}

type Wallet interface {
	// Authenticate signs the Pioneer in. onIncomplete is called for a payment
	// left unfinished by an earlier session before Authenticate returns.
	Authenticate(ctx context.Context, scopes []string, onIncomplete func(p pinetwork.Payment)) (*AuthResult, error)
	// CreatePayment starts a payment and returns once it has been handed to
	// the wallet; progress is reported through cb.
	CreatePayment(ctx context.Context, data PaymentData, cb Callbacks) error
}

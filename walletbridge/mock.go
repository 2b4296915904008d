package walletbridge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"b4u/providers/pinetwork"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultApprovalDelay   = time.Second
	DefaultCompletionDelay = 3 * time.Second
)

// MockWallet fabricates payments for local development. Approval is
// requested ApprovalDelay after CreatePayment and completion
// CompletionDelay after it, with a fabricated txid.
type MockWallet struct {
	ApprovalDelay   time.Duration
	CompletionDelay time.Duration
	Username        string
	// Incomplete is replayed to onIncomplete on Authenticate.
	Incomplete []pinetwork.Payment
	// CancelAfterApproval makes the Pioneer back out instead of signing.
	CancelAfterApproval bool
}

func NewMockWallet() *MockWallet {
	return &MockWallet{
		ApprovalDelay:   DefaultApprovalDelay,
		CompletionDelay: DefaultCompletionDelay,
		Username:        "mock_pioneer",
	}
}

func (m *MockWallet) Authenticate(ctx context.Context, scopes []string, onIncomplete func(p pinetwork.Payment)) (*AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onIncomplete != nil {
		for _, p := range m.Incomplete {
			onIncomplete(p)
		}
	}
	return &AuthResult{
		AccessToken: "mock-token-" + m.Username,
		User:        AuthUser{UID: "mock-" + m.Username, Username: m.Username},
	}, nil
}

func (m *MockWallet) CreatePayment(ctx context.Context, data PaymentData, cb Callbacks) error {
	if !data.Amount.IsPositive() {
		return errors.New("payment amount must be positive")
	}
	paymentID := "mock_payment_" + uuid.New().String()
	log.Info().Str("payment_id", paymentID).Str("amount", data.Amount.String()).Msg("🧪 mock wallet payment created")

	go m.run(ctx, paymentID, cb)
	return nil
}

func (m *MockWallet) run(ctx context.Context, paymentID string, cb Callbacks) {
	start := time.Now()

	if !sleep(ctx, m.ApprovalDelay) {
		m.fail(cb, ctx.Err(), paymentID)
		return
	}
	if cb.OnReadyForServerApproval != nil {
		cb.OnReadyForServerApproval(paymentID)
	}

	if m.CancelAfterApproval {
		if cb.OnCancel != nil {
			cb.OnCancel(paymentID)
		}
		return
	}

	if !sleep(ctx, m.CompletionDelay-time.Since(start)) {
		m.fail(cb, ctx.Err(), paymentID)
		return
	}
	if cb.OnReadyForServerCompletion != nil {
		cb.OnReadyForServerCompletion(paymentID, fakeTxid())
	}
}

func (m *MockWallet) fail(cb Callbacks, err error, paymentID string) {
	if cb.OnError != nil {
		cb.OnError(err, &pinetwork.Payment{Identifier: paymentID})
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func fakeTxid() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "mock_tx_" + uuid.New().String()
	}
	return hex.EncodeToString(b)
}

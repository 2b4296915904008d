package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"b4u/config"
	"b4u/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	messages []*gomail.Message
	err      error
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, m...)
	return nil
}

func sampleOrder() Order {
	return Order{
		OrderID:       "tx-1",
		Username:      "alice",
		Email:         "alice@example.com",
		PackageName:   "325 UC",
		Game:          models.GamePUBG,
		Quantity:      325,
		PiAmount:      decimal.RequireFromString("9.98"),
		UsdAmount:     decimal.RequireFromString("4.99"),
		GameAccountID: "5123456789",
		Txid:          "abc123",
		Status:        models.StatusCompleted,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
}

func TestSendOrderCompleted(t *testing.T) {
	sender := &recordingSender{}
	m := NewWithSender(sender, "shop@example.com", "admin@example.com")

	require.NoError(t, m.SendOrderCompleted(context.Background(), sampleOrder()))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Order completed: 325 UC"}, msg.GetHeader("Subject"))
}

func TestSendAdminNewOrder(t *testing.T) {
	sender := &recordingSender{}

	require.NoError(t, NewWithSender(sender, "shop@example.com", "").SendAdminNewOrder(context.Background(), sampleOrder()))
	assert.Empty(t, sender.messages)

	require.NoError(t, NewWithSender(sender, "shop@example.com", "admin@example.com").SendAdminNewOrder(context.Background(), sampleOrder()))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, []string{"admin@example.com"}, sender.messages[0].GetHeader("To"))
}

func TestSend_Errors(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	m := NewWithSender(sender, "shop@example.com", "")

	o := sampleOrder()
	assert.Error(t, m.SendOrderConfirmation(context.Background(), o))

	o.Email = ""
	assert.ErrorIs(t, m.SendOrderConfirmation(context.Background(), o), ErrNoRecipient)
}

func TestDisabledMailerDoesNotDial(t *testing.T) {
	m := New(config.SMTPConfig{Enabled: false, Host: "smtp.example.com", Port: 587})
	sender := &recordingSender{err: errors.New("must not be called")}
	m.sender = sender

	assert.NoError(t, m.SendOrderConfirmation(context.Background(), sampleOrder()))
}

func TestTemplatesRender(t *testing.T) {
	for _, name := range []string{"order_confirmation.html", "order_completed.html", "admin_new_order.html"} {
		var buf bytes.Buffer
		require.NoError(t, templates.ExecuteTemplate(&buf, name, sampleOrder()), name)
		assert.Contains(t, buf.String(), "tx-1", name)
		assert.Contains(t, buf.String(), "5123456789", name)
	}
}

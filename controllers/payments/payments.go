package payments

import (
	"context"

	"b4u/helpers"
	"b4u/middlewares"
	"b4u/models"

	"github.com/gofiber/fiber/v2"
)

// Handshake is the server half of the wallet SDK payment callbacks.
type Handshake interface {
	Approve(ctx context.Context, userID uint, paymentID, transactionID string) (*models.Transaction, error)
	Complete(ctx context.Context, userID uint, paymentID, txid string) (*models.Transaction, error)
	Incomplete(ctx context.Context, userID uint, paymentID, txid string) (*models.Transaction, error)
	Cancel(ctx context.Context, userID uint, paymentID, transactionID string) (*models.Transaction, error)
}

type ApproveRequest struct {
	PaymentID     string `json:"paymentId" validate:"required,max=128,pi_id"`
	TransactionID string `json:"transactionId" validate:"omitempty,uuid"`
}

// Approve answers onReadyForServerApproval.
func Approve(h Handshake) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ApproveRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		tx, err := h.Approve(c.UserContext(), middlewares.UserID(c), req.PaymentID, req.TransactionID)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Payment approved", tx)
	}
}

type CompleteRequest struct {
	PaymentID string `json:"paymentId" validate:"required,max=128,pi_id"`
	Txid      string `json:"txid" validate:"required,max=128,pi_id"`
}

// Complete answers onReadyForServerCompletion.
func Complete(h Handshake) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CompleteRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		tx, err := h.Complete(c.UserContext(), middlewares.UserID(c), req.PaymentID, req.Txid)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Payment completed", tx)
	}
}

type IncompleteRequest struct {
	PaymentID string `json:"paymentId" validate:"required,max=128,pi_id"`
	Txid      string `json:"txid" validate:"omitempty,max=128,pi_id"`
}

// Incomplete answers the incomplete-payment callback raised during
// authentication.
func Incomplete(h Handshake) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req IncompleteRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		tx, err := h.Incomplete(c.UserContext(), middlewares.UserID(c), req.PaymentID, req.Txid)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Incomplete payment resolved", tx)
	}
}

type CancelRequest struct {
	PaymentID     string `json:"paymentId" validate:"required_without=TransactionID,max=128,pi_id"`
	TransactionID string `json:"transactionId" validate:"omitempty,uuid"`
}

func Cancel(h Handshake) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CancelRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		tx, err := h.Cancel(c.UserContext(), middlewares.UserID(c), req.PaymentID, req.TransactionID)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Payment cancelled", tx)
	}
}

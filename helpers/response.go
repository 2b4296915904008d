package helpers

import (
	"errors"

	"b4u/repository"
	"b4u/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return JSONStatus(c, fiber.StatusOK, message, data)
}

func JSONCreated(c *fiber.Ctx, message string, data any) error {
	return JSONStatus(c, fiber.StatusCreated, message, data)
}

func JSONStatus(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"success": true,
		"data":    data,
	}
	if message != "" {
		body["message"] = message
	}
	return c.Status(status).JSON(body)
}

func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// JSONPage wraps a paginated list.
func JSONPage(c *fiber.Ctx, items any, total int64, page repository.Page) error {
	return JSONSuccess(c, "", fiber.Map{
		"items": items,
		"total": total,
		"page":  page.Number(),
		"limit": page.Size(),
	})
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{services.ErrNoPendingTransaction, fiber.StatusNotFound, "No pending transaction found"},
	{services.ErrNotProcessing, fiber.StatusNotFound, "Transaction not found or not awaiting completion"},
	{repository.ErrTransactionNotFound, fiber.StatusNotFound, "Transaction not found"},
	{repository.ErrPackageNotFound, fiber.StatusNotFound, "Package not found"},
	{repository.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{repository.ErrSettingNotFound, fiber.StatusNotFound, "Setting not found"},
	{services.ErrUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid username or password"},
	{services.ErrProfileRequired, fiber.StatusBadRequest, "Game profile required for this package"},
	{services.ErrPackageUnavailable, fiber.StatusBadRequest, "Package is not available"},
	{services.ErrAmountMismatch, fiber.StatusBadRequest, "Payment amount does not match transaction"},
	{services.ErrInvalidTransition, fiber.StatusConflict, "Transaction status does not allow this action"},
	{services.ErrTxidMismatch, fiber.StatusConflict, "Transaction already completed with a different txid"},
	{repository.ErrDuplicatePaymentID, fiber.StatusConflict, "Payment already attached to another transaction"},
	{services.ErrUpstream, fiber.StatusBadGateway, "Pi Network request failed"},
}

// StatusFor maps a service or repository error to an HTTP status and a
// client-facing message.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// Fail answers with the envelope for err. Validation errors carry field
// details; unknown errors are logged and hidden.
func Fail(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Validation failed",
			"fields":  FieldErrors(verrs),
		})
	}
	if errors.Is(err, ErrInvalidJSON) {
		return JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	status, message := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return JSONError(c, status, message)
}

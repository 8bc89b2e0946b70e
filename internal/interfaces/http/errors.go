package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/application/session"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// El orden importa: ErrStorage al final porque un fallo de backend nunca envuelve otro error de dominio.
var errorTable = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrUnknownProduct, fiber.StatusBadRequest, "UNKNOWN_PRODUCT"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrEmptyCart, fiber.StatusUnprocessableEntity, "EMPTY_CART"},
	{domain.ErrNoActiveSession, fiber.StatusConflict, "NO_SESSION"},
	{domain.ErrSessionBusy, fiber.StatusConflict, "SESSION_BUSY"},
	{domain.ErrCheckoutInProgress, fiber.StatusConflict, "CHECKOUT_IN_PROGRESS"},
	{domain.ErrIngestBacklog, fiber.StatusServiceUnavailable, "INGEST_BACKLOG"},
	{session.ErrStopped, fiber.StatusServiceUnavailable, "SESSION_STOPPED"},
	{domain.ErrStorage, fiber.StatusServiceUnavailable, "STORAGE"},
}

// statusFor traduce un error de dominio a status HTTP y código.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde {code, message}. Los errores de almacenamiento no exponen la causa del driver.
func writeError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrStorage):
		msg = domain.ErrStorage.Error()
	case status == fiber.StatusInternalServerError:
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

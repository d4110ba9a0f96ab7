package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

// fail maps a domain error onto an HTTP status and the structured
// {status, message} body every route returns.
func fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAccountType),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDeposit):
		code = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrOverLimit),
		errors.Is(err, domain.ErrNonZeroBalance),
		errors.Is(err, domain.ErrHasActiveObligations),
		errors.Is(err, domain.ErrDepositFailed):
		code = fiber.StatusConflict
	}
	return c.Status(code).JSON(fiber.Map{"status": "error", "message": err.Error()})
}

func ok(c *fiber.Ctx, message string, extra fiber.Map) error {
	body := fiber.Map{"status": "success", "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(body)
}

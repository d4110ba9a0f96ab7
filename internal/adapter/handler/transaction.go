package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/ledger"
)

type TransactionHandler struct {
	Ledger *ledger.Engine
}

type MoveMoneyRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

type TransferRequest struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Amount string `json:"amount"`
}

func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	var req MoveMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fail(c, domain.ErrInvalidAmount)
	}

	acc, err := h.Ledger.Deposit(c.Context(), req.AccountID, amount)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "deposit complete", fiber.Map{"balance": acc.Balance.StringFixed(2)})
}

func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	var req MoveMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fail(c, domain.ErrInvalidAmount)
	}

	acc, err := h.Ledger.Withdraw(c.Context(), req.AccountID, amount)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "withdrawal complete", fiber.Map{"balance": acc.Balance.StringFixed(2)})
}

func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fail(c, domain.ErrInvalidAmount)
	}

	if err := h.Ledger.Transfer(c.Context(), req.FromID, req.ToID, amount); err != nil {
		return fail(c, err)
	}
	return ok(c, "transfer complete", nil)
}

func (h *TransactionHandler) GetHistory(c *fiber.Ctx) error {
	history, err := h.Ledger.Activity(c.Context(), c.Params("id"), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err)
	}

	items := make([]fiber.Map, 0, len(history))
	for _, t := range history {
		items = append(items, fiber.Map{
			"id":     t.ID,
			"type":   t.Type,
			"amount": t.Amount.StringFixed(2),
			"date":   t.Date,
		})
	}
	return ok(c, "history", fiber.Map{"transactions": items})
}

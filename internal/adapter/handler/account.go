package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/lifecycle"
)

type AccountHandler struct {
	Lifecycle *lifecycle.Engine
}

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	APRTier int    `json:"apr_tier"`
}

func (h *AccountHandler) CreateCustomer(c *fiber.Ctx) error {
	var req CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}

	customer, err := h.Lifecycle.CreateCustomer(c.Context(), req.Name, req.APRTier)
	if err != nil {
		return fail(c, err)
	}
	slog.Info("customer created", "id", customer.ID, "tier", customer.APRTier)
	return ok(c, "customer created", fiber.Map{"customer": customer})
}

type OpenAccountRequest struct {
	CustomerID     string `json:"customer_id"`
	AccountType    string `json:"account_type"`
	InitialDeposit string `json:"initial_deposit"`
}

func (h *AccountHandler) OpenStandardAccount(c *fiber.Ctx) error {
	var req OpenAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}

	deposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		if deposit, err = decimal.NewFromString(req.InitialDeposit); err != nil {
			return fail(c, domain.ErrInvalidDeposit)
		}
	}

	acc, err := h.Lifecycle.OpenStandardAccount(c.Context(), req.CustomerID,
		domain.AccountType(req.AccountType), deposit)
	if err != nil {
		return fail(c, err)
	}
	slog.Info("account opened", "id", acc.ID, "type", acc.Type)
	return ok(c, "account opened", fiber.Map{"account": accountView(acc)})
}

type OpenCreditCardRequest struct {
	CustomerID string `json:"customer_id"`
}

func (h *AccountHandler) OpenCreditCard(c *fiber.Ctx) error {
	var req OpenCreditCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}

	acc, err := h.Lifecycle.OpenCreditCardAccount(c.Context(), req.CustomerID)
	if err != nil {
		return fail(c, err)
	}
	slog.Info("credit card opened", "id", acc.ID, "apr", acc.APR.Decimal.StringFixed(2))
	return ok(c, "credit card opened", fiber.Map{"account": accountView(acc)})
}

type OpenMortgageRequest struct {
	CustomerID string `json:"customer_id"`
	LoanAmount string `json:"loan_amount"`
	TermYears  int    `json:"term_years"`
}

func (h *AccountHandler) OpenMortgage(c *fiber.Ctx) error {
	var req OpenMortgageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.LoanAmount)
	if err != nil {
		return fail(c, domain.ErrInvalidAmount)
	}

	acc, bill, err := h.Lifecycle.OpenMortgageLoan(c.Context(), req.CustomerID, amount, req.TermYears)
	if err != nil {
		return fail(c, err)
	}
	slog.Info("mortgage opened", "id", acc.ID, "payment", bill.Amount.StringFixed(2))
	return ok(c, "mortgage opened", fiber.Map{
		"account":    accountView(acc),
		"first_bill": billView(bill),
	})
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	customerID := c.Query("customer_id")
	if err := h.Lifecycle.DeleteAccount(c.Context(), customerID, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, "account deleted", nil)
}

func (h *AccountHandler) DeleteCustomer(c *fiber.Ctx) error {
	if err := h.Lifecycle.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, "customer deleted", nil)
}

func accountView(a domain.Account) fiber.Map {
	view := fiber.Map{
		"id":          a.ID,
		"customer_id": a.CustomerID,
		"type":        a.Type,
		"balance":     a.Balance.StringFixed(2),
		"date_opened": a.DateOpened,
	}
	if a.CreditLimit.Valid {
		view["credit_limit"] = a.CreditLimit.Decimal.StringFixed(2)
	}
	if a.APR.Valid {
		view["apr"] = a.APR.Decimal.StringFixed(2)
	}
	return view
}

func billView(b domain.Bill) fiber.Map {
	return fiber.Map{
		"id":             b.ID,
		"customer_id":    b.CustomerID,
		"payee_name":     b.PayeeName,
		"amount":         b.Amount.StringFixed(2),
		"due_date":       b.DueDate.Format("2006-01-02"),
		"payment_acc_id": b.PaymentAccID,
		"min_payment":    b.MinPayment.StringFixed(2),
		"status":         b.Status,
		"recurring":      b.Recurring,
	}
}

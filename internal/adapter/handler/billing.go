package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/billing"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/worker"
)

type BillingHandler struct {
	Billing   *billing.Engine
	Scheduler *worker.Scheduler
}

type ScheduleBillRequest struct {
	CustomerID   string `json:"customer_id"`
	PayeeName    string `json:"payee_name"`
	PayeeAddress string `json:"payee_address"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date"` // YYYY-MM-DD
	PaymentAccID string `json:"payment_acc_id"`
	MinPayment   string `json:"min_payment"`
	Recurring    bool   `json:"recurring"`
}

func (h *BillingHandler) ScheduleBill(c *fiber.Ctx) error {
	var req ScheduleBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fail(c, domain.ErrInvalidAmount)
	}
	minPayment := decimal.Zero
	if req.MinPayment != "" {
		if minPayment, err = decimal.NewFromString(req.MinPayment); err != nil {
			return fail(c, domain.ErrInvalidAmount)
		}
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "due_date must be YYYY-MM-DD"})
	}

	bill, err := h.Billing.ScheduleBillPayment(c.Context(), billing.InputScheduleBill{
		CustomerID:   req.CustomerID,
		PayeeName:    req.PayeeName,
		PayeeAddress: req.PayeeAddress,
		Amount:       amount,
		DueDate:      dueDate,
		PaymentAccID: req.PaymentAccID,
		MinPayment:   minPayment,
		Recurring:    req.Recurring,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "bill scheduled", fiber.Map{"bill": billView(bill)})
}

type ArchiveRequest struct {
	Kind string `json:"kind"` // "bill" or "loan"
	ID   string `json:"id"`
}

func (h *BillingHandler) Archive(c *fiber.Ctx) error {
	var req ArchiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid request body"})
	}
	if err := h.Billing.Archive(c.Context(), billing.ArchiveKind(req.Kind), req.ID); err != nil {
		return fail(c, err)
	}
	return ok(c, "archived", nil)
}

func (h *BillingHandler) GetArchives(c *fiber.Ctx) error {
	archives, err := h.Billing.ArchivedForCustomer(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "archives", fiber.Map{"archives": archives})
}

// RunJob triggers one scheduled job by name, outside its normal cadence.
func (h *BillingHandler) RunJob(c *fiber.Ctx) error {
	outcomes, err := h.Scheduler.RunNow(c.Context(), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "job complete", fiber.Map{"outcomes": outcomes})
}

func (h *BillingHandler) ListJobs(c *fiber.Ctx) error {
	return ok(c, "jobs", fiber.Map{"jobs": h.Scheduler.Jobs()})
}

package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/handler"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/storage"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/billing"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/config"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/interest"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/ledger"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/lifecycle"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("database open failed", "error", err)
		os.Exit(1)
	}

	clock := time.Now

	ledgerEngine, err := ledger.New(ledger.Config{Store: store, Clock: clock})
	if err != nil {
		slog.Error("ledger setup failed", "error", err)
		os.Exit(1)
	}
	interestEngine, err := interest.New(interest.Config{Store: store, Clock: clock})
	if err != nil {
		slog.Error("interest setup failed", "error", err)
		os.Exit(1)
	}
	billingEngine, err := billing.New(billing.Config{Store: store, Clock: clock})
	if err != nil {
		slog.Error("billing setup failed", "error", err)
		os.Exit(1)
	}
	lifecycleEngine, err := lifecycle.New(lifecycle.Config{
		Store: store,
		Clock: clock,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		slog.Error("lifecycle setup failed", "error", err)
		os.Exit(1)
	}

	scheduler, err := worker.New(worker.Config{Clock: clock})
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	scheduler.Register(
		worker.Job{Name: "process-scheduled-bills", Cadence: worker.Daily, Run: billingEngine.ProcessScheduledBills},
		worker.Job{Name: "mark-late-bills", Cadence: worker.Daily, Run: billingEngine.MarkLateBills},
		worker.Job{Name: "generate-statements", Cadence: worker.Daily, Run: billingEngine.GenerateStatements},
		worker.Job{Name: "interest-compounding", Cadence: worker.Monthly, Run: interestEngine.RunCompounding},
		worker.Job{Name: "penalty-interest", Cadence: worker.Monthly, Run: interestEngine.RunPenalty},
	)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	scheduler.Start(schedulerCtx)

	accountHandler := &handler.AccountHandler{Lifecycle: lifecycleEngine}
	transactionHandler := &handler.TransactionHandler{Ledger: ledgerEngine}
	billingHandler := &handler.BillingHandler{Billing: billingEngine, Scheduler: scheduler}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New())

	api := app.Group("/v1")
	api.Post("/customers", accountHandler.CreateCustomer)
	api.Delete("/customers/:id", accountHandler.DeleteCustomer)
	api.Get("/customers/:id/archives", billingHandler.GetArchives)

	api.Post("/accounts", accountHandler.OpenStandardAccount)
	api.Post("/accounts/credit-card", accountHandler.OpenCreditCard)
	api.Post("/accounts/mortgage", accountHandler.OpenMortgage)
	api.Delete("/accounts/:id", accountHandler.DeleteAccount)
	api.Get("/accounts/:id/transactions", transactionHandler.GetHistory)

	api.Post("/deposit", transactionHandler.Deposit)
	api.Post("/withdraw", transactionHandler.Withdraw)
	api.Post("/transfer", transactionHandler.Transfer)

	api.Post("/bills", billingHandler.ScheduleBill)
	api.Post("/archive", billingHandler.Archive)

	api.Get("/jobs", billingHandler.ListJobs)
	api.Post("/jobs/run/:name", billingHandler.RunJob)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("shutting down")

	stopScheduler()
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := store.Close(); err != nil {
		slog.Error("database close failed", "error", err)
	}
	slog.Info("exited")
}

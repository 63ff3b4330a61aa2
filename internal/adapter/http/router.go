package http

import (
	"time"

	"tuichain-backend/internal/adapter/middleware"
	"tuichain-backend/internal/usecase/document"
	"tuichain-backend/internal/usecase/investment"
	"tuichain-backend/internal/usecase/loan"
	"tuichain-backend/internal/usecase/verification"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Loans        *loan.Usecase
	Investments  *investment.Usecase
	Documents    *document.Usecase
	Verification *verification.Usecase
	Chain        ChainInfoSource

	JWTSecret []byte
	// Redis enables the idempotency middleware on mutating routes when set.
	Redis    *redis.Client
	IdempTTL time.Duration
	Log      zerolog.Logger
}

// Register mounts the API on e and installs the validator.
func Register(e *echo.Echo, d RouterDeps) {
	e.Validator = NewValidator()

	base := NewHandler(d.Chain, d.Log)
	e.GET("/health", base.Health)

	api := e.Group("/api", middleware.Auth(d.JWTSecret))
	if d.Redis != nil {
		api.Use(middleware.IdempotencyMiddleware(d.Redis, d.IdempTTL, d.Log))
	}
	admin := middleware.RequireAdmin

	lh := NewLoanHandler(d.Loans, d.Log)
	api.POST("/loans", lh.CreateLoan)
	api.GET("/loans", lh.ListLoans)
	api.GET("/loans/personal", lh.ListPersonal)
	api.GET("/loans/operating", lh.ListOperating)
	api.GET("/loans/state/:state", lh.ListByState)
	api.GET("/loans/:id", lh.GetLoan)
	api.PUT("/loans/:id/withdraw", lh.Withdraw)
	api.PUT("/loans/:id/validate", lh.Validate, admin)
	api.PUT("/loans/:id/reject", lh.Reject, admin)
	api.PUT("/loans/:id/cancel", lh.Cancel)
	api.PUT("/loans/:id/finalize", lh.Finalize, admin)
	api.DELETE("/loans/:id", lh.Delete, admin)
	api.GET("/loans/:id/sell-positions", lh.SellPositions)

	ih := NewInvestmentHandler(d.Investments, d.Log)
	api.POST("/investments", ih.Invest)
	api.GET("/investments/personal", ih.ListPersonal)
	api.GET("/investments/:id", ih.Get)
	api.GET("/loans/:id/investments", ih.ListByLoan)

	dh := NewDocumentHandler(d.Documents, d.Log)
	api.POST("/loans/:id/documents", dh.Upload)
	api.GET("/loans/:id/documents", dh.ListForStudent)
	api.GET("/loans/:id/documents/public", dh.ListPublic)
	api.GET("/documents/pending", dh.ListPending, admin)
	api.GET("/documents/:id", dh.Get, admin)
	api.PUT("/documents/:id/approve", dh.Approve, admin)
	api.PUT("/documents/:id/reject", dh.Reject, admin)

	th := NewTransactionHandler(d.Loans, d.Log)
	api.POST("/transactions/loan/:kind", th.LoanTransactions)
	api.POST("/transactions/market/:kind", th.MarketTransactions)
	api.GET("/tuichain/info", base.ChainInfo)

	if d.Verification != nil {
		vh := NewVerificationHandler(d.Verification, d.Log)
		api.POST("/verification/intent", vh.RequestIntent)
		api.GET("/verification/intent/:intent_id", vh.CheckIntent)
		api.GET("/verification/status", vh.Status)
	}
}

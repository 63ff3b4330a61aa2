package http

import (
	"net/http"

	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionHandler hands out unsigned transactions for the caller's wallet.
type TransactionHandler struct {
	uc  *loan.Usecase
	log zerolog.Logger
}

func NewTransactionHandler(uc *loan.Usecase, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{uc: uc, log: log}
}

type loanTxReq struct {
	LoanID       uint64          `json:"loan_id"       validate:"required"`
	Value        decimal.Decimal `json:"value"         validate:"bigint"`
	AmountTokens decimal.Decimal `json:"amount_tokens" validate:"bigint"`
}

type marketTxReq struct {
	LoanID        uint64          `json:"loan_id"        validate:"required"`
	AmountTokens  decimal.Decimal `json:"amount_tokens"  validate:"bigint"`
	Price         decimal.Decimal `json:"price"          validate:"bigint"`
	SellerAddress string          `json:"seller_address" validate:"omitempty,eth_addr"`
	FeeRate       decimal.Decimal `json:"fee_rate"       validate:"bigint"`
}

type txResponse struct {
	Transactions []settlement.Transaction `json:"transactions"`
}

func (h *TransactionHandler) LoanTransactions(c echo.Context) error {
	var req loanTxReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	txs, err := h.uc.LoanTransactions(c.Request().Context(), req.LoanID, settlement.LoanTxRequest{
		Kind:         settlement.LoanTxKind(c.Param("kind")),
		Value:        req.Value,
		AmountTokens: req.AmountTokens,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, txResponse{Transactions: txs})
}

func (h *TransactionHandler) MarketTransactions(c echo.Context) error {
	var req marketTxReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	txs, err := h.uc.MarketTransactions(c.Request().Context(), req.LoanID, settlement.MarketTxRequest{
		Kind:          settlement.MarketTxKind(c.Param("kind")),
		AmountTokens:  req.AmountTokens,
		Price:         req.Price,
		SellerAddress: req.SellerAddress,
		FeeRate:       req.FeeRate,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, txResponse{Transactions: txs})
}

package http

import (
	"net/http"

	"tuichain-backend/internal/usecase/investment"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type InvestmentHandler struct {
	uc  *investment.Usecase
	log zerolog.Logger
}

func NewInvestmentHandler(uc *investment.Usecase, log zerolog.Logger) *InvestmentHandler {
	return &InvestmentHandler{uc: uc, log: log}
}

type investReq struct {
	LoanID uint64          `json:"loan_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"  validate:"required,bigint"`
}

func (h *InvestmentHandler) Invest(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	var req investReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Invest(c.Request().Context(), investment.InvestInput{
		LoanID:     req.LoanID,
		InvestorID: a.ID,
		Amount:     req.Amount,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *InvestmentHandler) Get(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *InvestmentHandler) ListPersonal(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	dtos, err := h.uc.ListByInvestor(c.Request().Context(), a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *InvestmentHandler) ListByLoan(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	dtos, err := h.uc.ListByLoan(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

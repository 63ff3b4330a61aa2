package http

import (
	"net/http"

	"tuichain-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	uc  *loan.Usecase
	log zerolog.Logger
}

func NewLoanHandler(uc *loan.Usecase, log zerolog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, log: log}
}

type createLoanReq struct {
	School           string          `json:"school"            validate:"required,max=100"`
	Course           string          `json:"course"            validate:"required,max=100"`
	Destination      string          `json:"destination"       validate:"required,max=100"`
	Description      string          `json:"description"       validate:"required,max=2000"`
	RequestedValue   decimal.Decimal `json:"requested_value"   validate:"required,bigint"`
	RecipientAddress string          `json:"recipient_address" validate:"required,eth_addr"`
}

// validateLoanReq keeps the numbers as strings so malformed values reach the
// usecase and come back as validation errors with its wording.
type validateLoanReq struct {
	DaysToExpiration string `json:"days_to_expiration"           validate:"required"`
	FundingFeeRate   string `json:"funding_fee_atto_dai_per_dai" validate:"required"`
	PaymentFeeRate   string `json:"payment_fee_atto_dai_per_dai" validate:"required"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		StudentID:        a.ID,
		School:           req.School,
		Course:           req.Course,
		Destination:      req.Destination,
		Description:      req.Description,
		RequestedValue:   req.RequestedValue,
		RecipientAddress: req.RecipientAddress,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
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

func (h *LoanHandler) ListLoans(c echo.Context) error {
	dtos, err := h.uc.ListAll(c.Request().Context())
	return h.list(c, dtos, err)
}

func (h *LoanHandler) ListPersonal(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	dtos, err := h.uc.ListByStudent(c.Request().Context(), a.ID)
	return h.list(c, dtos, err)
}

func (h *LoanHandler) ListOperating(c echo.Context) error {
	dtos, err := h.uc.ListOperating(c.Request().Context())
	return h.list(c, dtos, err)
}

func (h *LoanHandler) ListByState(c echo.Context) error {
	dtos, err := h.uc.ListByState(c.Request().Context(), c.Param("state"))
	return h.list(c, dtos, err)
}

func (h *LoanHandler) list(c echo.Context, dtos []loan.LoanDTO, err error) error {
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) Withdraw(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Withdraw(c.Request().Context(), id, a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), id, a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Validate(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	var req validateLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Validate(c.Request().Context(), loan.ValidateInput{
		LoanID:         id,
		ValidatorID:    a.ID,
		ExpirationDays: req.DaysToExpiration,
		FundingFeeRate: req.FundingFeeRate,
		PaymentFeeRate: req.PaymentFeeRate,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Cancel(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	if err := h.uc.Cancel(c.Request().Context(), id, a.ID, a.Admin); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *LoanHandler) Finalize(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	if err := h.uc.Finalize(c.Request().Context(), id, a.ID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *LoanHandler) Delete(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), id, a.ID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LoanHandler) SellPositions(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	positions, err := h.uc.SellPositions(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, positions)
}

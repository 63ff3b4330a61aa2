package http

import (
	"net/http"

	"tuichain-backend/internal/usecase/verification"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type VerificationHandler struct {
	uc  *verification.Usecase
	log zerolog.Logger
}

func NewVerificationHandler(uc *verification.Usecase, log zerolog.Logger) *VerificationHandler {
	return &VerificationHandler{uc: uc, log: log}
}

func (h *VerificationHandler) RequestIntent(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	in, err := h.uc.RequestIntent(c.Request().Context(), a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, in)
}

func (h *VerificationHandler) CheckIntent(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	st, err := h.uc.CheckIntent(c.Request().Context(), a.ID, c.Param("intent_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *VerificationHandler) Status(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	v, err := h.uc.Status(c.Request().Context(), a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

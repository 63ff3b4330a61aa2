package http

import (
	"context"
	"net/http"
	"time"

	"tuichain-backend/internal/domain/settlement"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ChainInfoSource reports the settlement network the API is bound to.
type ChainInfoSource interface {
	Info(ctx context.Context) (*settlement.ChainInfo, error)
}

type Handler struct {
	chain ChainInfoSource
	log   zerolog.Logger
}

func NewHandler(chain ChainInfoSource, log zerolog.Logger) *Handler {
	return &Handler{chain: chain, log: log}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) ChainInfo(c echo.Context) error {
	info, err := h.chain.Info(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, info)
}

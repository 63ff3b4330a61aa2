package http

import (
	"net/http"
	"strconv"

	"tuichain-backend/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
)

// ---- helpers ----

// pathID parses a numeric path parameter. The second return is the response
// already written for a malformed id.
func pathID(c echo.Context, name string) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param"})
	}
	return id, true, nil
}

func actor(c echo.Context) (middleware.Actor, bool, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return a, false, c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or missing token"})
	}
	return a, true, nil
}

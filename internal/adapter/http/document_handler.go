package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"tuichain-backend/internal/usecase/document"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxDocumentBytes bounds a single upload.
const maxDocumentBytes = 10 << 20

type DocumentHandler struct {
	uc  *document.Usecase
	log zerolog.Logger
}

func NewDocumentHandler(uc *document.Usecase, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// Upload takes a multipart form with a "file" part plus optional "name" and
// "is_public" fields.
func (h *DocumentHandler) Upload(c echo.Context) error {
	loanID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file part"})
	}
	if fh.Size > maxDocumentBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "document too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable file part"})
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable file part"})
	}
	if len(body) > maxDocumentBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "document too large"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = fh.Filename
	}
	public := false
	if raw := c.FormValue("is_public"); raw != "" {
		if public, err = strconv.ParseBool(raw); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "is_public", Message: "must be a boolean"}},
			})
		}
	}

	d, err := h.uc.Upload(c.Request().Context(), document.UploadInput{
		LoanID:      loanID,
		UploaderID:  a.ID,
		Name:        name,
		IsPublic:    public,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        body,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DocumentHandler) ListForStudent(c echo.Context) error {
	loanID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	docs, err := h.uc.ListForStudent(c.Request().Context(), loanID, a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) ListPublic(c echo.Context) error {
	loanID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	docs, err := h.uc.ListPublic(c.Request().Context(), loanID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Get(c echo.Context) error {
	docID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	d, err := h.uc.Get(c.Request().Context(), docID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DocumentHandler) ListPending(c echo.Context) error {
	docs, err := h.uc.ListUnevaluated(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Approve(c echo.Context) error { return h.evaluate(c, true) }

func (h *DocumentHandler) Reject(c echo.Context) error { return h.evaluate(c, false) }

func (h *DocumentHandler) evaluate(c echo.Context, approve bool) error {
	docID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	evaluate := h.uc.Reject
	if approve {
		evaluate = h.uc.Approve
	}
	d, err := evaluate(c.Request().Context(), docID, a.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, d)
}

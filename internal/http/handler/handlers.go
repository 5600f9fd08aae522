package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfpages/internal/quota"
	"pdfpages/internal/render"
	"pdfpages/internal/service"
)

// HealthCheck is the liveness probe. It always succeeds and touches no
// dependencies; dependency state is reported by ReadinessCheck.
//
//	@Summary	Liveness probe
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Router		/health [get]
func HealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

// ReadinessCheck verifies DB connectivity with a short timeout. The render
// path itself has no database dependency, so this gates catalog traffic only.
//
//	@Summary		Readiness check
//	@Description	Returns ready when the metadata database is reachable.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	errorPayload
//	@Router			/ready [get]
func ReadinessCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ready"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
//
//	@Summary	Liveness probe
//	@Tags		ops
//	@Success	200
//	@Router		/healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument accepts a PDF as multipart/form-data (field name: file) and
// returns the generated document ID.
//
//	@Summary		Upload a PDF
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"PDF file"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	errorPayload
//	@Router			/v1/upload [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			if errors.Is(err, service.ErrNotPDF) {
				return writeError(c, fiber.StatusBadRequest, "ONLY_PDF", "only PDF is supported")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document_id": doc.ID})
	}
}

// ListDocuments returns catalog entries with limit/offset pagination.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Param		limit	query		int	false	"page size"		default(10)
//	@Param		offset	query		int	false	"page offset"	default(0)
//	@Success	200		{object}	service.DocumentListResult
//	@Failure	400		{object}	errorPayload
//	@Router		/v1/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetDocument returns one catalog entry by ID.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"document ID"
//	@Success	200	{object}	model.Document
//	@Failure	404	{object}	errorPayload
//	@Router		/v1/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(doc)
	}
}

// GetPagePNG serves the rendered page image. No quota accounting happens here;
// the image URL is only reachable through the gated viewer.
//
//	@Summary	Rendered page image
//	@Tags		pages
//	@Produce	png
//	@Param		doc_id	path	string	true	"document ID"
//	@Param		page	path	int		true	"1-based page number"
//	@Success	200		{file}		binary
//	@Failure	404		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/v1/docs/{doc_id}/pages/{page}.png [get]
func GetPagePNG(svc service.PageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Document ids are opaque; anything that is not a stored UUID is
		// simply an unknown document.
		docID := c.Params("doc_id")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		page, err := strconv.Atoi(c.Params("page"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page number")
		}

		path, err := svc.RenderPage(c.UserContext(), docID, page)
		if err != nil {
			return renderError(c, err)
		}
		return c.SendFile(path)
	}
}

// ViewPage is the quota-gated viewer. It charges one page against the user's
// daily allowance, renders into the cache, and returns an HTML wrapper that
// references the PNG endpoint.
//
//	@Summary	Quota-gated page view
//	@Tags		pages
//	@Produce	html
//	@Param		doc_id	path	string	true	"document ID"
//	@Param		page	path	int		true	"1-based page number"
//	@Param		user_id	query	string	false	"caller identity"	default(anon)
//	@Param		paid	query	bool	false	"paid tier flag"	default(false)
//	@Success	200		{string}	string
//	@Failure	402		{object}	quotaPayload
//	@Failure	404		{object}	errorPayload
//	@Router		/v1/docs/{doc_id}/page/{page} [get]
func ViewPage(svc service.PageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("doc_id")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		page, err := strconv.Atoi(c.Params("page"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page number")
		}

		userID := c.Query("user_id", "anon")
		paid := c.QueryBool("paid", false)

		_, err = svc.ViewPage(c.UserContext(), docID, page, userID, paid)
		if err != nil {
			var qErr *service.QuotaExceededError
			if errors.As(err, &qErr) {
				return c.Status(fiber.StatusPaymentRequired).JSON(quotaPayload{
					Error:     "quota_exceeded",
					UsedToday: qErr.Used,
					Limit:     qErr.Limit,
				})
			}
			return renderError(c, err)
		}

		html, err := mobileHTML(docID, page)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// renderError maps service and render pipeline failures onto HTTP responses.
// Render diagnostics are already truncated and safe to return.
func renderError(c *fiber.Ctx, err error) error {
	var failed *render.RenderFailedError

	switch {
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrInvalidPage):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page request")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, render.ErrRendererUnavailable):
		return writeError(c, fiber.StatusInternalServerError, "RENDERER_UNAVAILABLE", render.ErrRendererUnavailable.Error())
	case errors.As(err, &failed):
		return writeError(c, fiber.StatusInternalServerError, "RENDER_FAILED", failed.Error())
	case errors.Is(err, render.ErrRenderIncomplete):
		return writeError(c, fiber.StatusInternalServerError, "RENDER_INCOMPLETE", render.ErrRenderIncomplete.Error())
	case errors.Is(err, render.ErrRenderTimeout):
		return writeError(c, fiber.StatusInternalServerError, "RENDER_TIMEOUT", "page render timed out")
	case errors.Is(err, quota.ErrQuotaStore):
		return writeError(c, fiber.StatusInternalServerError, "QUOTA_STORE_ERROR", "quota store unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

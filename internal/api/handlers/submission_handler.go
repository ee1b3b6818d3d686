package handlers

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/brochure-contact-backend/internal/api/response"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/services"
)

// SubmissionHandler handles the admin submission screens
type SubmissionHandler struct {
	submissions services.SubmissionService
	export      services.ExportService
	logger      *slog.Logger
	location    *time.Location
	now         func() time.Time
}

// NewSubmissionHandler creates a new SubmissionHandler. Date query
// parameters are read in loc (local time when nil).
func NewSubmissionHandler(submissions services.SubmissionService, export services.ExportService, logger *slog.Logger, loc *time.Location) *SubmissionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &SubmissionHandler{
		submissions: submissions,
		export:      export,
		logger:      logger,
		location:    loc,
		now:         time.Now,
	}
}

// StatusRequest is the body of a single status change
type StatusRequest struct {
	Status models.SubmissionStatus `json:"status"`
}

// BulkRequest is the body of the bulk endpoints
type BulkRequest struct {
	IDs    []uint                  `json:"ids"`
	Status models.SubmissionStatus `json:"status,omitempty"`
}

// List handles GET /api/submissions
func (h *SubmissionHandler) List(c echo.Context) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return response.Error(c, err)
	}

	page := queryInt(c, "page")
	limit := queryInt(c, "limit")

	result, err := h.submissions.List(c.Request().Context(), filter, page, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, result.Items, result.TotalCount, result.Page, result.PageSize, result.PageCount)
}

// Stats handles GET /api/submissions/stats
func (h *SubmissionHandler) Stats(c echo.Context) error {
	stats, err := h.submissions.Stats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

// Get handles GET /api/submissions/:id
func (h *SubmissionHandler) Get(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "invalid submission ID")
	}

	submission, err := h.submissions.Get(c.Request().Context(), id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return response.NotFound(c, "submission not found")
		}
		return response.Error(c, err)
	}

	return response.Success(c, submission)
}

// Update handles PUT /api/submissions/:id
func (h *SubmissionHandler) Update(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "invalid submission ID")
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	submission, err := h.submissions.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return response.NotFound(c, "submission not found")
		}
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, submission, "submission updated")
}

// Delete handles DELETE /api/submissions/:id
func (h *SubmissionHandler) Delete(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "invalid submission ID")
	}

	submission, err := h.submissions.Delete(c.Request().Context(), id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return response.NotFound(c, "submission not found")
		}
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, submission, "submission deleted")
}

// BulkUpdate handles PUT /api/submissions/bulk
func (h *SubmissionHandler) BulkUpdate(c echo.Context) error {
	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	updated, err := h.submissions.BulkUpdateStatus(c.Request().Context(), req.IDs, req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, map[string]int64{"updated": updated}, "submissions updated")
}

// BulkDelete handles DELETE /api/submissions/bulk
func (h *SubmissionHandler) BulkDelete(c echo.Context) error {
	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	deleted, err := h.submissions.BulkDelete(c.Request().Context(), req.IDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, map[string]int64{"deleted": deleted}, "submissions deleted")
}

// Export handles GET /api/submissions/export
func (h *SubmissionHandler) Export(c echo.Context) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return response.Error(c, err)
	}

	filename := services.ExportFilename(h.now().In(h.location))
	w := &deferredWriter{
		res: c.Response(),
		headers: map[string]string{
			echo.HeaderContentType:        "text/csv; charset=utf-8",
			echo.HeaderContentDisposition: `attachment; filename="` + filename + `"`,
		},
	}

	rows, err := h.export.ExportCSV(c.Request().Context(), filter, w)
	if err != nil {
		if !w.committed {
			return response.Error(c, err)
		}
		// headers are gone, the client sees a truncated file
		h.logger.Error("export aborted mid-stream",
			slog.Int("rows", rows),
			slog.String("error", err.Error()))
		return nil
	}
	if !w.committed {
		w.commit()
	}

	h.logger.Info("submissions exported", slog.Int("rows", rows))
	return nil
}

// Attachment handles GET /api/submissions/:id/attachments/:index
func (h *SubmissionHandler) Attachment(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "invalid submission ID")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return response.BadRequest(c, "invalid attachment index")
	}

	meta, content, err := h.submissions.OpenAttachment(c.Request().Context(), id, index)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return response.NotFound(c, "attachment not found")
		}
		return response.Error(c, err)
	}
	defer content.Close()

	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+strings.ReplaceAll(meta.Filename, `"`, "")+`"`)
	if meta.Size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(meta.Size, 10))
	}
	return c.Stream(http.StatusOK, mimeType, bufio.NewReader(content))
}

// parseFilter reads status, search, startDate and endDate. A date-only
// endDate includes the whole day.
func (h *SubmissionHandler) parseFilter(c echo.Context) (models.SubmissionFilter, error) {
	filter := models.SubmissionFilter{
		Status: models.SubmissionStatus(strings.TrimSpace(c.QueryParam("status"))),
		Search: c.QueryParam("search"),
	}
	verr := &apperrors.ValidationError{}

	if v := c.QueryParam("startDate"); v != "" {
		from, _, err := h.parseDate(v)
		if err != nil {
			verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "startDate", Reason: "must be YYYY-MM-DD or RFC 3339"})
		} else {
			filter.DateFrom = &from
		}
	}
	if v := c.QueryParam("endDate"); v != "" {
		to, dateOnly, err := h.parseDate(v)
		if err != nil {
			verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "endDate", Reason: "must be YYYY-MM-DD or RFC 3339"})
		} else {
			if dateOnly {
				to = to.AddDate(0, 0, 1)
			}
			filter.DateTo = &to
		}
	}

	if len(verr.Fields) > 0 {
		return filter, verr
	}
	return filter, nil
}

func (h *SubmissionHandler) parseDate(v string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, h.location); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func parseID(v string) (uint, error) {
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// queryInt returns the integer query parameter name, or 0 when absent or malformed
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}

// deferredWriter sends the response headers on the first write, so an export
// that fails before producing output can still answer with an error status.
type deferredWriter struct {
	res       *echo.Response
	headers   map[string]string
	committed bool
}

func (w *deferredWriter) commit() {
	for k, v := range w.headers {
		w.res.Header().Set(k, v)
	}
	w.res.WriteHeader(http.StatusOK)
	w.committed = true
}

func (w *deferredWriter) Write(p []byte) (int, error) {
	if !w.committed {
		w.commit()
	}
	return w.res.Write(p)
}

var _ io.Writer = (*deferredWriter)(nil)

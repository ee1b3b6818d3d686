package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/brochure-contact-backend/internal/api/response"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/services"
)

// AnalyticsHandler serves the admin dashboard charts
type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview handles GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	overview, err := h.analytics.Overview(c.Request().Context(), models.Period(c.QueryParam("period")))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, overview)
}

// Conversion handles GET /api/analytics/conversion
func (h *AnalyticsHandler) Conversion(c echo.Context) error {
	metrics, err := h.analytics.Conversion(c.Request().Context(), models.Period(c.QueryParam("period")))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, metrics)
}

// Dashboard handles GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	snapshot, err := h.analytics.Dashboard(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, snapshot)
}

// Monthly handles GET /api/analytics/monthly/:year/:month
func (h *AnalyticsHandler) Monthly(c echo.Context) error {
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil {
		verr := &apperrors.ValidationError{}
		if yerr != nil {
			verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "year", Reason: "must be a number"})
		}
		if merr != nil {
			verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "month", Reason: "must be a number"})
		}
		return response.Error(c, verr)
	}

	summary, err := h.analytics.MonthlySummary(c.Request().Context(), year, month)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}

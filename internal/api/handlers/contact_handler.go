package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/brochure-contact-backend/internal/api/response"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/services"
)

// ContactHandler handles the public contact form
type ContactHandler struct {
	ingestion services.IngestionService
	logger    *slog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(ingestion services.IngestionService, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{ingestion: ingestion, logger: logger}
}

// ContactRequest is the JSON form of a submission without attachments
type ContactRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// ContactReceipt is returned to the visitor after a successful submission
type ContactReceipt struct {
	ID          uint      `json:"id"`
	Status      string    `json:"status"`
	Attachments int       `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(c echo.Context) error {
	input, err := h.bind(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	input.SourceIP = c.RealIP()
	input.UserAgent = c.Request().UserAgent()

	submission, err := h.ingestion.Submit(c.Request().Context(), input)
	if err != nil {
		if apperrors.GetErrorCode(err) == apperrors.CodeInternalError {
			h.logger.Error("contact submission failed", slog.String("error", err.Error()))
		}
		return response.Error(c, err)
	}

	return response.Created(c, ContactReceipt{
		ID:          submission.ID,
		Status:      string(submission.Status),
		Attachments: len(submission.Attachments),
		CreatedAt:   submission.CreatedAt,
	}, "Thank you for your message. We will get back to you soon.")
}

// bind reads a JSON, urlencoded or multipart submission
func (h *ContactHandler) bind(c echo.Context) (models.ContactInput, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		var req ContactRequest
		if err := c.Bind(&req); err != nil {
			return models.ContactInput{}, errors.New("invalid request body")
		}
		return models.ContactInput{
			Name:              req.Name,
			Email:             req.Email,
			Phone:             req.Phone,
			Subject:           req.Subject,
			Message:           req.Message,
			VerificationToken: req.RecaptchaToken,
		}, nil
	}

	input := models.ContactInput{
		Name:              c.FormValue("name"),
		Email:             c.FormValue("email"),
		Phone:             c.FormValue("phone"),
		Subject:           c.FormValue("subject"),
		Message:           c.FormValue("message"),
		VerificationToken: c.FormValue("recaptchaToken"),
	}

	if strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			if errors.Is(err, http.ErrNotMultipart) {
				return input, nil
			}
			return models.ContactInput{}, errors.New("invalid multipart form")
		}
		for _, fh := range form.File["attachments"] {
			input.Attachments = append(input.Attachments, upload(fh))
		}
	}

	return input, nil
}

func upload(fh *multipart.FileHeader) models.Upload {
	return models.Upload{
		Filename:     fh.Filename,
		Size:         fh.Size,
		DeclaredType: fh.Header.Get(echo.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/logger"
	"github.com/welldanyogia/brochure-contact-backend/internal/metrics"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
	"github.com/welldanyogia/brochure-contact-backend/internal/storage"
	"github.com/welldanyogia/brochure-contact-backend/internal/validator"
)

// IngestionConfig holds the limits applied to public submissions
type IngestionConfig struct {
	RateLimit         int
	RateWindow        time.Duration
	MaxAttachments    int
	MaxAttachmentSize int64
	AllowedTypes      []string
}

// DefaultIngestionConfig returns five submissions per hour and five 5 MB attachments
func DefaultIngestionConfig(allowedTypes []string) IngestionConfig {
	return IngestionConfig{
		RateLimit:         5,
		RateWindow:        time.Hour,
		MaxAttachments:    5,
		MaxAttachmentSize: storage.DefaultMaxFileSize,
		AllowedTypes:      allowedTypes,
	}
}

// IngestionService accepts contact-form submissions from the public site
type IngestionService interface {
	// Submit validates, rate limits and persists input, then schedules the
	// admin notification. Nothing is written unless every check passes.
	Submit(ctx context.Context, input models.ContactInput) (*models.Submission, error)
}

// IngestionDeps groups the collaborators of the ingestion service
type IngestionDeps struct {
	Repo     repository.SubmissionRepository
	Files    storage.FileStorage
	Verifier Verifier
	Notifier Notifier
	Metrics  *metrics.Metrics
	Security *logger.SecurityLogger
	Logger   *slog.Logger
}

// ingestionService implements IngestionService
type ingestionService struct {
	IngestionDeps
	config IngestionConfig
	now    func() time.Time
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(deps IngestionDeps, config IngestionConfig) IngestionService {
	if deps.Verifier == nil {
		deps.Verifier = NoopVerifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Security == nil {
		deps.Security = logger.NewSecurityLogger()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if config.RateWindow <= 0 {
		config.RateWindow = time.Hour
	}
	if config.MaxAttachmentSize <= 0 {
		config.MaxAttachmentSize = storage.DefaultMaxFileSize
	}
	return &ingestionService{IngestionDeps: deps, config: config, now: time.Now}
}

// acceptedFile is an upload that passed every attachment check
type acceptedFile struct {
	upload   models.Upload
	filename string
	mimeType string
}

// Submit implements IngestionService
func (s *ingestionService) Submit(ctx context.Context, input models.ContactInput) (*models.Submission, error) {
	input = sanitizeContact(input)

	if err := validator.Struct(input); err != nil {
		s.reject(metrics.ReasonValidation)
		return nil, err
	}

	files, err := s.checkAttachments(input)
	if err != nil {
		s.reject(metrics.ReasonAttachment)
		return nil, err
	}

	now := s.now().UTC()
	if err := s.checkRateLimit(ctx, input.SourceIP, now); err != nil {
		if errors.Is(err, apperrors.ErrRateLimited) {
			s.reject(metrics.ReasonRateLimit)
		} else {
			s.reject(metrics.ReasonStorage)
		}
		return nil, err
	}

	if err := s.Verifier.Verify(ctx, input.VerificationToken, input.SourceIP); err != nil {
		s.reject(metrics.ReasonVerification)
		s.Security.VerificationFailed(input.SourceIP, err.Error())
		return nil, err
	}

	attachments, err := s.storeAttachments(files)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttachmentRejected) {
			s.reject(metrics.ReasonAttachment)
		} else {
			s.reject(metrics.ReasonStorage)
		}
		return nil, err
	}

	submission := &models.Submission{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Subject:     input.Subject,
		Message:     input.Message,
		Status:      models.StatusNew,
		Attachments: attachments,
		IPAddress:   input.SourceIP,
		UserAgent:   input.UserAgent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Repo.Create(ctx, submission); err != nil {
		s.reject(metrics.ReasonStorage)
		s.discard(attachments)
		return nil, err
	}

	s.Metrics.SubmissionsAccepted.Inc()
	s.Logger.Info("contact submission accepted",
		slog.Uint64("submission_id", uint64(submission.ID)),
		slog.Int("attachments", len(attachments)),
	)

	if s.Notifier != nil {
		s.Notifier.Notify(*submission)
	}

	return submission, nil
}

func (s *ingestionService) reject(reason string) {
	s.Metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
}

// sanitizeContact strips control characters and surrounding whitespace
func sanitizeContact(input models.ContactInput) models.ContactInput {
	input.Name = validator.SanitizeString(input.Name, 0)
	input.Email = validator.SanitizeString(input.Email, 0)
	input.Phone = validator.SanitizeString(input.Phone, 0)
	input.Subject = validator.SanitizeString(input.Subject, 0)
	input.Message = validator.SanitizeText(input.Message)
	input.SourceIP = strings.TrimSpace(input.SourceIP)
	if input.SourceIP == "" {
		input.SourceIP = "unknown"
	}
	input.UserAgent = validator.SanitizeString(input.UserAgent, 500)
	return input
}

// checkAttachments enforces count, size, extension and sniffed type. The
// whole set is refused when any file fails.
func (s *ingestionService) checkAttachments(input models.ContactInput) ([]acceptedFile, error) {
	uploads := input.Attachments
	if len(uploads) > s.config.MaxAttachments {
		s.Security.BlockedFileUpload(input.SourceIP, "", "too many attachments")
		return nil, &apperrors.AttachmentError{
			Reason: fmt.Sprintf("at most %d files may be attached", s.config.MaxAttachments),
		}
	}

	accepted := make([]acceptedFile, 0, len(uploads))
	for _, upload := range uploads {
		filename := validator.SanitizeFilename(upload.Filename)

		if err := storage.ValidateFile(filename, upload.Size, s.config.MaxAttachmentSize); err != nil {
			reason := "file type is not allowed"
			if errors.Is(err, storage.ErrFileTooLarge) {
				reason = fmt.Sprintf("file exceeds %d bytes", s.config.MaxAttachmentSize)
			}
			s.Security.BlockedFileUpload(input.SourceIP, filename, reason)
			return nil, &apperrors.AttachmentError{Filename: filename, Reason: reason}
		}

		mimeType, err := s.sniff(upload)
		if err != nil {
			return nil, &apperrors.AttachmentError{Filename: filename, Reason: "file could not be read"}
		}
		if mimeType == "" {
			s.Security.BlockedFileUpload(input.SourceIP, filename, "content type not allowed")
			return nil, &apperrors.AttachmentError{Filename: filename, Reason: "file type is not allowed"}
		}

		accepted = append(accepted, acceptedFile{upload: upload, filename: filename, mimeType: mimeType})
	}
	return accepted, nil
}

// sniff detects the content type of upload and returns the matching entry of
// the allow-list, or "" when none matches.
func (s *ingestionService) sniff(upload models.Upload) (string, error) {
	if upload.Open == nil {
		return "", errors.New("upload has no content")
	}
	r, err := upload.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	for _, allowed := range s.config.AllowedTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", nil
}

// checkRateLimit counts the persisted submissions of ip inside the window
func (s *ingestionService) checkRateLimit(ctx context.Context, ip string, now time.Time) error {
	since := now.Add(-s.config.RateWindow)
	count, err := s.Repo.CountByIPSince(ctx, ip, since)
	if err != nil {
		return err
	}
	if count < int64(s.config.RateLimit) {
		return nil
	}

	retryAfter := s.config.RateWindow
	if oldest, err := s.Repo.OldestByIPSince(ctx, ip, since); err == nil {
		retryAfter = oldest.Add(s.config.RateWindow).Sub(now)
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	s.Security.ContactRateLimited(ip, count, retryAfter)
	return &apperrors.RateLimitError{
		Limit:      s.config.RateLimit,
		Window:     s.config.RateWindow,
		RetryAfter: retryAfter,
	}
}

// storeAttachments writes every accepted file, removing the ones already
// written when a later one fails.
func (s *ingestionService) storeAttachments(files []acceptedFile) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		attachment, err := s.storeOne(f)
		if err != nil {
			s.discard(attachments)
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

func (s *ingestionService) storeOne(f acceptedFile) (models.Attachment, error) {
	r, err := f.upload.Open()
	if err != nil {
		return models.Attachment{}, &apperrors.AttachmentError{Filename: f.filename, Reason: "file could not be read"}
	}
	defer r.Close()

	path, err := s.Files.Save(f.filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return models.Attachment{}, &apperrors.AttachmentError{
				Filename: f.filename,
				Reason:   fmt.Sprintf("file exceeds %d bytes", s.config.MaxAttachmentSize),
			}
		}
		return models.Attachment{}, fmt.Errorf("failed to store attachment: %w: %w", apperrors.ErrStorageUnavailable, err)
	}

	return models.Attachment{
		Filename: f.filename,
		Path:     path,
		MimeType: f.mimeType,
		Size:     f.upload.Size,
	}, nil
}

// discard removes stored files of a submission that was not persisted
func (s *ingestionService) discard(attachments []models.Attachment) {
	if len(attachments) == 0 {
		return
	}
	paths := make([]string, 0, len(attachments))
	for _, a := range attachments {
		paths = append(paths, a.Path)
	}
	if err := storage.DeleteAll(s.Files, paths); err != nil {
		s.Logger.Error("failed to remove orphaned attachments", slog.String("error", err.Error()))
	}
}

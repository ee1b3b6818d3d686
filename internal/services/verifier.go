package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
)

// DefaultRecaptchaEndpoint is Google's siteverify URL
const DefaultRecaptchaEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// Verifier decides whether a submission comes from a human
type Verifier interface {
	// Verify returns an error wrapping ErrVerificationFailed when the token is
	// rejected. Outages of the verification service are not errors.
	Verify(ctx context.Context, token, remoteIP string) error
}

// NoopVerifier accepts every submission
type NoopVerifier struct{}

// Verify implements Verifier
func (NoopVerifier) Verify(context.Context, string, string) error { return nil }

// RecaptchaConfig configures RecaptchaVerifier
type RecaptchaConfig struct {
	Secret   string
	MinScore float64
	Endpoint string
	Timeout  time.Duration
}

// RecaptchaVerifier checks tokens against the reCAPTCHA siteverify API and
// fails open when the API cannot be reached.
type RecaptchaVerifier struct {
	config RecaptchaConfig
	client *http.Client
	logger *slog.Logger
}

// NewRecaptchaVerifier creates a RecaptchaVerifier
func NewRecaptchaVerifier(config RecaptchaConfig, logger *slog.Logger) *RecaptchaVerifier {
	if config.Endpoint == "" {
		config.Endpoint = DefaultRecaptchaEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecaptchaVerifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// NewVerifier returns a RecaptchaVerifier when a secret is configured and a NoopVerifier otherwise
func NewVerifier(config RecaptchaConfig, logger *slog.Logger) Verifier {
	if config.Secret == "" {
		return NoopVerifier{}
	}
	return NewRecaptchaVerifier(config, logger)
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implements Verifier
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing verification token", apperrors.ErrVerificationFailed)
	}

	form := url.Values{}
	form.Set("secret", v.config.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		v.failOpen("build_request", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.failOpen("transport", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.failOpen("status", fmt.Errorf("unexpected status %d", resp.StatusCode))
		return nil
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.failOpen("decode", err)
		return nil
	}

	if !result.Success {
		return fmt.Errorf("%w: token rejected (%s)", apperrors.ErrVerificationFailed, strings.Join(result.ErrorCodes, ","))
	}
	// v2 responses carry no score
	if result.Score != nil && *result.Score < v.config.MinScore {
		return fmt.Errorf("%w: score %.2f below %.2f", apperrors.ErrVerificationFailed, *result.Score, v.config.MinScore)
	}
	return nil
}

func (v *RecaptchaVerifier) failOpen(stage string, err error) {
	v.logger.Warn("verification service unavailable, accepting submission",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

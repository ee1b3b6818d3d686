package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
)

func siteverify(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRecaptcha(endpoint string) *RecaptchaVerifier {
	return NewRecaptchaVerifier(RecaptchaConfig{
		Secret:   "test-secret",
		MinScore: 0.5,
		Endpoint: endpoint,
		Timeout:  time.Second,
	}, nil)
}

func TestRecaptchaVerifier(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"v3 pass", http.StatusOK, `{"success":true,"score":0.9}`, false},
		{"v2 pass without score", http.StatusOK, `{"success":true}`, false},
		{"low score", http.StatusOK, `{"success":true,"score":0.1}`, true},
		{"rejected token", http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, true},
		{"service error fails open", http.StatusInternalServerError, `oops`, false},
		{"garbled body fails open", http.StatusOK, `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := siteverify(t, tt.status, tt.body)
			err := newTestRecaptcha(srv.URL).Verify(context.Background(), "tok", "203.0.113.5")
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecaptchaVerifier_MissingToken(t *testing.T) {
	err := newTestRecaptcha("http://127.0.0.1:1").Verify(context.Background(), "  ", "203.0.113.5")

	assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
}

func TestRecaptchaVerifier_UnreachableFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newTestRecaptcha(url).Verify(context.Background(), "tok", "")

	assert.NoError(t, err)
}

func TestNewVerifier(t *testing.T) {
	assert.IsType(t, NoopVerifier{}, NewVerifier(RecaptchaConfig{}, nil))
	assert.IsType(t, &RecaptchaVerifier{}, NewVerifier(RecaptchaConfig{Secret: "s"}, nil))
	assert.NoError(t, NoopVerifier{}.Verify(context.Background(), "", ""))
}

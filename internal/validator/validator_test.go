package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
)

func validContact() models.ContactInput {
	return models.ContactInput{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Website redesign",
		Message: "We would like a quote for a new site.",
	}
}

func TestStruct_ValidContact(t *testing.T) {
	assert.NoError(t, Struct(validContact()))
}

func TestStruct_OptionalFieldsMayBeEmpty(t *testing.T) {
	input := validContact()
	input.Phone = ""
	input.Subject = ""

	assert.NoError(t, Struct(input))
}

func TestStruct_ReportsEveryViolatedField(t *testing.T) {
	input := models.ContactInput{
		Name:    "J",
		Email:   "not-an-email",
		Subject: "x",
		Message: "too short",
	}

	err := Struct(input)

	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Len(t, verr.Fields, 4)
	assert.True(t, verr.HasField("name"))
	assert.True(t, verr.HasField("email"))
	assert.True(t, verr.HasField("subject"))
	assert.True(t, verr.HasField("message"))
	assert.False(t, verr.HasField("phone"))
}

func TestStruct_Reasons(t *testing.T) {
	input := validContact()
	input.Name = ""
	input.Message = strings.Repeat("a", 2001)
	input.Email = "jane@"

	err := Struct(input)

	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	reasons := map[string]string{}
	for _, f := range verr.Fields {
		reasons[f.Field] = f.Reason
	}
	assert.Equal(t, "is required", reasons["name"])
	assert.Equal(t, "must be at most 2000 characters", reasons["message"])
	assert.Equal(t, "must be a valid email address", reasons["email"])
}

func TestStruct_LengthsCountRunes(t *testing.T) {
	input := validContact()
	// 10 runes, 20 bytes
	input.Message = strings.Repeat("é", 10)

	assert.NoError(t, Struct(input))

	input.Message = strings.Repeat("é", 9)
	verr := apperrors.GetValidationError(Struct(input))
	require.NotNil(t, verr)
	assert.True(t, verr.HasField("message"))
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{"valid simple email", "test@example.com", nil},
		{"valid with subdomain", "user@mail.example.com", nil},
		{"valid with plus", "user+tag@example.com", nil},
		{"valid with dots", "first.last@example.com", nil},
		{"valid with whitespace trimmed", "  test@example.com  ", nil},

		{"empty string", "", ErrEmptyInput},
		{"whitespace only", "   ", ErrEmptyInput},
		{"missing @", "testexample.com", ErrInvalidEmail},
		{"missing domain", "test@", ErrInvalidEmail},
		{"missing local part", "@example.com", ErrInvalidEmail},
		{"double @", "test@@example.com", ErrInvalidEmail},
		{"display name form", "Jane <jane@example.com>", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail_TooLong(t *testing.T) {
	email := strings.Repeat("a", 250) + "@example.com"
	assert.ErrorIs(t, ValidateEmail(email), ErrInputTooLong)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "document.pdf", "document.pdf"},
		{"with spaces", "my document.pdf", "my document.pdf"},
		{"path traversal dots", "../../../etc/passwd", "______etc_passwd"},
		{"forward slash", "path/to/file.txt", "path_to_file.txt"},
		{"backslash", "path\\to\\file.txt", "path_to_file.txt"},
		{"control chars", "file\x00name.txt", "filename.txt"},
		{"newline", "file\nname.txt", "filename.txt"},
		{"empty string", "", "unnamed"},
		{"whitespace only", "   ", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_LongFilename(t *testing.T) {
	longFilename := strings.Repeat("a", 300) + ".txt"
	assert.LessOrEqual(t, len(SanitizeFilename(longFilename)), 255)
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{"normal string", "hello world", 0, "hello world"},
		{"with control chars", "hello\x00world", 0, "helloworld"},
		{"with newline", "hello\nworld", 0, "helloworld"},
		{"trim whitespace", "  hello  ", 0, "hello"},
		{"enforce max length", "hello world", 5, "hello"},
		{"empty string", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input, tt.maxLength))
		})
	}
}

func TestSanitizeText_KeepsLineBreaks(t *testing.T) {
	assert.Equal(t, "line one\nline\ttwo", SanitizeText("  line one\n\x00line\ttwo \n"))
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name          string
		inputPage     int
		inputLimit    int
		expectedPage  int
		expectedLimit int
	}{
		{"valid values", 3, 20, 3, 20},
		{"zero values use defaults", 0, 0, DefaultPage, DefaultLimit},
		{"negative page", -2, 10, DefaultPage, 10},
		{"limit exceeds max", 1, 500, 1, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := ValidatePagination(tt.inputPage, tt.inputLimit)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedLimit, limit)
		})
	}
}

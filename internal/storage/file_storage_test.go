package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
)

func newTestStorage(t *testing.T, maxSize int64) *localStorage {
	fs, err := NewLocalStorage(t.TempDir(), maxSize)
	require.NoError(t, err)
	return fs.(*localStorage)
}

func TestValidatePath_PathTraversalDots(t *testing.T) {
	ls := newTestStorage(t, 0)

	tests := []struct {
		name string
		path string
	}{
		{"simple traversal", "../etc/passwd"},
		{"double traversal", "../../etc/passwd"},
		{"nested traversal", "subdir/../../../etc/passwd"},
		{"windows style", "..\\..\\windows\\system32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ls.validatePath(tt.path)
			assert.ErrorIs(t, err, ErrPathTraversal)
		})
	}
}

func TestValidatePath_ValidPath(t *testing.T) {
	ls := newTestStorage(t, 0)
	absBase, err := filepath.Abs(ls.basePath)
	require.NoError(t, err)

	for _, p := range []string{"file.txt", "2024/03/ab123456-7890.pdf", "a/b/c/file.txt"} {
		t.Run(p, func(t *testing.T) {
			result, err := ls.validatePath(p)
			assert.NoError(t, err)
			assert.True(t, strings.HasPrefix(result, absBase))
		})
	}
}

func TestGet_PathTraversal(t *testing.T) {
	ls := newTestStorage(t, 0)

	_, err := ls.Get("../../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestDelete_PathTraversal(t *testing.T) {
	ls := newTestStorage(t, 0)

	err := ls.Delete("../../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestGet_FileNotFound(t *testing.T) {
	ls := newTestStorage(t, 0)

	_, err := ls.Get("nonexistent.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestValidateFile_BlockedExtensions(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"exe blocked", "malware.exe", true},
		{"sh blocked", "script.sh", true},
		{"html blocked", "page.html", true},
		{"uppercase exe blocked", "MALWARE.EXE", true},
		{"pdf allowed", "document.pdf", false},
		{"docx allowed", "brief.docx", false},
		{"jpg allowed", "image.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.filename, 1024, DefaultMaxFileSize)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBlockedExt)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFile_SizeLimit(t *testing.T) {
	assert.NoError(t, ValidateFile("file.pdf", DefaultMaxFileSize, DefaultMaxFileSize))
	assert.ErrorIs(t, ValidateFile("file.pdf", DefaultMaxFileSize+1, DefaultMaxFileSize), ErrFileTooLarge)
}

func TestSaveAndGet_Integration(t *testing.T) {
	ls := newTestStorage(t, 0)
	ls.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }

	path, err := ls.Save("Brief.PDF", strings.NewReader("test content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "2024/03/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	reader, err := ls.Get(path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(data))
}

func TestSave_UniqueNames(t *testing.T) {
	ls := newTestStorage(t, 0)

	first, err := ls.Save("same.png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := ls.Save("same.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSave_RejectsOversizedContent(t *testing.T) {
	ls := newTestStorage(t, 8)

	_, err := ls.Save("big.pdf", bytes.NewReader(make([]byte, 9)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	path, err := ls.Save("exact.pdf", bytes.NewReader(make([]byte, 8)))
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestDelete_Integration(t *testing.T) {
	ls := newTestStorage(t, 0)

	path, err := ls.Save("test.txt", strings.NewReader("test content"))
	require.NoError(t, err)

	require.NoError(t, ls.Delete(path))

	_, err = ls.Get(path)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDelete_NonexistentFile(t *testing.T) {
	ls := newTestStorage(t, 0)

	assert.NoError(t, ls.Delete("nonexistent.txt"))
}

func TestDeleteAll_ContinuesPastFailures(t *testing.T) {
	ls := newTestStorage(t, 0)
	path, err := ls.Save("a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	err = DeleteAll(ls, []string{"../escape", path})

	assert.ErrorIs(t, err, ErrPathTraversal)
	_, getErr := ls.Get(path)
	assert.ErrorIs(t, getErr, ErrFileNotFound)
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "new", "nested", "dir")

	_, err := NewLocalStorage(newDir, 0)
	assert.NoError(t, err)

	info, err := os.Stat(newDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

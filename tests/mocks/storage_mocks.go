package mocks

import (
	"bytes"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockAttachmentStorage implements storage.FileStorage for the attachment
// pipeline. Save drains the upload so tests can inspect the written bytes.
type MockAttachmentStorage struct {
	mock.Mock

	mu      sync.Mutex
	written map[string][]byte
}

// Save records the uploaded bytes under filename
func (m *MockAttachmentStorage) Save(filename string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.written == nil {
		m.written = make(map[string][]byte)
	}
	m.written[filename] = data
	m.mu.Unlock()

	args := m.Called(filename, content)
	return args.String(0), args.Error(1)
}

// Get opens a stored attachment
func (m *MockAttachmentStorage) Get(filePath string) (io.ReadCloser, error) {
	args := m.Called(filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete removes a stored attachment
func (m *MockAttachmentStorage) Delete(filePath string) error {
	args := m.Called(filePath)
	return args.Error(0)
}

// Written returns the bytes handed to Save for filename
func (m *MockAttachmentStorage) Written(filename string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written[filename]
}

// ExpectStored makes Save of filename succeed at path
func (m *MockAttachmentStorage) ExpectStored(filename, path string) *mock.Call {
	return m.On("Save", filename, mock.Anything).Return(path, nil).Once()
}

// ExpectStoreFailure makes Save of filename fail with err
func (m *MockAttachmentStorage) ExpectStoreFailure(filename string, err error) *mock.Call {
	return m.On("Save", filename, mock.Anything).Return("", err).Once()
}

// ExpectRemoved expects one Delete per path, as storage.DeleteAll issues
// them. A non-nil entry in failures makes that path's Delete fail.
func (m *MockAttachmentStorage) ExpectRemoved(paths []string, failures map[string]error) {
	for _, p := range paths {
		m.On("Delete", p).Return(failures[p]).Once()
	}
}

// ExpectOpened serves content for path
func (m *MockAttachmentStorage) ExpectOpened(path, content string) *mock.Call {
	return m.On("Get", path).Return(io.NopCloser(bytes.NewReader([]byte(content))), nil).Once()
}

// ExpectOpenFailure makes Get of path fail with err
func (m *MockAttachmentStorage) ExpectOpenFailure(path string, err error) *mock.Call {
	return m.On("Get", path).Return(nil, err).Once()
}

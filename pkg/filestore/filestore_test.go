package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/logging"
)

type fakeMirror struct {
	uploaded map[string][]byte
	failUp   bool
}

func newFakeMirror() *fakeMirror { return &fakeMirror{uploaded: make(map[string][]byte)} }

func (m *fakeMirror) UploadResult(ctx context.Context, blobPath string, data []byte, metadata map[string]string) (string, error) {
	if m.failUp {
		return "", assert.AnError
	}
	m.uploaded[blobPath] = data
	return "blob://" + blobPath, nil
}

func (m *fakeMirror) DownloadResult(ctx context.Context, blobURL string) ([]byte, error) {
	for path, data := range m.uploaded {
		if "blob://"+path == blobURL {
			return data, nil
		}
	}
	return nil, assert.AnError
}

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestRegisterFileAndLookups(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	path := writeTemp(t, "hello.txt", []byte("hello world"))

	id, err := s.RegisterFile(path)
	require.NoError(t, err)
	assert.True(t, s.HasFile(id))

	got, ok := s.PathOf(id)
	require.True(t, ok)
	assert.Equal(t, path, got)
	assert.False(t, s.IsImage(id))
}

func TestRegisterFileUnknownPathErrors(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	_, err := s.RegisterFile(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	assert.Error(t, err)
}

func TestGetFileDataUrlReadsLocalFile(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	path := writeTemp(t, "note.txt", []byte("hi"))
	id, err := s.RegisterFile(path)
	require.NoError(t, err)

	url, err := s.GetFileDataUrl(id)
	require.NoError(t, err)
	assert.Contains(t, url, "data:text/plain")
	assert.Contains(t, url, "aGk=") // base64("hi")
}

func TestIsImageDetectsImageMimeType(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	path := writeTemp(t, "pic.png", []byte{0x89, 0x50, 0x4E, 0x47})
	id, err := s.RegisterFile(path)
	require.NoError(t, err)
	assert.True(t, s.IsImage(id))
}

func TestRegisterFileMirrorsToBlobAboveInlineThreshold(t *testing.T) {
	mirror := newFakeMirror()
	s := New(mirror, logging.NoOpLogger{})
	s.maxInlineBytes = 4

	path := writeTemp(t, "big.bin", []byte("this is bigger than four bytes"))
	id, err := s.RegisterFile(path)
	require.NoError(t, err)
	assert.Len(t, mirror.uploaded, 1)

	require.NoError(t, os.Remove(path))
	url, err := s.GetFileDataUrl(id)
	require.NoError(t, err, "once the local file is gone, GetFileDataUrl should fall back to the blob mirror")
	assert.Contains(t, url, "data:")
}

func TestGetFileDataUrlUnknownIDErrors(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	_, err := s.GetFileDataUrl("missing")
	assert.Error(t, err)
}

func TestGetFileDataUrlFailsWhenLocalGoneAndNoMirror(t *testing.T) {
	s := New(nil, logging.NoOpLogger{})
	path := writeTemp(t, "gone.txt", []byte("x"))
	id, err := s.RegisterFile(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = s.GetFileDataUrl(id)
	assert.Error(t, err)
}

// Package filestore implements the process-wide File collaborator (§4.11
// / §6): registers filesystem paths under opaque ids, optionally
// mirroring large payloads to Azure Blob Storage so getFileDataUrl can
// serve them without holding every file's bytes in process memory.
//
// Grounded on the teacher's pkg/resolver.Service inline-vs-blob threshold
// (DefaultMaxInlineBytes, 500KB) and pkg/storage.AzureBlobClient for the
// blob mirror; the id scheme is google/uuid rather than the teacher's
// deterministic result-path scheme, since file handles here have no
// workflow/run/execution triple to derive a path from.
package filestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/flowforge/flowrun/pkg/logging"
)

// DefaultMaxInlineBytes mirrors the teacher's blob-offload threshold.
const DefaultMaxInlineBytes = 500 * 1024

// Handle is a registered file's metadata, returned by RegisterFile and
// GetFile.
type Handle struct {
	ID       string
	Path     string
	MimeType string
	Size     int64

	blobURL string
}

// BlobMirror is the subset of pkg/storage.BlobStorageClient the store
// depends on, kept local to avoid an import for callers who never
// configure blob mirroring.
type BlobMirror interface {
	UploadResult(ctx context.Context, blobPath string, data []byte, metadata map[string]string) (string, error)
	DownloadResult(ctx context.Context, blobURL string) ([]byte, error)
}

// Store is the process-wide file registry singleton.
type Store struct {
	mu             sync.RWMutex
	files          map[string]*Handle
	mirror         BlobMirror
	maxInlineBytes int64
	logger         logging.Logger
}

// New builds a Store. mirror may be nil, in which case every file stays
// local regardless of size.
func New(mirror BlobMirror, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Store{
		files:          make(map[string]*Handle),
		mirror:         mirror,
		maxInlineBytes: DefaultMaxInlineBytes,
		logger:         logger,
	}
}

// RegisterFile registers a filesystem path, returning a new opaque id.
// Satisfies pkg/registry.FileRegistrar.
func (s *Store) RegisterFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("filestore: cannot stat %s: %w", path, err)
	}

	id := uuid.NewString()
	h := &Handle{
		ID:       id,
		Path:     path,
		MimeType: mimeTypeFor(path),
		Size:     info.Size(),
	}

	if s.mirror != nil && h.Size > s.maxInlineBytes {
		if err := s.mirrorToBlob(h); err != nil {
			s.logger.Warn("filestore: blob mirror failed, keeping file local", logging.F("path", path), logging.F("error", err.Error()))
		}
	}

	s.mu.Lock()
	s.files[id] = h
	s.mu.Unlock()
	return id, nil
}

func (s *Store) mirrorToBlob(h *Handle) error {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return err
	}
	url, err := s.mirror.UploadResult(context.Background(), "files/"+h.ID+filepath.Ext(h.Path), data, map[string]string{"file_id": h.ID})
	if err != nil {
		return err
	}
	h.blobURL = url
	return nil
}

// HasFile reports whether id names a registered file. Satisfies
// pkg/registry.FileRegistrar.
func (s *Store) HasFile(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[id]
	return ok
}

// GetFile returns a registered file's handle.
func (s *Store) GetFile(id string) (*Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.files[id]
	return h, ok
}

// PathOf returns a registered file's local filesystem path.
func (s *Store) PathOf(id string) (string, bool) {
	h, ok := s.GetFile(id)
	if !ok {
		return "", false
	}
	return h.Path, true
}

// GetFileDataUrl returns a data: URL for the file's contents, reading
// from local disk when present and falling back to the blob mirror
// otherwise.
func (s *Store) GetFileDataUrl(id string) (string, error) {
	h, ok := s.GetFile(id)
	if !ok {
		return "", fmt.Errorf("filestore: unknown file id %s", id)
	}

	var data []byte
	if _, err := os.Stat(h.Path); err == nil {
		data, err = os.ReadFile(h.Path)
		if err != nil {
			return "", fmt.Errorf("filestore: read %s: %w", h.Path, err)
		}
	} else if h.blobURL != "" && s.mirror != nil {
		data, err = s.mirror.DownloadResult(context.Background(), h.blobURL)
		if err != nil {
			return "", fmt.Errorf("filestore: download blob mirror: %w", err)
		}
	} else {
		return "", fmt.Errorf("filestore: file %s is unavailable locally and has no blob mirror", id)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", h.MimeType, encoded), nil
}

// IsImage reports whether the registered file's mime type is an image
// type.
func (s *Store) IsImage(id string) bool {
	h, ok := s.GetFile(id)
	if !ok {
		return false
	}
	return strings.HasPrefix(h.MimeType, "image/")
}

func mimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

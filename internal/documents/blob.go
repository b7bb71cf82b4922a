// Package documents provides application.ContentStore implementations for
// competition attachments.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/persistence"
)

// blobKeyPrefix namespaces document content next to the roster snapshot keys.
const blobKeyPrefix = "swimref-document:"

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("documents: content exceeds size limit")

// ErrUnknownRef is returned for references not issued by the store.
var ErrUnknownRef = errors.New("documents: unknown content reference")

// BlobStore keeps document content in the same persistence adapter as the
// roster snapshot. It suits single-instance deployments with small files.
type BlobStore struct {
	adapter  persistence.Adapter
	maxBytes int64
}

// NewBlobStore returns a BlobStore. maxBytes <= 0 disables the size limit.
func NewBlobStore(adapter persistence.Adapter, maxBytes int64) *BlobStore {
	return &BlobStore{adapter: adapter, maxBytes: maxBytes}
}

// Put reads body fully and saves it under a fresh key.
func (s *BlobStore) Put(ctx context.Context, _ application.DocumentMeta, body io.Reader) (string, error) {
	reader := body
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read document content: %w", err)
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return "", ErrTooLarge
	}

	ref := blobKeyPrefix + uuid.NewString()
	if err := s.adapter.Save(ctx, ref, content); err != nil {
		return "", err
	}
	return ref, nil
}

// Open returns the content saved under ref.
func (s *BlobStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !strings.HasPrefix(ref, blobKeyPrefix) {
		return nil, ErrUnknownRef
	}
	content, err := s.adapter.Load(ctx, ref)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Delete removes the content saved under ref.
func (s *BlobStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, blobKeyPrefix) {
		return ErrUnknownRef
	}
	return s.adapter.Delete(ctx, ref)
}

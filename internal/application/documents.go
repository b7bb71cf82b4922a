package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// UploadDocument attaches a document whose content is already stored under
// contentRef.
func (s *Store) UploadDocument(ctx context.Context, competitionID string, meta DocumentMeta, contentRef string) (doc CompetitionDocument, err error) {
	logger := s.loggerWith(ctx, "UploadDocument", "competition_id", competitionID, "document_name", meta.Name)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "document attach failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "document attached", "document_id", doc.ID, "size", doc.Size)
	}()

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.competitionIndex(competitionID)
		if idx < 0 {
			return ErrNotFound
		}
		doc = CompetitionDocument{
			ID:         t.newID(),
			Name:       meta.Name,
			MIMEType:   meta.MIMEType,
			Size:       meta.Size,
			ContentRef: contentRef,
			UploadedAt: t.now,
		}
		competitions := t.editCompetitions()
		competitions[idx].Documents = append(competitions[idx].Documents, doc)
		return nil
	})
	return doc, err
}

// DeleteDocument detaches a document. Unknown competition or document ids are
// ignored. The removed record is returned so callers can release its content.
func (s *Store) DeleteDocument(ctx context.Context, competitionID, documentID string) (removed CompetitionDocument, ok bool, err error) {
	logger := s.loggerWith(ctx, "DeleteDocument", "competition_id", competitionID, "document_id", documentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "document delete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "document deleted", "removed", ok)
	}()

	err = s.mutate(ctx, func(t *txn) error {
		cIdx := t.competitionIndex(competitionID)
		if cIdx < 0 {
			return nil
		}
		dIdx := documentIndex(t.next.competitions[cIdx].Documents, documentID)
		if dIdx < 0 {
			return nil
		}
		competitions := t.editCompetitions()
		docs := competitions[cIdx].Documents
		removed, ok = docs[dIdx], true
		competitions[cIdx].Documents = append(docs[:dIdx], docs[dIdx+1:]...)
		return nil
	})
	return removed, ok, err
}

// Document returns one document record.
func (s *Store) Document(ctx context.Context, competitionID, documentID string) (CompetitionDocument, error) {
	c, err := s.GetCompetition(ctx, competitionID)
	if err != nil {
		return CompetitionDocument{}, err
	}
	idx := documentIndex(c.Documents, documentID)
	if idx < 0 {
		return CompetitionDocument{}, ErrNotFound
	}
	return c.Documents[idx], nil
}

func documentIndex(docs []CompetitionDocument, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}

// ContentStore keeps document bytes outside the roster snapshot. Put returns
// an opaque reference that Open and Delete accept.
type ContentStore interface {
	Put(ctx context.Context, meta DocumentMeta, body io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// DocumentService couples content storage with the roster so an upload either
// yields a visible document record with readable content or leaves no trace.
type DocumentService struct {
	store   *Store
	content ContentStore
	logger  *slog.Logger
}

// NewDocumentService wires the document service.
func NewDocumentService(store *Store, content ContentStore, logger *slog.Logger) *DocumentService {
	return &DocumentService{store: store, content: content, logger: defaultLogger(logger)}
}

func (s *DocumentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DocumentService", operation, attrs...)
}

// Upload stores body and attaches it to the competition. When the attach step
// fails the stored content is removed again.
func (s *DocumentService) Upload(ctx context.Context, competitionID string, meta DocumentMeta, body io.Reader) (doc CompetitionDocument, err error) {
	if s == nil || s.store == nil || s.content == nil {
		return CompetitionDocument{}, errors.New("DocumentService is not configured")
	}
	meta.Name = strings.TrimSpace(meta.Name)
	logger := s.loggerWith(ctx, "Upload", "competition_id", competitionID, "document_name", meta.Name)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "upload failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	vErr := &ValidationError{}
	vErr.required("name", meta.Name)
	if err = vErr.errOrNil(); err != nil {
		return CompetitionDocument{}, err
	}
	if meta.MIMEType == "" {
		meta.MIMEType = "application/octet-stream"
	}
	if _, err = s.store.GetCompetition(ctx, competitionID); err != nil {
		return CompetitionDocument{}, err
	}

	counter := &countingReader{r: body}
	ref, err := s.content.Put(ctx, meta, counter)
	if err != nil {
		return CompetitionDocument{}, fmt.Errorf("store document content: %w", err)
	}
	if meta.Size <= 0 {
		meta.Size = counter.n
	}

	doc, err = s.store.UploadDocument(ctx, competitionID, meta, ref)
	if err != nil {
		if delErr := s.content.Delete(context.WithoutCancel(ctx), ref); delErr != nil {
			logger.ErrorContext(ctx, "orphaned document content", "content_ref", ref, "error", delErr)
		}
		return CompetitionDocument{}, err
	}
	return doc, nil
}

// Open returns the document record and a stream of its content.
func (s *DocumentService) Open(ctx context.Context, competitionID, documentID string) (CompetitionDocument, io.ReadCloser, error) {
	doc, err := s.store.Document(ctx, competitionID, documentID)
	if err != nil {
		return CompetitionDocument{}, nil, err
	}
	rc, err := s.content.Open(ctx, doc.ContentRef)
	if err != nil {
		return CompetitionDocument{}, nil, fmt.Errorf("open document content: %w", err)
	}
	return doc, rc, nil
}

// DownloadLinker is implemented by content stores that can hand out
// short-lived direct download links.
type DownloadLinker interface {
	DownloadURL(ctx context.Context, ref string) (string, error)
}

// Link returns a direct download URL for the document when the content store
// supports it. ok is false when content must be streamed through Open.
func (s *DocumentService) Link(ctx context.Context, competitionID, documentID string) (url string, ok bool, err error) {
	linker, supported := s.content.(DownloadLinker)
	if !supported {
		return "", false, nil
	}
	doc, err := s.store.Document(ctx, competitionID, documentID)
	if err != nil {
		return "", false, err
	}
	url, err = linker.DownloadURL(ctx, doc.ContentRef)
	if err != nil {
		return "", false, fmt.Errorf("presign document content: %w", err)
	}
	return url, true, nil
}

// Delete detaches the document and then removes its content. Content removal
// failures are logged and not returned since the record is already gone.
func (s *DocumentService) Delete(ctx context.Context, competitionID, documentID string) error {
	removed, ok, err := s.store.DeleteDocument(ctx, competitionID, documentID)
	if err != nil || !ok {
		return err
	}
	if err := s.content.Delete(ctx, removed.ContentRef); err != nil {
		s.loggerWith(ctx, "Delete", "document_id", documentID).
			WarnContext(ctx, "document content not removed", "content_ref", removed.ContentRef, "error", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

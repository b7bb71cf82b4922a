package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/documents"
)

type documentService interface {
	Upload(ctx context.Context, competitionID string, meta application.DocumentMeta, body io.Reader) (application.CompetitionDocument, error)
	Open(ctx context.Context, competitionID, documentID string) (application.CompetitionDocument, io.ReadCloser, error)
	Link(ctx context.Context, competitionID, documentID string) (string, bool, error)
	Delete(ctx context.Context, competitionID, documentID string) error
}

type DocumentHandler struct {
	service        documentService
	maxUploadBytes int64
	responder      responder
	logger         *slog.Logger
}

// NewDocumentHandler serves competition attachments. Uploads larger than
// maxUploadBytes are refused with 413.
func NewDocumentHandler(service documentService, maxUploadBytes int64, logger *slog.Logger) *DocumentHandler {
	base := defaultLogger(logger)
	return &DocumentHandler{service: service, maxUploadBytes: maxUploadBytes, responder: newResponder(base), logger: base}
}

func (h *DocumentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DocumentHandler", operation, attrs...)
}

// multipartOverhead leaves room for boundaries and part headers.
const multipartOverhead = 64 << 10

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	competitionID := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Upload", "principal_id", principal.UserID, "competition_id", competitionID)

	if h.maxUploadBytes > 0 {
		limit := h.maxUploadBytes + multipartOverhead
		if r.ContentLength > limit {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		logger.WarnContext(r.Context(), "missing upload", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingFile)
		return
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
		return
	}

	doc, err := h.service.Upload(r.Context(), competitionID, application.DocumentMeta{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}, file)
	if err != nil {
		if errors.Is(err, documents.ErrTooLarge) {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		logger.WarnContext(r.Context(), "upload failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "document uploaded", "document_id", doc.ID, "size", doc.Size)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, documentResponse{Document: toDocumentDTO(doc)})
}

// Download redirects to a presigned URL when the content store offers one and
// streams the content otherwise.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	competitionID, documentID := pathParam(r, "id"), pathParam(r, "docID")
	logger := h.log(r.Context(), "Download", "competition_id", competitionID, "document_id", documentID)

	if url, ok, err := h.service.Link(r.Context(), competitionID, documentID); err != nil {
		logger.WarnContext(r.Context(), "document link failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	} else if ok {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	doc, body, err := h.service.Open(r.Context(), competitionID, documentID)
	if err != nil {
		logger.WarnContext(r.Context(), "document open failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logger.WarnContext(r.Context(), "document stream interrupted", "error", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	competitionID, documentID := pathParam(r, "id"), pathParam(r, "docID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "competition_id", competitionID, "document_id", documentID)

	if err := h.service.Delete(r.Context(), competitionID, documentID); err != nil {
		logger.ErrorContext(r.Context(), "document delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "document deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type documentResponse struct {
	Document documentDTO `json:"document"`
}

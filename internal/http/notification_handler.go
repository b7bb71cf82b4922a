package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/swimref/roster/internal/application"
)

type notificationService interface {
	ListNotifications(ctx context.Context, userID string) []application.Notification
	UnreadCount(ctx context.Context, userID string) int
	GetNotification(ctx context.Context, id string) (application.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllReadForUser(ctx context.Context, userID string) error
}

// websocketServer upgrades a request into a live notification stream.
type websocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

type NotificationHandler struct {
	service   notificationService
	hub       websocketServer
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, hub websocketServer, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, hub: hub, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NotificationHandler", operation, attrs...)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	feed := h.service.ListNotifications(r.Context(), principal.UserID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{
		Notifications: toNotificationDTOs(feed),
		UnreadCount:   h.service.UnreadCount(r.Context(), principal.UserID),
	})
}

// MarkRead marks one of the caller's notifications as read. Notifications of
// other users are reported as missing.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkRead", "principal_id", principal.UserID, "notification_id", id)

	n, err := h.service.GetNotification(r.Context(), id)
	if err == nil && n.RecipientID != principal.UserID {
		err = application.ErrNotFound
	}
	if err == nil {
		err = h.service.MarkRead(r.Context(), id)
	}
	if err != nil {
		logger.WarnContext(r.Context(), "mark read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.MarkAllReadForUser(r.Context(), principal.UserID); err != nil {
		h.log(r.Context(), "MarkAllRead", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "mark all read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.hub == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	h.hub.ServeWS(w, r, principal.UserID)
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count"`
}

type notificationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Category  string `json:"category,omitempty"`
	Severity  string `json:"type"`
	Read      bool   `json:"read"`
	LinkTo    string `json:"link_to,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toNotificationDTOs(feed []application.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(feed))
	for _, n := range feed {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Category:  string(n.Category),
			Severity:  string(n.Severity),
			Read:      n.Read,
			LinkTo:    n.LinkTo,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/report"
)

type userService interface {
	GetUser(ctx context.Context, id string) (application.User, error)
	ListUsers(ctx context.Context) []application.User
	ApproveUser(ctx context.Context, id string) (application.User, error)
	ChangeRole(ctx context.Context, id string, role application.Role) (application.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, patch application.ProfilePatch) (application.User, error)
	UpdatePreferences(ctx context.Context, id string, prefs application.NotificationPreferences) (application.User, error)
	Dashboard(ctx context.Context, userID string, now time.Time) (application.Dashboard, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	users := h.service.ListUsers(r.Context())
	h.log(r.Context(), "List", "principal_id", principal.UserID).
		With("result_count", len(users)).DebugContext(r.Context(), "users listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(users)})
}

func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "id")
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "user_id", userID)
	user, err := h.service.ApproveUser(r.Context(), userID)
	if err != nil {
		logger.WarnContext(r.Context(), "user approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user approved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "id")
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "ChangeRole", "principal_id", principal.UserID, "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode role request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ChangeRole", "principal_id", principal.UserID, "user_id", userID, "role", req.Role)
	user, err := h.service.ChangeRole(r.Context(), userID, application.Role(req.Role))
	if err != nil {
		logger.WarnContext(r.Context(), "role change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "role changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "id")
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID)
	if userID == principal.UserID {
		logger.WarnContext(r.Context(), "self deletion refused")
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{ErrorCode: "AUTH_FORBIDDEN", Message: errSelfDeletion.Error()})
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		logger.ErrorContext(r.Context(), "user delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "UpdateProfile", "principal_id", principal.UserID, "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode profile update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateProfile", "principal_id", principal.UserID)
	user, err := h.service.UpdateProfile(r.Context(), principal.UserID, application.ProfilePatch{
		Name:              req.Name,
		Email:             req.Email,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "profile update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req preferencesDTO
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "UpdatePreferences", "principal_id", principal.UserID, "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode preferences", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdatePreferences", "principal_id", principal.UserID)
	user, err := h.service.UpdatePreferences(r.Context(), principal.UserID, req.toPreferences())
	if err != nil {
		logger.WarnContext(r.Context(), "preferences update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "preferences updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	d, err := h.service.Dashboard(r.Context(), principal.UserID, h.now())
	if err != nil {
		h.log(r.Context(), "Dashboard", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDashboardDTO(d))
}

func (h *UserHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	users := h.service.ListUsers(r.Context())
	writeCSVHeaders(w, "utilizadores.csv")
	if err := report.WriteUsersCSV(w, users); err != nil {
		h.log(r.Context(), "ExportCSV").ErrorContext(r.Context(), "users export failed", "error", err)
	}
}

func writeCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}

type roleRequest struct {
	Role string `json:"role"`
}

type profileRequest struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type channelDTO struct {
	Toast bool `json:"toast"`
	Email bool `json:"email"`
}

type preferencesDTO struct {
	NewCompetitions channelDTO `json:"new_competitions"`
	RSVPChanges     channelDTO `json:"rsvp_changes"`
	PaymentUpdates  channelDTO `json:"payment_updates"`
}

func (p preferencesDTO) toPreferences() application.NotificationPreferences {
	return application.NotificationPreferences{
		NewCompetitions: application.Channel(p.NewCompetitions),
		RSVPChanges:     application.Channel(p.RSVPChanges),
		PaymentUpdates:  application.Channel(p.PaymentUpdates),
	}
}

type userDTO struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Role              string         `json:"role"`
	Status            string         `json:"status"`
	Preferences       preferencesDTO `json:"preferences"`
	ProfilePictureURL string         `json:"profile_picture_url,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		Status: string(user.Status),
		Preferences: preferencesDTO{
			NewCompetitions: channelDTO(user.Preferences.NewCompetitions),
			RSVPChanges:     channelDTO(user.Preferences.RSVPChanges),
			PaymentUpdates:  channelDTO(user.Preferences.PaymentUpdates),
		},
		ProfilePictureURL: user.ProfilePictureURL,
		CreatedAt:         user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

type dashboardDTO struct {
	UpcomingConfirmed   []competitionDTO  `json:"upcoming_confirmed"`
	PendingInvitations  []competitionDTO  `json:"pending_invitations"`
	RecentNotifications []notificationDTO `json:"recent_notifications"`
	AttendedThisYear    int               `json:"attended_this_year"`
	UnreadCount         int               `json:"unread_count"`
}

func toDashboardDTO(d application.Dashboard) dashboardDTO {
	return dashboardDTO{
		UpcomingConfirmed:   toCompetitionDTOs(d.UpcomingConfirmed),
		PendingInvitations:  toCompetitionDTOs(d.PendingInvitations),
		RecentNotifications: toNotificationDTOs(d.RecentNotifications),
		AttendedThisYear:    d.AttendedThisYear,
		UnreadCount:         d.UnreadCount,
	}
}

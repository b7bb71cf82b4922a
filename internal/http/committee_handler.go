package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/swimref/roster/internal/application"
)

type committeeService interface {
	Committee(ctx context.Context) application.Committee
	UpdateCommitteeMember(ctx context.Context, member application.CommitteeMember) (application.CommitteeMember, error)
	UpdateCommitteeConfig(ctx context.Context, cfg application.CommitteeConfig) (application.CommitteeConfig, error)
}

type CommitteeHandler struct {
	service   committeeService
	responder responder
	logger    *slog.Logger
}

func NewCommitteeHandler(service committeeService, logger *slog.Logger) *CommitteeHandler {
	base := defaultLogger(logger)
	return &CommitteeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommitteeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommitteeHandler", operation, attrs...)
}

func (h *CommitteeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c := h.service.Committee(r.Context())
	resp := committeeResponse{
		Members: make([]committeeMemberDTO, 0, len(c.Members)),
		Config:  committeeConfigDTO(c.Config),
	}
	for _, m := range c.Members {
		resp.Members = append(resp.Members, committeeMemberDTO(m))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *CommitteeHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateMember", "principal_id", principal.UserID, "member_id", id)

	var req committeeMemberDTO
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode committee member", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req.ID = id

	member, err := h.service.UpdateCommitteeMember(r.Context(), application.CommitteeMember(req))
	if err != nil {
		logger.WarnContext(r.Context(), "committee member update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "committee member updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, committeeMemberResponse{Member: committeeMemberDTO(member)})
}

func (h *CommitteeHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateConfig", "principal_id", principal.UserID)

	var req committeeConfigDTO
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode committee config", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	cfg, err := h.service.UpdateCommitteeConfig(r.Context(), application.CommitteeConfig(req))
	if err != nil {
		logger.WarnContext(r.Context(), "committee config update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "committee config updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, committeeConfigResponse{Config: committeeConfigDTO(cfg)})
}

type committeeMemberDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type committeeConfigDTO struct {
	TechnicalEmail      string `json:"technical_email"`
	AdministrativeEmail string `json:"administrative_email"`
}

type committeeResponse struct {
	Members []committeeMemberDTO `json:"members"`
	Config  committeeConfigDTO   `json:"config"`
}

type committeeMemberResponse struct {
	Member committeeMemberDTO `json:"member"`
}

type committeeConfigResponse struct {
	Config committeeConfigDTO `json:"config"`
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/logging"
)

var (
	errBadRequestBody      = errors.New("Formato de pedido inválido.")
	errInvalidID           = errors.New("Identificador inválido.")
	errMissingSessionToken = errors.New("Indique o token de autenticação.")
	errSelfDeletion        = errors.New("Não pode eliminar a sua própria conta.")
	errUploadTooLarge      = errors.New("O ficheiro excede o tamanho máximo permitido.")
	errMissingFile         = errors.New("Selecione um ficheiro para carregar.")
	errInvalidSeason       = errors.New("Época inválida.")
)

const (
	msgForbidden = "Não tem permissão para realizar esta operação."
	msgNotFound  = "O recurso solicitado não foi encontrado."
	msgInternal  = "Ocorreu um erro interno no servidor."
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) forbidden(ctx context.Context, w http.ResponseWriter) {
	r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{ErrorCode: "AUTH_FORBIDDEN", Message: msgForbidden})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.forbidden(ctx, w)
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: msgNotFound})
	case errors.Is(err, application.ErrDuplicateEmail):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "EMAIL_TAKEN",
			Message:   "Este email já está registado.",
		})
	case errors.Is(err, application.ErrLastAdministrator):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "LAST_ADMINISTRATOR",
			Message:   "Tem de existir pelo menos um administrador.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Email ou palavra-passe incorretos.",
		})
	case errors.Is(err, application.ErrAccountPending):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_PENDING_APPROVAL",
			Message:   "A sua conta aguarda aprovação de um administrador.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "A sessão expirou. Inicie sessão novamente.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Existem erros nos dados enviados.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: msgInternal})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "O pedido contém dados inválidos."
	case http.StatusUnauthorized:
		return "É necessário iniciar sessão."
	case http.StatusForbidden:
		return msgForbidden
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusMethodNotAllowed:
		return "Método não permitido."
	case http.StatusConflict:
		return "O pedido entra em conflito com o estado atual do recurso."
	case http.StatusRequestEntityTooLarge:
		return errUploadTooLarge.Error()
	case http.StatusUnprocessableEntity:
		return "Existem erros nos dados enviados."
	default:
		return msgInternal
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "O nome é obrigatório."
	case "email is required":
		return "O email é obrigatório."
	case "email is invalid":
		return "O email não é válido."
	case "password is required":
		return "A palavra-passe é obrigatória."
	case "password is too short":
		return "A palavra-passe deve ter pelo menos 8 caracteres."
	case "location is required":
		return "O local é obrigatório."
	case "date is required":
		return "A data é obrigatória."
	case "date is invalid":
		return "A data deve estar no formato AAAA-MM-DD."
	case "role is required":
		return "O cargo é obrigatório."
	case "role must be Administrator or Referee":
		return "O perfil deve ser Administrator ou Referee."
	case "status must be Attending, Not Attending or Pending":
		return "O estado deve ser Attending, Not Attending ou Pending."
	case "technical_email is required":
		return "O email técnico é obrigatório."
	case "technical_email is invalid":
		return "O email técnico não é válido."
	case "administrative_email is required":
		return "O email administrativo é obrigatório."
	case "administrative_email is invalid":
		return "O email administrativo não é válido."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

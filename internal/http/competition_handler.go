package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/briefing"
	"github.com/swimref/roster/internal/calendar"
	"github.com/swimref/roster/internal/report"
)

const competitionDateLayout = "2006-01-02"

type competitionService interface {
	GetUser(ctx context.Context, id string) (application.User, error)
	ListCompetitions(ctx context.Context) []application.Competition
	GetCompetition(ctx context.Context, id string) (application.Competition, error)
	SaveCompetition(ctx context.Context, input application.CompetitionInput) (application.Competition, error)
	DeleteCompetition(ctx context.Context, id string) error
	TogglePayment(ctx context.Context, competitionID, actorName string) (application.Competition, error)
	SubmitRSVP(ctx context.Context, userID, competitionID string, status application.RSVPStatus, comment string) (application.RSVP, error)
	Attendees(ctx context.Context, competitionID string) ([]application.User, error)
}

type briefingGenerator interface {
	Generate(ctx context.Context, req briefing.Request) (string, error)
}

type CompetitionHandler struct {
	service   competitionService
	briefings briefingGenerator
	responder responder
	logger    *slog.Logger
}

func NewCompetitionHandler(service competitionService, briefings briefingGenerator, logger *slog.Logger) *CompetitionHandler {
	base := defaultLogger(logger)
	return &CompetitionHandler{service: service, briefings: briefings, responder: newResponder(base), logger: base}
}

func (h *CompetitionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CompetitionHandler", operation, attrs...)
}

func (h *CompetitionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	competitions := h.service.ListCompetitions(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCompetitionsResponse{Competitions: toCompetitionDTOs(competitions)})
}

func (h *CompetitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c, ok := h.load(w, r, "Get")
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, competitionResponse{Competition: toCompetitionDTO(c)})
}

func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.save(w, r, "Create", "", http.StatusCreated)
}

func (h *CompetitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c, ok := h.load(w, r, "Update")
	if !ok {
		return
	}
	h.save(w, r, "Update", c.ID, http.StatusOK)
}

func (h *CompetitionHandler) save(w http.ResponseWriter, r *http.Request, operation, id string, status int) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "competition_id", id)

	var req competitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode competition", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput(id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	input.ActorName = h.actorName(r.Context(), principal)

	c, err := h.service.SaveCompetition(r.Context(), input)
	if err != nil {
		logger.WarnContext(r.Context(), "competition save failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("competition_id", c.ID).InfoContext(r.Context(), "competition saved")
	h.responder.writeJSON(r.Context(), w, status, competitionResponse{Competition: toCompetitionDTO(c)})
}

func (h *CompetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "competition_id", id)
	if err := h.service.DeleteCompetition(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "competition delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "competition deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CompetitionHandler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "TogglePayment", "principal_id", principal.UserID, "competition_id", id)

	c, err := h.service.TogglePayment(r.Context(), id, h.actorName(r.Context(), principal))
	if err != nil {
		logger.WarnContext(r.Context(), "payment toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "payment toggled", "paid", c.IsPaid)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, competitionResponse{Competition: toCompetitionDTO(c)})
}

func (h *CompetitionHandler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "SubmitRSVP", "principal_id", principal.UserID, "competition_id", id)

	var req rsvpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode rsvp", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	rsvp, err := h.service.SubmitRSVP(r.Context(), principal.UserID, id, application.RSVPStatus(req.Status), req.Comment)
	if err != nil {
		logger.WarnContext(r.Context(), "rsvp failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "rsvp recorded", "status", string(rsvp.Status))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rsvpResponse{RSVP: toRSVPDTO(rsvp)})
}

func (h *CompetitionHandler) CalendarLink(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c, ok := h.load(w, r, "CalendarLink")
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{URL: calendar.GoogleCalendarURL(c)})
}

func (h *CompetitionHandler) CalendarQRCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c, ok := h.load(w, r, "CalendarQRCode")
	if !ok {
		return
	}

	size := calendar.DefaultQRSize
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "O tamanho deve estar entre 64 e 1024."})
			return
		}
		size = n
	}

	png, err := calendar.QRCode(calendar.GoogleCalendarURL(c), size)
	if err != nil {
		h.log(r.Context(), "CalendarQRCode", "competition_id", c.ID).ErrorContext(r.Context(), "qr code rendering failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Briefing generates the briefing for the competition's confirmed officials.
func (h *CompetitionHandler) Briefing(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.briefings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c, ok := h.load(w, r, "Briefing")
	if !ok {
		return
	}
	attendees, err := h.service.Attendees(r.Context(), c.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	text, err := h.briefings.Generate(r.Context(), briefing.NewRequest(c, attendees))
	if err != nil {
		h.log(r.Context(), "Briefing", "competition_id", c.ID).
			WarnContext(r.Context(), "briefing generation failed", "error", err)
		briefing.WriteError(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, briefing.Response{Briefing: text})
}

func (h *CompetitionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	competitions := h.service.ListCompetitions(r.Context())
	writeCSVHeaders(w, "competicoes.csv")
	if err := report.WriteCompetitionsCSV(w, competitions); err != nil {
		h.log(r.Context(), "ExportCSV").ErrorContext(r.Context(), "competitions export failed", "error", err)
	}
}

func (h *CompetitionHandler) load(w http.ResponseWriter, r *http.Request, operation string) (application.Competition, bool) {
	id := pathParam(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return application.Competition{}, false
	}
	c, err := h.service.GetCompetition(r.Context(), id)
	if err != nil {
		h.log(r.Context(), operation, "competition_id", id).
			DebugContext(r.Context(), "competition lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Competition{}, false
	}
	return c, true
}

func (h *CompetitionHandler) actorName(ctx context.Context, principal application.Principal) string {
	user, err := h.service.GetUser(ctx, principal.UserID)
	if err != nil {
		return principal.UserID
	}
	return user.Name
}

type competitionRequest struct {
	Name           string `json:"name"`
	Date           string `json:"date"`
	Location       string `json:"location"`
	PoolType       string `json:"pool_type"`
	Description    string `json:"description"`
	Level          string `json:"level"`
	IsPaid         *bool  `json:"is_paid"`
	CRAResponsible string `json:"cra_responsible"`
}

func (r competitionRequest) toInput(id string) (application.CompetitionInput, error) {
	input := application.CompetitionInput{
		ID:             id,
		Name:           r.Name,
		Location:       r.Location,
		PoolType:       application.PoolType(strings.TrimSpace(r.PoolType)),
		Description:    r.Description,
		Level:          application.Level(strings.TrimSpace(r.Level)),
		IsPaid:         r.IsPaid,
		CRAResponsible: r.CRAResponsible,
	}
	if raw := strings.TrimSpace(r.Date); raw != "" {
		date, err := time.Parse(competitionDateLayout, raw)
		if err != nil {
			return input, &application.ValidationError{FieldErrors: map[string]string{"date": "date is invalid"}}
		}
		input.Date = date
	}
	return input, nil
}

type rsvpRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type competitionResponse struct {
	Competition competitionDTO `json:"competition"`
}

type listCompetitionsResponse struct {
	Competitions []competitionDTO `json:"competitions"`
}

type rsvpResponse struct {
	RSVP rsvpDTO `json:"rsvp"`
}

type calendarResponse struct {
	URL string `json:"url"`
}

type paymentLogDTO struct {
	ID        string `json:"id"`
	ActorName string `json:"actor_name"`
	Paid      bool   `json:"paid"`
	Timestamp string `json:"timestamp"`
}

type documentDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

type rsvpDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserRole  string `json:"user_role"`
	Status    string `json:"status"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp"`
}

type competitionDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Date           string          `json:"date"`
	Location       string          `json:"location"`
	PoolType       string          `json:"pool_type,omitempty"`
	Description    string          `json:"description"`
	Level          string          `json:"level"`
	IsPaid         bool            `json:"is_paid"`
	CRAResponsible string          `json:"cra_responsible"`
	PaymentHistory []paymentLogDTO `json:"payment_history"`
	Documents      []documentDTO   `json:"documents"`
	RSVPs          []rsvpDTO       `json:"rsvps"`
}

func toCompetitionDTO(c application.Competition) competitionDTO {
	dto := competitionDTO{
		ID:             c.ID,
		Name:           c.Name,
		Date:           c.Date.Format(competitionDateLayout),
		Location:       c.Location,
		PoolType:       string(c.PoolType),
		Description:    c.Description,
		Level:          string(c.Level),
		IsPaid:         c.IsPaid,
		CRAResponsible: c.CRAResponsible,
		PaymentHistory: make([]paymentLogDTO, 0, len(c.PaymentHistory)),
		Documents:      make([]documentDTO, 0, len(c.Documents)),
		RSVPs:          make([]rsvpDTO, 0, len(c.RSVPs)),
	}
	for _, p := range c.PaymentHistory {
		dto.PaymentHistory = append(dto.PaymentHistory, paymentLogDTO{
			ID:        p.ID,
			ActorName: p.ActorName,
			Paid:      p.Paid,
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	for _, d := range c.Documents {
		dto.Documents = append(dto.Documents, toDocumentDTO(d))
	}
	for _, rsvp := range c.RSVPs {
		dto.RSVPs = append(dto.RSVPs, toRSVPDTO(rsvp))
	}
	return dto
}

func toCompetitionDTOs(competitions []application.Competition) []competitionDTO {
	out := make([]competitionDTO, 0, len(competitions))
	for _, c := range competitions {
		out = append(out, toCompetitionDTO(c))
	}
	return out
}

func toDocumentDTO(d application.CompetitionDocument) documentDTO {
	return documentDTO{
		ID:         d.ID,
		Name:       d.Name,
		MIMEType:   d.MIMEType,
		Size:       d.Size,
		UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toRSVPDTO(r application.RSVP) rsvpDTO {
	return rsvpDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		UserRole:  string(r.UserRole),
		Status:    string(r.Status),
		Comment:   r.Comment,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

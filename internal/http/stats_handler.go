package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/report"
)

type statsService interface {
	Seasons(ctx context.Context) []int
	AttendanceStats(ctx context.Context, season int) []application.RefereeStats
}

type StatsHandler struct {
	service   statsService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewStatsHandler(service statsService, logger *slog.Logger) *StatsHandler {
	base := defaultLogger(logger)
	return &StatsHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *StatsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatsHandler", operation, attrs...)
}

func (h *StatsHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seasons := h.service.Seasons(r.Context())
	season, ok := h.season(w, r, seasons)
	if !ok {
		return
	}

	stats := h.service.AttendanceStats(r.Context(), season)
	resp := statsResponse{
		Season:   season,
		Seasons:  seasons,
		Referees: make([]refereeStatsDTO, 0, len(stats)),
	}
	if resp.Seasons == nil {
		resp.Seasons = []int{}
	}
	for _, s := range stats {
		resp.Referees = append(resp.Referees, refereeStatsDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *StatsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	season, ok := h.season(w, r, h.service.Seasons(r.Context()))
	if !ok {
		return
	}

	stats := h.service.AttendanceStats(r.Context(), season)
	writeCSVHeaders(w, fmt.Sprintf("assiduidade_%d.csv", season))
	if err := report.WriteAttendanceCSV(w, season, stats); err != nil {
		h.log(r.Context(), "ExportCSV", "season", season).ErrorContext(r.Context(), "attendance export failed", "error", err)
	}
}

// season reads the season query parameter, defaulting to the newest season
// with competitions or the current year.
func (h *StatsHandler) season(w http.ResponseWriter, r *http.Request, seasons []int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("season"))
	if raw == "" {
		if len(seasons) > 0 {
			return seasons[0], true
		}
		return h.now().Year(), true
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1900 || season > 9999 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeason)
		return 0, false
	}
	return season, true
}

type refereeStatsDTO struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Attended   int    `json:"attended"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

type statsResponse struct {
	Season   int               `json:"season"`
	Seasons  []int             `json:"seasons"`
	Referees []refereeStatsDTO `json:"referees"`
}

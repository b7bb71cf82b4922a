// Package briefing produces the AI-written referee briefing for a
// competition. It never touches the roster.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/swimref/roster/internal/application"
)

// User-facing messages returned in the error body.
const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgMissingData      = "Dados da competição em falta no pedido."
	MsgMissingAPIKey    = "Configuração do servidor incompleta: API Key em falta."
	MsgEmptyResponse    = "A resposta da IA estava vazia."
	MsgGenerationFailed = "Ocorreu um erro no servidor ao gerar o briefing."
)

// ExternalServiceError is a briefing failure with the HTTP status and message
// to show the caller.
type ExternalServiceError struct {
	Status  int
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Competition is the competition part of a briefing request.
type Competition struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Date           string `json:"date"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	Level          string `json:"level"`
	PoolType       string `json:"poolType"`
	CRAResponsible string `json:"craResponsible"`
}

// Attendee is a confirmed official.
type Attendee struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Request asks for a briefing. Attendees may be empty but must be present.
type Request struct {
	Competition *Competition `json:"competition"`
	Attendees   []Attendee   `json:"attendees"`
}

// Response carries the generated Markdown.
type Response struct {
	Briefing string `json:"briefing"`
}

// NewRequest builds a request from roster data.
func NewRequest(c application.Competition, attendees []application.User) Request {
	req := Request{
		Competition: &Competition{
			ID:             c.ID,
			Name:           c.Name,
			Date:           c.Date.Format("2006-01-02"),
			Location:       c.Location,
			Description:    c.Description,
			Level:          string(c.Level),
			PoolType:       string(c.PoolType),
			CRAResponsible: c.CRAResponsible,
		},
		Attendees: make([]Attendee, 0, len(attendees)),
	}
	for _, u := range attendees {
		req.Attendees = append(req.Attendees, Attendee{ID: u.ID, Name: u.Name})
	}
	return req
}

// Service validates requests and calls the text generator.
type Service struct {
	generator TextGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService returns a Service. A nil generator means no API key was
// configured; every request then fails with a 500.
func NewService(generator TextGenerator, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{generator: generator, timeout: timeout, logger: logger.With("component", "briefing")}
}

// Generate returns the briefing text or an *ExternalServiceError.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if req.Competition == nil || req.Attendees == nil || strings.TrimSpace(req.Competition.Name) == "" {
		return "", &ExternalServiceError{Status: http.StatusBadRequest, Message: MsgMissingData}
	}
	if s == nil || s.generator == nil {
		s.logError(ctx, "briefing generator not configured", nil)
		return "", &ExternalServiceError{Status: http.StatusInternalServerError, Message: MsgMissingAPIKey}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.GenerateText(ctx, BuildPrompt(req))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		s.logError(ctx, "briefing generation failed", err)
		return "", &ExternalServiceError{Status: http.StatusInternalServerError, Message: MsgGenerationFailed, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExternalServiceError{Status: http.StatusInternalServerError, Message: MsgEmptyResponse}
	}
	return text, nil
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s == nil {
		slog.Default().ErrorContext(ctx, msg)
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, msg, "error", err)
		return
	}
	s.logger.ErrorContext(ctx, msg)
}

package briefing

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
}

// Handler serves POST requests carrying a Request body. Non-POST methods get
// 405, malformed or incomplete bodies 400 and generation failures 500.
func Handler(svc *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: MsgMethodNotAllowed})
			return
		}

		var req Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: MsgMissingData})
			return
		}

		text, err := svc.Generate(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Briefing: text})
	})
}

// WriteError renders a Generate error. Requests abandoned by the client get no
// body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	var extErr *ExternalServiceError
	if errors.As(err, &extErr) {
		writeJSON(w, extErr.Status, errorBody{Error: extErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: MsgGenerationFailed})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

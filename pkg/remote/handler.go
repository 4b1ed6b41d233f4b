package remote

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// HandlerOption configures the stub handler.
type HandlerOption func(*handler)

// WithHandlerLogger routes request logging to logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRequiredToken rejects calls that do not carry the bearer token.
func WithRequiredToken(token string) HandlerOption {
	return func(h *handler) {
		h.token = strings.TrimSpace(token)
	}
}

type handler struct {
	backend Client
	logger  *slog.Logger
	token   string
}

// NewHandler serves the four calls under /rpc/{call} over any Client. Error
// responses carry a JSON body with code and message members.
func NewHandler(backend Client, options ...HandlerOption) http.Handler {
	h := &handler{backend: backend, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc/"+CallFetchPayload, h.fetchPayload)
	mux.HandleFunc("POST /rpc/"+CallUpsertAnswer, h.upsertAnswer)
	mux.HandleFunc("POST /rpc/"+CallUpsertTableRow, h.upsertTableRow)
	mux.HandleFunc("POST /rpc/"+CallSubmitForm, h.submitForm)
	return h.authorize(mux)
}

func (h *handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			h.writeError(w, http.StatusUnauthorized, NewError("", "unauthorized", "missing or invalid token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) fetchPayload(w http.ResponseWriter, r *http.Request) {
	var req fetchPayloadRequest
	if !h.decode(w, r, CallFetchPayload, &req) {
		return
	}
	payload, err := h.backend.FetchPayload(r.Context(), req.FormID, req.Lang)
	if err != nil {
		h.fail(w, CallFetchPayload, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *handler) upsertAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FormID string          `json:"p_form_id"`
		Code   string          `json:"p_question_code"`
		Value  json.RawMessage `json:"p_value"`
	}
	if !h.decode(w, r, CallUpsertAnswer, &req) {
		return
	}
	value, err := h.answerValue(r, req.FormID, req.Code, req.Value)
	if err != nil {
		h.fail(w, CallUpsertAnswer, err)
		return
	}
	if err := h.backend.UpsertAnswer(r.Context(), req.FormID, req.Code, value); err != nil {
		h.fail(w, CallUpsertAnswer, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) upsertTableRow(w http.ResponseWriter, r *http.Request) {
	var req upsertTableRowRequest
	if !h.decode(w, r, CallUpsertTableRow, &req) {
		return
	}
	if err := h.backend.UpsertTableRow(r.Context(), req.FormID, req.Code, req.RowIndex, req.Row); err != nil {
		h.fail(w, CallUpsertTableRow, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) submitForm(w http.ResponseWriter, r *http.Request) {
	var req submitFormRequest
	if !h.decode(w, r, CallSubmitForm, &req) {
		return
	}
	result, err := h.backend.SubmitForm(r.Context(), req.FormID)
	if err != nil {
		h.fail(w, CallSubmitForm, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// answerValue decodes the raw p_value into the canonical Go value for the
// question's variant, using the backend's own view of the question type.
func (h *handler) answerValue(r *http.Request, formID, code string, raw json.RawMessage) (any, error) {
	payload, err := h.backend.FetchPayload(r.Context(), formID, "")
	if err != nil {
		return nil, err
	}
	question, ok := payload.Question(code)
	if !ok {
		return nil, NewError(CallUpsertAnswer, "not_found", "question "+code+" not found")
	}
	value, err := model.DecodeAnswer(question.Type, []byte(raw))
	if err != nil {
		return nil, NewError(CallUpsertAnswer, "invalid_value", err.Error())
	}
	return value, nil
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, op string, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.writeError(w, http.StatusBadRequest, &Error{Op: op, Code: "bad_request", Message: "invalid request body", cause: err})
		return false
	}
	return true
}

func (h *handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn("stub call failed", "op", op, "error", err)

	status := http.StatusInternalServerError
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		switch remoteErr.Code {
		case "not_found":
			status = http.StatusNotFound
		case "invalid_value", "invalid_row", "invalid_question", "bad_request":
			status = http.StatusBadRequest
		case "form_locked", "already_submitted":
			status = http.StatusConflict
		}
		h.writeError(w, status, remoteErr)
		return
	}
	h.writeError(w, status, NewError(op, "internal", err.Error()))
}

func (h *handler) writeError(w http.ResponseWriter, status int, err *Error) {
	h.writeJSON(w, status, struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	}{Code: err.Code, Message: err.Message})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("stub encode response", "error", err)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sprypt/faqbot/internal/answer"
	"github.com/sprypt/faqbot/internal/app"
	"github.com/sprypt/faqbot/internal/knowledge"
)

// maxChatBodyBytes bounds the chat request body, including history.
const maxChatBodyBytes = 1 << 20 // 1 MiB

// ChatRequest is the POST /api/chat request body. History is the
// transcript the caller accumulated from previous responses; the server
// holds no session state.
type ChatRequest struct {
	Question string         `json:"question"`
	History  answer.History `json:"history,omitempty"`
}

// ChatResponse is the POST /api/chat response body. History is the
// caller's transcript extended with this exchange and bounded by the
// configured history length; send it back verbatim on the next request.
type ChatResponse struct {
	Answer   string          `json:"answer"`
	Sources  []answer.Source `json:"sources"`
	Grounded bool            `json:"grounded"`
	History  answer.History  `json:"history"`
}

// ChatHandler handles the conversational question endpoint.
type ChatHandler struct {
	app *app.App
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(a *app.App) *ChatHandler {
	return &ChatHandler{app: a}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.chat)
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question must not be empty")
		return
	}

	// The caller owns the transcript, so bound it here before it can
	// reach the condensation prompt.
	maxTurns := h.app.Config.HistoryMaxTurns
	history := req.History.Clamp(maxTurns)

	res, err := h.app.Answerer.Answer(r.Context(), req.Question, history)
	if err != nil {
		h.app.Logger.Error("answer pipeline failed",
			"error", err, "request_id", RequestID(r.Context()))

		var embErr *knowledge.EmbeddingServiceError
		var genErr *answer.GenerationServiceError
		if errors.As(err, &embErr) || errors.As(err, &genErr) {
			writeError(w, http.StatusServiceUnavailable, "service_unavailable",
				"the answering service is temporarily unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error",
			"failed to answer the question")
		return
	}

	history = history.
		Append(answer.NewTurn(answer.RoleUser, req.Question), maxTurns).
		Append(answer.NewTurn(answer.RoleAssistant, res.Answer), maxTurns)

	sources := res.Sources
	if sources == nil {
		sources = []answer.Source{}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:   res.Answer,
		Sources:  sources,
		Grounded: res.Grounded,
		History:  history,
	})
}

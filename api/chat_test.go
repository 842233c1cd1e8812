package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprypt/faqbot/internal/answer"
)

func postChat(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) ChatResponse {
	t.Helper()
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestChatAnswersQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: What is Sprypt?\nA: A clinic scheduling platform.")
	ts.llm.AddResponse("sprypt", "Sprypt is a clinic scheduling platform.")
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "What is Sprypt?"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	assert.Equal(t, "Sprypt is a clinic scheduling platform.", resp.Answer)
	assert.True(t, resp.Grounded)
	require.NotEmpty(t, resp.Sources)

	// The exchange is appended for the caller to send back next time.
	require.Len(t, resp.History, 2)
	assert.Equal(t, answer.RoleUser, resp.History[0].Role)
	assert.Equal(t, "What is Sprypt?", resp.History[0].Text)
	assert.Equal(t, answer.RoleAssistant, resp.History[1].Role)
}

func TestChatCarriesHistory(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: What is Sprypt?\nA: A clinic scheduling platform.")
	handler := ts.server.Handler()

	history := answer.History{
		{Role: answer.RoleUser, Text: "earlier question"},
		{Role: answer.RoleAssistant, Text: "earlier answer"},
	}
	rec := postChat(t, handler, ChatRequest{Question: "follow-up", History: history})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	// HistoryMaxTurns is 4 in the test config: 2 carried + 2 new.
	require.Len(t, resp.History, 4)
	assert.Equal(t, "earlier question", resp.History[0].Text)
	assert.Equal(t, "follow-up", resp.History[2].Text)

	// One more exchange evicts the oldest turns.
	rec = postChat(t, handler, ChatRequest{Question: "another", History: resp.History})
	resp = decodeChat(t, rec)
	require.Len(t, resp.History, 4)
	assert.Equal(t, "follow-up", resp.History[0].Text)
}

func TestChatClampsOversizedIncomingHistory(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: What is Sprypt?\nA: A clinic scheduling platform.")
	handler := ts.server.Handler()

	var history answer.History
	for i := 0; i < 20; i++ {
		role := answer.RoleUser
		if i%2 == 1 {
			role = answer.RoleAssistant
		}
		history = append(history, answer.Turn{Role: role, Text: fmt.Sprintf("exchange-%02d", i)})
	}

	rec := postChat(t, handler, ChatRequest{Question: "follow-up", History: history})
	require.Equal(t, http.StatusOK, rec.Code)

	// HistoryMaxTurns is 4 in the test config: only the newest turns may
	// reach the condensation prompt.
	calls := ts.llm.Calls()
	require.NotEmpty(t, calls)
	condense := calls[0].Prompt
	assert.Contains(t, condense, "exchange-19")
	assert.Contains(t, condense, "exchange-16")
	assert.NotContains(t, condense, "exchange-15")
	assert.NotContains(t, condense, "exchange-00")

	resp := decodeChat(t, rec)
	require.Len(t, resp.History, 4)
	assert.Equal(t, "exchange-18", resp.History[0].Text)
	assert.Equal(t, "follow-up", resp.History[2].Text)
}

func TestChatStampsAppendedTurns(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: A?\nA: B.")
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	require.Len(t, resp.History, 2)
	for _, turn := range resp.History {
		assert.False(t, turn.Timestamp.IsZero(), "%s turn missing timestamp", turn.Role)
	}
	assert.Contains(t, rec.Body.String(), `"timestamp"`)
}

func TestChatEmptyQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: A?\nA: B.")
	handler := ts.server.Handler()

	for _, body := range []any{
		ChatRequest{Question: ""},
		ChatRequest{Question: "   "},
	} {
		rec := postChat(t, handler, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestChatMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	handler := ts.server.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "invalid_request", errResp.Error)
}

func TestChatEmptyIndexReturnsInsufficientContext(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t) // ready but empty
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "What is the refund policy?"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	assert.False(t, resp.Grounded)
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.Answer)
}

func TestChatEmbeddingFailureReturns503(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: A?\nA: B.")
	ts.embedder.SetError(errors.New("invalid api key"))
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatGenerationFailureReturns503(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t, "Q: A?\nA: B.")
	ts.llm.SetError(errors.New("model not found"))
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatSourcesNeverNull(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndex(t)
	handler := ts.server.Handler()

	rec := postChat(t, handler, ChatRequest{Question: "anything"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

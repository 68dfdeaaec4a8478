package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-ai/keepsake/internal/api/recovery"
	"github.com/keepsake-ai/keepsake/internal/engine"
	"github.com/keepsake-ai/keepsake/internal/model"
	"github.com/keepsake-ai/keepsake/internal/store/sqlite"
)

// scriptedDelegate drives the engine deterministically per test.
type scriptedDelegate struct {
	intent     model.Intent
	extraction model.Extraction
	reply      string
}

func (s *scriptedDelegate) ClassifyIntent(ctx context.Context, utterance string) (model.Intent, error) {
	return s.intent, nil
}

func (s *scriptedDelegate) ExtractFact(ctx context.Context, utterance string) (model.Extraction, error) {
	return s.extraction, nil
}

func (s *scriptedDelegate) ComposeReply(ctx context.Context, facts []model.RankedFact, question string) (string, error) {
	return s.reply, nil
}

func newTestServer(t *testing.T, dg *scriptedDelegate) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "api-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	eng := engine.New(st, dg, nil, zerolog.Nop())
	handler := NewAssistantHandler(eng, zerolog.Nop())

	router := mux.NewRouter()
	router.Use(recovery.Middleware)
	router.HandleFunc("/api/assistant/process", handler.Process).Methods("POST")
	router.HandleFunc("/api/assistant/memory/update", handler.CommitUpdate).Methods("POST")
	router.HandleFunc("/api/assistant/memory/delete", handler.CommitDelete).Methods("POST")
	router.HandleFunc("/api/health", NewHealthHandler().CheckHealth).Methods("GET")

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, model.AssistantResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out model.AssistantResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestProcessRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, out := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{"prompt": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User ID is required for memory operations", out.Message)
	assert.Equal(t, "memory", out.ResultType)
}

func TestProcessRequiresPrompt(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, _ := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{"userId": "u1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessRejectsInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, err := http.Post(srv.URL+"/api/assistant/process", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessConversationStoresFact(t *testing.T) {
	srv, st := newTestServer(t, &scriptedDelegate{
		intent: model.Intent{Kind: model.IntentConversation},
		extraction: model.Extraction{
			Reply:  "Thanks for letting me know you enjoy pizza!",
			Store:  true,
			Memory: "User likes pizza",
		},
	})

	resp, out := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{
		"userId": "u1",
		"prompt": "I like pizza",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Thanks for letting me know you enjoy pizza!", out.Message)
	require.NotEmpty(t, out.MemoryID)

	hits, err := st.Search(context.Background(), "u1", "pizza")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, out.MemoryID, hits[0].ID)
}

func TestProcessSearchReturnsRankedResults(t *testing.T) {
	dg := &scriptedDelegate{
		intent: model.Intent{Kind: model.IntentSearch, SearchTerm: "dog name"},
		reply:  "Your dog's name is Max.",
	}
	srv, st := newTestServer(t, dg)

	_, err := st.Append(context.Background(), "u1", "User's dog is named Max")
	require.NoError(t, err)

	resp, out := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{
		"userId": "u1",
		"prompt": "what's my dog's name?",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Your dog's name is Max.", out.Message)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "User's dog is named Max", out.Results[0].Text)
	assert.Equal(t, 2, out.Results[0].MatchCount)
}

func TestUpdateWorkflowEndToEnd(t *testing.T) {
	dg := &scriptedDelegate{
		intent: model.Intent{Kind: model.IntentUpdate, SearchTerm: "dog name", NewValue: "Max"},
	}
	srv, st := newTestServer(t, dg)
	ctx := context.Background()

	_, err := st.Append(ctx, "u1", "User's dog is named Rex")
	require.NoError(t, err)

	// Phase one: proposal
	resp, out := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{
		"userId": "u1",
		"prompt": "my dog's name is Max, not Rex",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ActionUpdateChoice, out.Action)
	assert.Equal(t, "Max", out.NewValue)
	require.Len(t, out.Results, 1)

	// Phase two: commit with the chosen id
	resp, out = postJSON(t, srv.URL+"/api/assistant/memory/update", map[string]string{
		"userId":   "u1",
		"memoryId": out.Results[0].ID,
		"newValue": "User's dog is named Max",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ActionUpdated, out.Action)

	hits, err := st.Search(ctx, "u1", "dog")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "User's dog is named Max", hits[0].Text)
}

func TestUpdateMissingParams(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, out := postJSON(t, srv.URL+"/api/assistant/memory/update", map[string]string{
		"userId": "u1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required parameters for memory update", out.Message)
}

func TestDeleteWorkflowEndToEnd(t *testing.T) {
	dg := &scriptedDelegate{
		intent: model.Intent{Kind: model.IntentDelete, SearchTerm: "job"},
	}
	srv, st := newTestServer(t, dg)
	ctx := context.Background()

	_, err := st.Append(ctx, "u1", "User works at Acme as an engineer")
	require.NoError(t, err)

	resp, out := postJSON(t, srv.URL+"/api/assistant/process", map[string]string{
		"userId": "u1",
		"prompt": "delete what I told you about my job",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ActionDeleteChoice, out.Action)
	require.Len(t, out.Results, 1)

	resp, out = postJSON(t, srv.URL+"/api/assistant/memory/delete", map[string]string{
		"userId":   "u1",
		"memoryId": out.Results[0].ID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ActionDeleted, out.Action)
	assert.Equal(t, "I've deleted the memory.", out.Message)

	hits, err := st.Search(ctx, "u1", "job")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDeleteMissingParams(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, out := postJSON(t, srv.URL+"/api/assistant/memory/delete", map[string]string{
		"memoryId": "f1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required parameters for memory deletion", out.Message)
}

func TestDeleteUnknownIDIsServerError(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	resp, out := postJSON(t, srv.URL+"/api/assistant/memory/delete", map[string]string{
		"userId":   "u1",
		"memoryId": "does-not-exist",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to delete memory. Please try again.", out.Message)
}

func TestSearchZeroHitsBodyCarriesEmptyResults(t *testing.T) {
	dg := &scriptedDelegate{
		intent: model.Intent{Kind: model.IntentSearch, SearchTerm: "unicorn"},
	}
	srv, _ := newTestServer(t, dg)

	body, err := json.Marshal(map[string]string{"userId": "u1", "prompt": "tell me about my unicorn"})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/assistant/process", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// Clients index results without guarding, so the key must be
	// present even when empty.
	assert.Contains(t, string(raw), `"results":[]`)
}

func TestCommitResponseOmitsResults(t *testing.T) {
	srv, st := newTestServer(t, &scriptedDelegate{})
	ctx := context.Background()

	id, err := st.Append(ctx, "u1", "User likes pizza")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"userId": "u1", "memoryId": id})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/assistant/memory/delete", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(raw), `"results"`)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedDelegate{})

	BindServiceHealth(func() bool { return true })
	t.Cleanup(func() { BindServiceHealth(func() bool { return healthyFlag.Load() == 1 }) })

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-assistant/internal/common/config"
	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/common/observability"
	"meal-assistant/internal/conversation"
	"meal-assistant/internal/models"
	"meal-assistant/internal/nutrition"
	"meal-assistant/internal/quantity"
	"meal-assistant/internal/session"
	"meal-assistant/internal/suggest"
)

// ==========================
// Test Helper Functions
// ==========================

type stubAnalyzer struct {
	estimate *models.RawMealEstimate
}

func (s *stubAnalyzer) AnalyzeText(_ context.Context, _ string) (*models.RawMealEstimate, error) {
	return s.estimate, nil
}

func (s *stubAnalyzer) AnalyzeImage(_ context.Context, _ []byte, _ string) (*models.RawMealEstimate, error) {
	return s.estimate, nil
}

type stubProducts struct{}

func (stubProducts) LookupByBarcode(_ context.Context, _ string) (*models.RawMealEstimate, error) {
	return nil, nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	an := &stubAnalyzer{
		estimate: &models.RawMealEstimate{
			DetectedFoods:        []string{"poulet"},
			EstimatedProtein:     31,
			EstimatedWeightGrams: 100,
			Confidence:           0.8,
		},
	}
	orch := conversation.NewOrchestrator(
		quantity.NewParser(quantity.DefaultPortionTable()),
		nutrition.DefaultCorrector(),
		suggest.DefaultGenerator(),
		an, stubProducts{},
		log,
	)
	store := session.NewStore(client, time.Hour, log)

	srv := New(config.ServerConfig{Port: 0}, orch, store, redisPinger{client}, observability.New("test"), log)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return srv, ts, mr
}

func postTurn(t *testing.T, ts *httptest.Server, body map[string]interface{}) (*http.Response, turnResponse) {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/turns", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded turnResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

// ==========================
// Turn Endpoint Tests
// ==========================

func TestHandleTurn_TextConversation(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, first := postTurn(t, ts, map[string]interface{}{
		"kind":  "text",
		"input": "du poulet grillé",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, first.SessionID)
	assert.True(t, first.AwaitingQuantity)
	assert.Equal(t, models.StateAwaitingQuantity, first.State)
	assert.NotEmpty(t, first.Suggestions)

	resp, second := postTurn(t, ts, map[string]interface{}{
		"session_id": first.SessionID,
		"kind":       "quantity",
		"input":      "150g",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.False(t, second.AwaitingQuantity)
	assert.Equal(t, models.StateIdle, second.State)
	require.NotNil(t, second.Normalized)
	assert.InDelta(t, 34.5, second.Normalized.Protein, 0.05)
}

func TestHandleTurn_GeneratesSessionID(t *testing.T) {
	_, ts, _ := newTestServer(t)

	_, first := postTurn(t, ts, map[string]interface{}{"kind": "text", "input": "du riz"})
	_, second := postTurn(t, ts, map[string]interface{}{"kind": "text", "input": "du riz"})

	assert.NotEmpty(t, first.SessionID)
	assert.NotEmpty(t, second.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestHandleTurn_PersistsContext(t *testing.T) {
	_, ts, mr := newTestServer(t)

	_, first := postTurn(t, ts, map[string]interface{}{"kind": "text", "input": "du poulet"})

	assert.True(t, mr.Exists("session:"+first.SessionID+":context"))
}

// ==========================
// Validation Tests
// ==========================

func TestHandleTurn_Validation(t *testing.T) {
	_, ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing kind", body: map[string]interface{}{"input": "du riz"}},
		{name: "unknown kind", body: map[string]interface{}{"kind": "telepathy", "input": "du riz"}},
		{name: "extra field", body: map[string]interface{}{"kind": "text", "bogus": 1}},
		{name: "non-numeric barcode", body: map[string]interface{}{
			"kind":        "scan",
			"attachments": map[string]interface{}{"barcode": "not-a-barcode"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postTurn(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHandleTurn_InvalidBase64Photo(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, _ := postTurn(t, ts, map[string]interface{}{
		"kind":        "photo",
		"attachments": map[string]interface{}{"photo": "%%% not base64 %%%"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleTurn_MethodNotAllowed(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/turns")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// ==========================
// Concurrency Tests
// ==========================

func TestHandleTurn_ConcurrentTurnRejected(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	lock := srv.sessionLock("busy-session")
	lock.Lock()
	defer lock.Unlock()

	resp, _ := postTurn(t, ts, map[string]interface{}{
		"session_id": "busy-session",
		"kind":       "text",
		"input":      "du riz",
	})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// ==========================
// Health Endpoint Tests
// ==========================

func TestHandleHealth(t *testing.T) {
	_, ts, mr := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mr.Close()

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package reputation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.ReputationConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
	}, logger.New(logger.Options{ServiceName: "reputation-test"}))
	require.NoError(t, err)
	return client
}

func TestPenalizeSLAPostsPenalty(t *testing.T) {
	agentID := uuid.New()
	leadID := uuid.New()
	var gotPath, gotAuth string
	var gotBody penaltyRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	require.NoError(t, client.PenalizeSLA(context.Background(), agentID, leadID))

	assert.Equal(t, "/v1/agents/"+agentID.String()+"/sla-penalties", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, leadID.String(), gotBody.LeadID)
	assert.Equal(t, "sla_missed", gotBody.Reason)
}

func TestPenalizeSLARetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	require.NoError(t, client.PenalizeSLA(context.Background(), uuid.New(), uuid.New()))
	assert.Equal(t, 3, attempts)
}

func TestPenalizeSLADoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	err := client.PenalizeSLA(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPenalizeSLANoopWhenUnconfigured(t *testing.T) {
	client := newClient(t, "")
	require.NoError(t, client.PenalizeSLA(context.Background(), uuid.New(), uuid.New()))
}

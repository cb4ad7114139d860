package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRequest() RefreshRequest {
	rec := &domain.JobRecord{
		ID: 42,
		JobPosting: domain.JobPosting{
			Title:           "Backend Engineer",
			Company:         "Acme",
			Description:     "Build APIs",
			Requirements:    "Go",
			RequiredSkills:  "go,postgres",
			ExperienceLevel: "senior",
			Priority:        "high",
		},
	}
	return NewRefreshRequest(rec, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestNewRefreshRequest(t *testing.T) {
	req := sampleRequest()
	assert.Equal(t, int64(42), req.JobID)
	assert.Equal(t, int64(42), req.JobData.ID)
	assert.Equal(t, "Backend Engineer", req.JobData.Title)
	assert.Equal(t, "go,postgres", req.JobData.RequiredSkills)
	assert.Equal(t, "senior", req.JobData.ExperienceLevel)
	assert.Equal(t, "Acme", req.JobData.Company)
}

type fakeBroker struct {
	body        []byte
	contentType string
	err         error
}

func (f *fakeBroker) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	f.body = body
	f.contentType = contentType
	return f.err
}

func TestPublisher_Refresh(t *testing.T) {
	broker := &fakeBroker{}
	p := NewPublisher(broker, testLogger())

	require.NoError(t, p.Refresh(context.Background(), sampleRequest()))
	assert.Equal(t, ContentType, broker.contentType)

	var decoded RefreshRequest
	require.NoError(t, json.Unmarshal(broker.body, &decoded))
	assert.Equal(t, int64(42), decoded.JobID)
	assert.Equal(t, "Build APIs", decoded.JobData.Description)
}

func TestPublisher_RefreshError(t *testing.T) {
	broker := &fakeBroker{err: errors.New("channel closed")}
	p := NewPublisher(broker, testLogger())

	err := p.Refresh(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 42")
}

func TestClient_Update(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, updatePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["job_id"])
		jobData, ok := body["job_data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Backend Engineer", jobData["title"])
		assert.NotContains(t, body, "requested_at")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","job_id":42,"embedding_size":1536,"was_edited":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", Timeout: time.Second, RateLimit: 100, Burst: 1}, testLogger())
	res, err := c.Update(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1536, res.EmbeddingSize)
	assert.True(t, res.WasEdited)
}

func TestClient_UpdateStatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		temporary bool
	}{
		{name: "server error is temporary", status: http.StatusServiceUnavailable, temporary: true},
		{name: "rate limited is temporary", status: http.StatusTooManyRequests, temporary: true},
		{name: "bad request is permanent", status: http.StatusBadRequest, temporary: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
			err := c.Refresh(context.Background(), sampleRequest())
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.temporary, statusErr.Temporary())
		})
	}
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:0", RateLimit: 0.001, Burst: 1}, testLogger())
	// drain the single token
	c.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Update(ctx, sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubmission(t *testing.T) {
	t.Run("object is a single submission", func(t *testing.T) {
		sub, err := DecodeSubmission([]byte(`  {"title":"Go Dev","email":"a@b.io","salaryMin":"₹1,20,000"}`))
		require.NoError(t, err)
		assert.False(t, sub.Batch)
		require.Len(t, sub.Items, 1)
		assert.NoError(t, sub.Items[0].Err)
		assert.Equal(t, "Go Dev", sub.Items[0].Input.Title)
		assert.Equal(t, "₹1,20,000", sub.Items[0].Input.SalaryMin.String())
	})

	t.Run("array is a batch even with one element", func(t *testing.T) {
		sub, err := DecodeSubmission([]byte(`[{"title":"A"}]`))
		require.NoError(t, err)
		assert.True(t, sub.Batch)
		assert.Len(t, sub.Items, 1)
	})

	t.Run("bad element does not affect siblings", func(t *testing.T) {
		sub, err := DecodeSubmission([]byte(`[{"title":"A"},{"title":5},{"salaryMax":true}]`))
		require.NoError(t, err)
		require.Len(t, sub.Items, 3)
		assert.NoError(t, sub.Items[0].Err)
		assert.Error(t, sub.Items[1].Err)
		assert.Error(t, sub.Items[2].Err)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := DecodeSubmission([]byte("   "))
		assert.ErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("scalar body", func(t *testing.T) {
		_, err := DecodeSubmission([]byte(`"hello"`))
		assert.Error(t, err)
	})

	t.Run("malformed object", func(t *testing.T) {
		_, err := DecodeSubmission([]byte(`{"title":`))
		assert.Error(t, err)
	})

	t.Run("wrong field type in single object is an item failure", func(t *testing.T) {
		sub, err := DecodeSubmission([]byte(`{"title":["x"]}`))
		require.NoError(t, err)
		require.Len(t, sub.Items, 1)
		assert.Error(t, sub.Items[0].Err)
	})

	t.Run("truncated array", func(t *testing.T) {
		_, err := DecodeSubmission([]byte(`[{"title":"A"}`))
		assert.Error(t, err)
	})
}

func TestNewJobPostingDTO(t *testing.T) {
	assert.Nil(t, NewJobPostingDTO(nil))

	rec := &domain.JobRecord{
		ID: 12,
		JobPosting: domain.JobPosting{
			Title:     "Platform Engineer",
			Company:   "Acme",
			City:      "Pune",
			WorkType:  domain.WorkTypeRemote,
			JobStatus: domain.JobStatusActive,
		},
		CompanyName: "Acme",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out := NewJobPostingDTO(rec)
	assert.Equal(t, "job-listings-platform-engineer-freshers-full-time-acme-pune-12", out.Slug)

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(12), decoded["id"])
	assert.Equal(t, "Platform Engineer", decoded["title"])
	assert.Equal(t, "REMOTE", decoded["workType"])
	assert.Equal(t, "Acme", decoded["companyName"])
	assert.Equal(t, out.Slug, decoded["slug"])
}

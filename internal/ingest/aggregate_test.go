package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(inputs ...domain.JobPostingInput) *dto.Submission {
	items := make([]dto.Item, len(inputs))
	for i, in := range inputs {
		items[i] = dto.Item{Input: in}
	}
	return &dto.Submission{Batch: true, Items: items}
}

func TestAggregator_Single(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness()
		agg := NewAggregator(h.pipeline, 0, discardLogger())

		status, body := agg.Run(context.Background(), &dto.Submission{Items: []dto.Item{{Input: validInput()}}}, domain.Actor{})
		assert.Equal(t, http.StatusCreated, status)

		resp, ok := body.(dto.SingleResponse)
		require.True(t, ok)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Job)
		assert.NotEmpty(t, resp.Job.Slug)
	})

	t.Run("missing email", func(t *testing.T) {
		h := newHarness()
		agg := NewAggregator(h.pipeline, 0, discardLogger())
		in := validInput()
		in.Email = ""

		status, body := agg.Run(context.Background(), &dto.Submission{Items: []dto.Item{{Input: in}}}, domain.Actor{})
		assert.Equal(t, http.StatusBadRequest, status)

		resp, ok := body.(dto.SingleResponse)
		require.True(t, ok)
		assert.False(t, resp.Success)
		assert.Equal(t, "Email is required", resp.Error)
		assert.Nil(t, resp.Job)
	})
}

func TestAggregator_BatchPartial(t *testing.T) {
	h := newHarness()
	agg := NewAggregator(h.pipeline, 0, discardLogger())

	bad := validInput()
	bad.WorkType = "SPACE"

	status, body := agg.Run(context.Background(), batchOf(validInput(), bad, validInput()), domain.Actor{})
	assert.Equal(t, http.StatusMultiStatus, status)

	resp, ok := body.(dto.BatchResponse)
	require.True(t, ok)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.TotalJobs)
	assert.Equal(t, 2, resp.SuccessfulJobs)
	assert.Equal(t, 1, resp.FailedJobs)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].Index)
	assert.False(t, resp.Errors[0].Success)
	assert.Contains(t, resp.Errors[0].FieldErrors, "workType")
	assert.Contains(t, resp.ValidationErrors, "jobs[1].workType")
	assert.NotEmpty(t, resp.Suggestions)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].Index)
	assert.Equal(t, 2, resp.Results[1].Index)
	assert.Contains(t, resp.Message, "2 of 3")
}

func TestAggregator_BatchAllFail(t *testing.T) {
	h := newHarness()
	agg := NewAggregator(h.pipeline, 0, discardLogger())

	a := validInput()
	a.Email = ""
	b := validInput()
	b.Email = "also-bad"
	c := validInput()
	c.SalaryMin = domain.FlexString("abc")

	status, body := agg.Run(context.Background(), batchOf(a, b, c), domain.Actor{})
	assert.Equal(t, http.StatusBadRequest, status)

	resp := body.(dto.BatchResponse)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.Len(t, resp.Errors, 3)
	assert.Equal(t, "Email is required", resp.Errors[0].Error)
	assert.Contains(t, resp.ValidationErrors, "jobs[2].salaryMin")
	// both email failures share a suggestion
	assert.Len(t, resp.Suggestions, 2)
}

func TestAggregator_BatchAllSucceed(t *testing.T) {
	h := newHarness()
	agg := NewAggregator(h.pipeline, 0, discardLogger())

	status, body := agg.Run(context.Background(), batchOf(validInput(), validInput()), domain.Actor{})
	assert.Equal(t, http.StatusCreated, status)

	resp := body.(dto.BatchResponse)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Errors)
	assert.Nil(t, resp.ValidationErrors)
}

func TestAggregator_BatchCountsInvariant(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for failing := 0; failing <= n; failing++ {
			t.Run(fmt.Sprintf("n=%d f=%d", n, failing), func(t *testing.T) {
				h := newHarness()
				agg := NewAggregator(h.pipeline, 0, discardLogger())

				inputs := make([]domain.JobPostingInput, n)
				for i := range inputs {
					inputs[i] = validInput()
					if i < failing {
						inputs[i].CompanyID = domain.Flex{}
					}
				}

				status, body := agg.Run(context.Background(), batchOf(inputs...), domain.Actor{})
				resp := body.(dto.BatchResponse)
				assert.Equal(t, n, len(resp.Results)+len(resp.Errors))

				switch {
				case failing == n:
					assert.Equal(t, http.StatusBadRequest, status)
				case failing == 0:
					assert.Equal(t, http.StatusCreated, status)
				default:
					assert.Equal(t, http.StatusMultiStatus, status)
				}

				for i, e := range resp.Errors {
					assert.Equal(t, i, e.Index)
				}
				for i, r := range resp.Results {
					assert.Equal(t, failing+i, r.Index)
				}
			})
		}
	}
}

func TestAggregator_BatchLimits(t *testing.T) {
	h := newHarness()
	agg := NewAggregator(h.pipeline, 2, discardLogger())

	status, body := agg.Run(context.Background(), &dto.Submission{Batch: true}, domain.Actor{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No job postings provided", body.(dto.ErrorResponse).Message)

	status, _ = agg.Run(context.Background(), batchOf(validInput(), validInput(), validInput()), domain.Actor{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, h.store.jobs)
}

func TestAggregator_NotifierFailureStillSucceeds(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("smtp down")
	agg := NewAggregator(h.pipeline, 0, discardLogger())

	status, body := agg.Run(context.Background(), batchOf(validInput()), domain.Actor{})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, body.(dto.BatchResponse).SuccessfulJobs)
}

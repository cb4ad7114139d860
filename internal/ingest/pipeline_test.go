package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRefresh(t *testing.T, r *recordingRefresher) int64 {
	t.Helper()
	select {
	case req := <-r.calls:
		return req.JobID
	case <-time.After(time.Second):
		t.Fatal("expected an embedding refresh")
		return 0
	}
}

func assertNoRefresh(t *testing.T, h *harness) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.effects.Wait(ctx))
	assert.Empty(t, h.refresher.calls)
}

func TestPipeline_ProcessCreates(t *testing.T) {
	h := newHarness()

	out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
	require.True(t, out.Success())
	require.NotNil(t, out.Record)
	assert.Equal(t, "Acme", out.Record.CompanyName)

	assert.Equal(t, out.Record.ID, waitRefresh(t, h.refresher))

	sent := h.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "hr@acme.io", sent[0].to)
	assert.Equal(t, domain.ActionCreated, sent[0].info.Action)
	assert.Equal(t, domain.DefaultActorName, sent[0].info.ActorName)
}

func TestPipeline_ProcessDecodeFailure(t *testing.T) {
	h := newHarness()

	out := h.pipeline.Process(context.Background(), dto.Item{Err: errors.New("cannot unmarshal number into title")}, domain.Actor{})
	require.False(t, out.Success())
	assert.ErrorIs(t, out.Err, domain.ErrInvalidPayload)
	assert.Contains(t, out.Err.Error(), "Invalid job posting payload")
	assert.Empty(t, h.notifier.all())
}

func TestPipeline_ProcessUnknownCompany(t *testing.T) {
	h := newHarness()
	in := validInput()
	in.CompanyID = domain.FlexInt(99)

	out := h.pipeline.Process(context.Background(), dto.Item{Input: in}, domain.Actor{})
	require.False(t, out.Success())
	assert.ErrorIs(t, out.Err, domain.ErrCompanyNotFound)
	assert.Equal(t, "Company ID 99 does not exist", out.Err.Error())
	assert.Empty(t, h.store.jobs)
}

func TestPipeline_ProcessStoreForeignKeyRace(t *testing.T) {
	h := newHarness()
	h.pipeline = NewPipeline(h.store, nil, h.effects, discardLogger())
	in := validInput()
	in.CompanyID = domain.FlexInt(77)

	out := h.pipeline.Process(context.Background(), dto.Item{Input: in}, domain.Actor{})
	var verr *ValidationError
	require.ErrorAs(t, out.Err, &verr)
	assert.True(t, verr.Has(KindCompanyNotFound))
}

func TestPipeline_ProcessStoreFailure(t *testing.T) {
	h := newHarness()
	h.store.createErr = errStoreDown

	out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
	require.False(t, out.Success())
	assert.ErrorIs(t, out.Err, errStoreDown)
	assertNoRefresh(t, h)
	assert.Empty(t, h.notifier.all())
}

func TestPipeline_ProcessConstraintViolation(t *testing.T) {
	h := newHarness()
	h.store.createErr = fmt.Errorf("%w: job_postings_salary_range", domain.ErrConstraintViolation)

	out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
	var verr *ValidationError
	require.ErrorAs(t, out.Err, &verr)
	assert.True(t, verr.Has(KindPayload))
	assert.ErrorIs(t, out.Err, domain.ErrInvalidPayload)
}

func TestPipeline_NotificationFailureDoesNotFailWrite(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		h := newHarness()
		h.notifier.err = errors.New("smtp timeout")

		out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
		assert.True(t, out.Success())
		assert.Len(t, h.store.jobs, 1)
	})

	t.Run("panic", func(t *testing.T) {
		h := newHarness()
		h.notifier.panic = true

		out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
		assert.True(t, out.Success())
	})
}

func TestPipeline_RefreshFailureDoesNotFailWrite(t *testing.T) {
	h := newHarness()
	h.refresher.err = errors.New("matching service down")

	out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
	assert.True(t, out.Success())
	waitRefresh(t, h.refresher)
}

func TestPipeline_RefreshOutlivesRequestContext(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	out := h.pipeline.Process(ctx, dto.Item{Input: validInput()}, domain.Actor{})
	cancel()
	require.True(t, out.Success())
	assert.Equal(t, out.Record.ID, waitRefresh(t, h.refresher))
}

func createOne(t *testing.T, h *harness) *domain.JobRecord {
	t.Helper()
	out := h.pipeline.Process(context.Background(), dto.Item{Input: validInput()}, domain.Actor{})
	require.True(t, out.Success())
	waitRefresh(t, h.refresher)
	return out.Record
}

func TestPipeline_UpdatePriorityOnlySkipsRefresh(t *testing.T) {
	h := newHarness()
	rec := createOne(t, h)

	updated, err := h.pipeline.Update(context.Background(), rec.ID, []byte(`{"priority":"urgent"}`), domain.Actor{Name: "Dana"})
	require.NoError(t, err)
	assert.Equal(t, "urgent", updated.Priority)
	assert.Equal(t, rec.Description, updated.Description)

	assertNoRefresh(t, h)

	sent := h.notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, domain.ActionUpdated, sent[1].info.Action)
	assert.Equal(t, "Dana", sent[1].info.ActorName)
}

func TestPipeline_UpdateDescriptionRefreshes(t *testing.T) {
	h := newHarness()
	rec := createOne(t, h)

	_, err := h.pipeline.Update(context.Background(), rec.ID, []byte(`{"description":"Own the ingestion pipeline"}`), domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, waitRefresh(t, h.refresher))
}

func TestPipeline_UpdateStatusChange(t *testing.T) {
	h := newHarness()
	rec := createOne(t, h)

	updated, err := h.pipeline.Update(context.Background(), rec.ID, []byte(`{"jobStatus":"closed"}`), domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusClosed, updated.JobStatus)

	sent := h.notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, domain.ActionStatusChanged, sent[1].info.Action)
	assert.Contains(t, sent[1].info.Reason, "ACTIVE to CLOSED")
}

func TestPipeline_UpdateRederivesLocation(t *testing.T) {
	h := newHarness()
	rec := createOne(t, h)

	updated, err := h.pipeline.Update(context.Background(), rec.ID, []byte(`{"city":"Mumbai"}`), domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai, India", updated.FullLocation)
}

func TestPipeline_UpdateKeepsSalaryUnlessPatched(t *testing.T) {
	h := newHarness()
	in := validInput()
	in.SalaryMin = domain.FlexString("₹50,000")
	in.SalaryMax = domain.FlexInt(90000)
	out := h.pipeline.Process(context.Background(), dto.Item{Input: in}, domain.Actor{})
	require.True(t, out.Success())

	updated, err := h.pipeline.Update(context.Background(), out.Record.ID, []byte(`{"title":"Staff Engineer"}`), domain.Actor{})
	require.NoError(t, err)
	require.NotNil(t, updated.SalaryMin)
	assert.Equal(t, int64(50000), *updated.SalaryMin)

	_, err = h.pipeline.Update(context.Background(), out.Record.ID, []byte(`{"salaryMin":"200000"}`), domain.Actor{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(KindSalaryRange))
}

func TestPipeline_UpdateErrors(t *testing.T) {
	h := newHarness()
	rec := createOne(t, h)

	_, err := h.pipeline.Update(context.Background(), 4040, []byte(`{"title":"x"}`), domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = h.pipeline.Update(context.Background(), rec.ID, []byte(`[1,2]`), domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = h.pipeline.Update(context.Background(), rec.ID, []byte(`null`), domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = h.pipeline.Update(context.Background(), rec.ID, []byte(`{"email":"nope"}`), domain.Actor{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(KindEmailInvalid))

	_, err = h.pipeline.Update(context.Background(), rec.ID, []byte(`{"companyId":55}`), domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
}

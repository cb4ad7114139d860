package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/embedding"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	mu        sync.Mutex
	nextID    int64
	jobs      map[int64]*domain.JobRecord
	companies map[int64]string
	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    100,
		jobs:      make(map[int64]*domain.JobRecord),
		companies: map[int64]string{1: "Acme", 2: "Globex"},
	}
}

func (s *memStore) Create(_ context.Context, job *domain.JobPosting) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.companies[job.CompanyID]; !ok {
		return nil, domain.ErrCompanyNotFound
	}
	s.nextID++
	now := time.Now()
	rec := &domain.JobRecord{ID: s.nextID, JobPosting: *job, CompanyName: job.Company, CreatedAt: now, UpdatedAt: now}
	s.jobs[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (s *memStore) Update(_ context.Context, id int64, job *domain.JobPosting) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	updated := *rec
	updated.JobPosting = *job
	updated.CompanyName = job.Company
	updated.UpdatedAt = time.Now()
	s.jobs[id] = &updated
	cp := updated
	return &cp, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) CompanyExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.companies[id]
	return ok, nil
}

type recordingRefresher struct {
	calls chan embedding.RefreshRequest
	err   error
}

func newRecordingRefresher() *recordingRefresher {
	return &recordingRefresher{calls: make(chan embedding.RefreshRequest, 16)}
}

func (r *recordingRefresher) Refresh(_ context.Context, req embedding.RefreshRequest) error {
	r.calls <- req
	return r.err
}

type notification struct {
	to   string
	job  *domain.JobRecord
	info domain.ActionInfo
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []notification
	err   error
	panic bool
}

func (n *recordingNotifier) record(to string, job *domain.JobRecord, info domain.ActionInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.panic {
		panic("mailer exploded")
	}
	n.sent = append(n.sent, notification{to: to, job: job, info: info})
	return n.err
}

func (n *recordingNotifier) SendCreate(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.record(to, job, info)
}

func (n *recordingNotifier) SendUpdate(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.record(to, job, info)
}

func (n *recordingNotifier) SendDelete(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.record(to, job, info)
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}

var errStoreDown = errors.New("connection refused")

type harness struct {
	store     *memStore
	refresher *recordingRefresher
	notifier  *recordingNotifier
	effects   *Orchestrator
	pipeline  *Pipeline
}

func newHarness() *harness {
	h := &harness{
		store:     newMemStore(),
		refresher: newRecordingRefresher(),
		notifier:  &recordingNotifier{},
	}
	h.effects = NewOrchestrator(h.refresher, h.notifier, time.Second, discardLogger())
	h.pipeline = NewPipeline(h.store, h.store, h.effects, discardLogger())
	return h
}

func validInput() domain.JobPostingInput {
	return domain.JobPostingInput{
		Title:           "Backend Engineer",
		Company:         "Acme",
		CompanyID:       domain.FlexInt(1),
		Email:           "hr@acme.io",
		City:            "Pune",
		Country:         "India",
		ExperienceLevel: "mid",
		Description:     "Build services",
		Priority:        "normal",
	}
}

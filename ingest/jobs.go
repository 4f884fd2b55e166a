package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daltunay/perfumes/metrics"
	"github.com/daltunay/perfumes/models"
	"github.com/daltunay/perfumes/webhook"
	"github.com/google/uuid"
)

// ErrJobRunning is returned by Start while another job is in progress.
var ErrJobRunning = errors.New("an ingest job is already running")

// jobTTL is how long finished jobs stay queryable.
const jobTTL = time.Hour

// Job is one background ingest run. Its fields are guarded by mu; read them
// through Snapshot.
type Job struct {
	mu         sync.Mutex
	id         string
	status     string
	discovered int
	pending    int
	completed  int
	succeeded  int
	failures   []models.FetchFailure
	err        *models.ErrorDetail
	createdAt  time.Time
	finishedAt time.Time
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Snapshot returns the job state as an API response.
func (j *Job) Snapshot() models.FetchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	resp := models.FetchStatusResponse{
		ID:         j.id,
		Status:     j.status,
		Discovered: j.discovered,
		Pending:    j.pending,
		Completed:  j.completed,
		Succeeded:  j.succeeded,
		Failures:   append([]models.FetchFailure(nil), j.failures...),
		Error:      j.err,
		CreatedAt:  j.createdAt.Unix(),
	}
	if !j.finishedAt.IsZero() {
		resp.FinishedAt = j.finishedAt.Unix()
	}
	return resp
}

func (j *Job) setPending(discovered, pending int) {
	j.mu.Lock()
	j.discovered = discovered
	j.pending = pending
	j.mu.Unlock()
}

func (j *Job) progress(done, _ int, err error) {
	j.mu.Lock()
	j.completed = done
	if err == nil {
		j.succeeded++
	}
	j.mu.Unlock()
}

// finish records the outcome. release runs before the terminal status
// becomes visible to Snapshot.
func (j *Job) finish(report *Report, err error, release func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	release()

	j.finishedAt = time.Now()
	if err != nil {
		j.status = models.JobFailed
		code := models.ErrCodeStore
		var walkErr *models.CatalogWalkError
		if errors.As(err, &walkErr) {
			code = models.ErrCodeCatalogWalk
		}
		j.err = &models.ErrorDetail{Code: code, Message: err.Error()}
		return
	}

	j.status = report.Status()
	j.succeeded = len(report.Products)
	j.failures = make([]models.FetchFailure, 0, len(report.Failures))
	for _, f := range report.Failures {
		j.failures = append(j.failures, models.FetchFailure{Slug: f.Slug, Error: f.Err.Error()})
	}
}

// Jobs starts ingest runs in the background and keeps their state for an
// hour. At most one job runs at a time.
type Jobs struct {
	pipeline *Pipeline
	sender   *webhook.Sender

	jobs    sync.Map // id -> *Job
	running atomic.Bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobs creates a job runner over p. sender may be nil when webhooks are
// not used.
func NewJobs(p *Pipeline, sender *webhook.Sender) *Jobs {
	ctx, cancel := context.WithCancel(context.Background())
	js := &Jobs{pipeline: p, sender: sender, ctx: ctx, cancel: cancel}
	go js.cleanupLoop()
	return js
}

// Start launches an ingest job for req and returns immediately.
func (js *Jobs) Start(req models.FetchRequest) (*Job, error) {
	if !js.running.CompareAndSwap(false, true) {
		return nil, ErrJobRunning
	}

	job := &Job{
		id:        uuid.NewString(),
		status:    models.JobProcessing,
		createdAt: time.Now(),
	}
	js.jobs.Store(job.id, job)

	js.wg.Add(1)
	go js.run(job, req)
	return job, nil
}

// Get returns the job with the given id.
func (js *Jobs) Get(id string) (*Job, bool) {
	val, ok := js.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*Job), true
}

// Running reports whether a job is in progress.
func (js *Jobs) Running() bool {
	return js.running.Load()
}

// Wait blocks until no job is running.
func (js *Jobs) Wait() {
	js.wg.Wait()
}

// Stop cancels any running job and waits for it and its webhook delivery
// to finish.
func (js *Jobs) Stop() {
	js.cancel()
	js.wg.Wait()
	if js.sender != nil {
		js.sender.Wait()
	}
}

func (js *Jobs) run(job *Job, req models.FetchRequest) {
	defer js.wg.Done()

	slog.Info("ingest job started", "id", job.id, "refresh", req.Refresh, "concurrency", req.Concurrency)

	report, err := js.pipeline.Run(js.ctx, RunOptions{
		Refresh:     req.Refresh,
		Concurrency: req.Concurrency,
		OnPending:   job.setPending,
		OnProgress:  job.progress,
	})
	job.finish(report, err, func() { js.running.Store(false) })

	snap := job.Snapshot()
	metrics.IngestJobs.WithLabelValues(snap.Status).Inc()
	if err != nil {
		slog.Error("ingest job failed", "id", job.id, "error", err)
	} else {
		slog.Info("ingest job finished",
			"id", job.id,
			"status", snap.Status,
			"succeeded", snap.Succeeded,
			"failed", len(snap.Failures),
		)
	}

	if req.WebhookURL != "" && js.sender != nil {
		eventType := webhook.EventIngestCompleted
		if snap.Status == models.JobFailed {
			eventType = webhook.EventIngestFailed
		}
		js.sender.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(eventType, job.id, snap))
	}
}

func (js *Jobs) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-js.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-jobTTL)
			js.jobs.Range(func(key, value any) bool {
				job := value.(*Job)
				job.mu.Lock()
				expired := !job.finishedAt.IsZero() && job.finishedAt.Before(cutoff)
				job.mu.Unlock()
				if expired {
					js.jobs.Delete(key)
				}
				return true
			})
		}
	}
}

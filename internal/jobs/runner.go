// Package jobs runs the agent's background work: thumbnail strips and
// cloud submissions. Jobs are rows in the local database; the runner polls
// for pending ones so work survives an agent restart.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/stepcut/stepcut-agent/internal/cloud"
	"github.com/stepcut/stepcut-agent/internal/editor"
	"github.com/stepcut/stepcut-agent/internal/thumbs"
)

// SamplerFactory builds a thumbnail sampler for a draft's video. The
// default wiring backs it with the in-process capture stub; a real
// decoder-backed handle slots in here later.
type SamplerFactory func(draft *editor.Draft) (*thumbs.Sampler, error)

type Runner struct {
	repo         editor.Repository
	cloudClient  cloud.Client
	samplers     SamplerFactory
	thumbsDir    string
	thumbCount   int
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo editor.Repository, cloudClient cloud.Client, samplers SamplerFactory, thumbsDir string, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		cloudClient:  cloudClient,
		samplers:     samplers,
		thumbsDir:    thumbsDir,
		thumbCount:   thumbs.DefaultCount,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

// SetThumbCount overrides the strip size, for constrained hosts.
func (r *Runner) SetThumbCount(n int) {
	if n > 0 {
		r.thumbCount = n
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case editor.JobTypeThumbnails:
		r.processThumbnailJob(ctx, job)

	case editor.JobTypeSubmit:
		r.processSubmitJob(ctx, job)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processThumbnailJob(ctx context.Context, job *editor.Job) {
	draft, err := r.repo.GetDraft(ctx, job.DraftID)
	if err != nil || draft == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, "draft not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusRunning, "")

	sampler, err := r.samplers(draft)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, fmt.Sprintf("sampler unavailable: %v", err))
		return
	}

	strip, err := sampler.Sample(ctx, r.thumbCount)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, fmt.Sprintf("sampling failed: %v", err))
		return
	}
	if len(strip) == 0 {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, "no frames captured")
		return
	}

	outDir := filepath.Join(r.thumbsDir, draft.ID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, fmt.Sprintf("create thumbs dir: %v", err))
		return
	}

	for i, th := range strip {
		path := filepath.Join(outDir, fmt.Sprintf("thumb_%02d.jpg", th.Index))
		if err := os.WriteFile(path, th.Data, 0644); err != nil {
			r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, fmt.Sprintf("write thumbnail: %v", err))
			return
		}
		r.repo.UpdateJobProgress(ctx, job.ID, (i+1)*100/len(strip))
	}

	r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusCompleted, "")
	r.logger.Info("thumbnail job completed", "job_id", job.ID, "draft_id", draft.ID, "count", len(strip))
}

func (r *Runner) processSubmitJob(ctx context.Context, job *editor.Job) {
	draft, err := r.repo.GetDraft(ctx, job.DraftID)
	if err != nil || draft == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, "draft not found")
		return
	}

	if draft.VideoPath == "" && draft.VideoURL == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, "draft has no video")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusRunning, "")

	if draft.VideoURL == "" {
		url, err := r.cloudClient.UploadVideo(ctx, draft.RecipeID, draft.VideoPath)
		if err != nil {
			r.failSubmit(ctx, job, fmt.Sprintf("video upload failed: %v", err), err)
			return
		}
		draft.VideoURL = url
		if err := r.repo.SaveDraft(ctx, draft); err != nil {
			r.logger.Error("failed to persist video url", "draft_id", draft.ID, "error", err)
		}
		r.repo.UpdateJobProgress(ctx, job.ID, 50)
	}

	steps := make([]cloud.StepPayload, 0, len(draft.Segments))
	for _, seg := range draft.Segments {
		steps = append(steps, cloud.StepPayload{
			Description: seg.Description,
			StartTime:   seg.StartTime,
			EndTime:     seg.EndTime,
		})
	}

	accepted, err := r.cloudClient.SubmitSteps(ctx, draft.RecipeID, steps)
	if err != nil {
		r.failSubmit(ctx, job, fmt.Sprintf("step submission failed: %v", err), err)
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusCompleted, "")
	r.logger.Info("submit job completed",
		"job_id", job.ID,
		"draft_id", draft.ID,
		"accepted_count", accepted,
	)
}

// failSubmit marks the job failed, or leaves it pending for the next poll
// when the cloud error is transient.
func (r *Runner) failSubmit(ctx context.Context, job *editor.Job, msg string, err error) {
	var submitErr *cloud.SubmitError
	if errors.As(err, &submitErr) && submitErr.IsRetryable() {
		r.logger.Warn("submit will be retried", "job_id", job.ID, "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusPending, msg)
		return
	}
	r.logger.Error("submit failed", "job_id", job.ID, "error", err)
	r.repo.UpdateJobStatus(ctx, job.ID, editor.JobStatusFailed, msg)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == editor.JobStatusRunning {
			count++
		}
	}
	return count
}

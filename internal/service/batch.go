package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Batcher runs batch translation jobs through a worker pool. Each job is a
// list of per-page unit sets; pages are processed independently, and a page
// failure marks the job partial rather than failed.
type Batcher struct {
	svc   *Service
	jobs  *JobStore
	queue chan *Job
	log   *slog.Logger

	workerCount int
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewBatcher(svc *Service, log *slog.Logger) *Batcher {
	return &Batcher{
		svc:         svc,
		jobs:        NewJobStore(svc.cfg.JobTTL),
		queue:       make(chan *Job, svc.cfg.MaxQueueSize),
		log:         log,
		workerCount: svc.cfg.WorkerCount,
	}
}

// Start launches worker goroutines.
func (b *Batcher) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	for range b.workerCount {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-b.queue:
					if !ok {
						return
					}
					b.process(workerCtx, job)
				}
			}
		}()
	}

	// Job store cleanup.
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				b.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pool.
func (b *Batcher) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	close(b.queue)
	b.wg.Wait()
}

// Submit queues a batch. Fails fast when the queue is full.
func (b *Batcher) Submit(ctx context.Context, pages []PageUnits) (*Job, error) {
	if err := b.svc.requireMultilingual(ctx); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	now := time.Now()
	job := &Job{
		ID:        newPageID(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		pages:     pages,
	}
	job.Progress.TotalPages = len(pages)

	b.jobs.Put(job)
	select {
	case b.queue <- job:
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return nil, fmt.Errorf("job queue is full (%d)", cap(b.queue))
	}
}

// GetJob returns a job by id, or nil.
func (b *Batcher) GetJob(id string) *Job {
	return b.jobs.Get(id)
}

func (b *Batcher) process(ctx context.Context, job *Job) {
	log := b.log.With("job_id", job.ID)
	job.SetStatus(StatusApplying, "applying")

	failed := 0
	for _, page := range job.pages {
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "cancelled")
			return
		}
		res, err := b.svc.UpdateTranslatedPage(ctx, page.DocumentID, page.Units, UpdateOptions{FullUpdate: page.FullUpdate})
		if err != nil {
			failed++
			job.AddError(fmt.Sprintf("page %s: %s", page.DocumentID, err))
			log.Error("batch page failed", "doc_id", page.DocumentID, "error", err)
			continue
		}
		job.AddPageResult(res.Applied, len(res.Unresolved))
	}

	switch {
	case failed == len(job.pages):
		job.SetStatus(StatusFailed, "done")
	case failed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("batch finished", "pages", len(job.pages), "failed", failed)
}

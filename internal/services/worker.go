package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/repositories"
)

const pendingBatchSize = 10

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(evalID uuid.UUID)
}

type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
}

type worker struct {
	evalRepo     repositories.EvaluationRepository
	matchService MatchService
	jobQueue     chan uuid.UUID
	opts         WorkerOptions
	wg           conc.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewWorker(
	evalRepo repositories.EvaluationRepository,
	matchService MatchService,
	opts WorkerOptions,
	log *zap.Logger,
) Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}

	return &worker{
		evalRepo:     evalRepo,
		matchService: matchService,
		jobQueue:     make(chan uuid.UUID, opts.QueueSize),
		opts:         opts,
		stopChan:     make(chan struct{}),
		logger:       log.With(zap.String("component", "worker")),
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker. Cancelling ctx does not abort running jobs; only
// Stop ends the worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting worker", zap.Int("concurrency", w.opts.Concurrency))

	jobCtx := context.WithoutCancel(ctx)
	for i := 0; i < w.opts.Concurrency; i++ {
		workerID := i + 1
		w.wg.Go(func() {
			w.processJobs(jobCtx, workerID)
		})
	}

	w.wg.Go(func() {
		w.pollPendingJobs()
	})
}

// Stop implements Worker. Jobs already running finish first.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping worker")
		close(w.stopChan)
		if recovered := w.wg.WaitAndRecover(); recovered != nil {
			w.logger.Error("worker goroutine panicked", zap.String("panic", recovered.String()))
		}
		w.logger.Info("worker stopped")
	})
}

// EnqueueJob implements Worker. A job that is already queued or running is ignored.
func (w *worker) EnqueueJob(evalID uuid.UUID) {
	if !w.claim(evalID) {
		return
	}

	select {
	case w.jobQueue <- evalID:
		w.logger.Debug("job enqueued", zap.String("evaluation_id", evalID.String()))
	case <-w.stopChan:
		w.release(evalID)
		w.logger.Warn("worker stopped, cannot enqueue job", zap.String("evaluation_id", evalID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	log := w.logger.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case evalID := <-w.jobQueue:
			log.Info("processing job", zap.String("evaluation_id", evalID.String()))
			if err := w.matchService.EvaluateResume(ctx, evalID); err != nil {
				log.Warn("job failed", zap.String("evaluation_id", evalID.String()), zap.Error(err))
			} else {
				log.Info("job completed", zap.String("evaluation_id", evalID.String()))
			}
			w.release(evalID)
		}
	}
}

func (w *worker) pollPendingJobs() {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pendingJobs, err := w.evalRepo.FindPendingJobs(pendingBatchSize)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.Debug("found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

func (w *worker) claim(evalID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.inFlight[evalID]; ok {
		return false
	}
	w.inFlight[evalID] = struct{}{}
	return true
}

func (w *worker) release(evalID uuid.UUID) {
	w.mu.Lock()
	delete(w.inFlight, evalID)
	w.mu.Unlock()
}

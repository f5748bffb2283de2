package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
)

type recordingMatchService struct {
	mu      sync.Mutex
	seen    []uuid.UUID
	done    chan uuid.UUID
	release chan struct{}
}

func (s *recordingMatchService) Match(context.Context, string, string) (*MatchResult, error) {
	return nil, nil
}

func (s *recordingMatchService) EvaluateResume(_ context.Context, evalID uuid.UUID) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.seen = append(s.seen, evalID)
	s.mu.Unlock()
	select {
	case s.done <- evalID:
	default:
	}
	return nil
}

func TestWorkerProcessesEnqueuedJobs(t *testing.T) {
	service := &recordingMatchService{done: make(chan uuid.UUID, 4)}
	w := NewWorker(newStubEvalRepo(), service, WorkerOptions{Concurrency: 2, PollInterval: time.Hour}, nil)

	w.Start(context.Background())
	defer w.Stop()

	first, second := uuid.New(), uuid.New()
	w.EnqueueJob(first)
	w.EnqueueJob(second)

	got := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-service.done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for jobs")
		}
	}

	if !got[first] || !got[second] {
		t.Fatalf("expected both jobs to run, got %v", got)
	}
}

func TestWorkerSkipsDuplicateJobs(t *testing.T) {
	service := &recordingMatchService{done: make(chan uuid.UUID, 4), release: make(chan struct{})}
	w := NewWorker(newStubEvalRepo(), service, WorkerOptions{Concurrency: 1, PollInterval: time.Hour}, nil)

	w.Start(context.Background())

	id := uuid.New()
	w.EnqueueJob(id)
	w.EnqueueJob(id)
	close(service.release)

	select {
	case <-service.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for job")
	}

	w.Stop()

	service.mu.Lock()
	defer service.mu.Unlock()
	if len(service.seen) != 1 {
		t.Fatalf("expected the job to run once, got %d", len(service.seen))
	}
}

func TestWorkerPollsQueuedEvaluations(t *testing.T) {
	queued := &models.Evaluation{ID: uuid.New(), Status: models.StatusQueued}
	service := &recordingMatchService{done: make(chan uuid.UUID, 4)}
	w := NewWorker(newStubEvalRepo(queued), service, WorkerOptions{Concurrency: 1, PollInterval: 10 * time.Millisecond}, nil)

	w.Start(context.Background())
	defer w.Stop()

	select {
	case id := <-service.done:
		if id != queued.ID {
			t.Fatalf("expected %s, got %s", queued.ID, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the poller")
	}
}

// ctxMatchService blocks until released and records the context error it saw.
type ctxMatchService struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (s *ctxMatchService) Match(context.Context, string, string) (*MatchResult, error) {
	return nil, nil
}

func (s *ctxMatchService) EvaluateResume(ctx context.Context, _ uuid.UUID) error {
	close(s.started)
	<-s.release
	s.ctxErr <- ctx.Err()
	return nil
}

func TestWorkerFinishesRunningJobAfterCancel(t *testing.T) {
	service := &ctxMatchService{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	w := NewWorker(newStubEvalRepo(), service, WorkerOptions{Concurrency: 1, PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.EnqueueJob(uuid.New())

	select {
	case <-service.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for job to start")
	}

	cancel()
	close(service.release)
	w.Stop()

	select {
	case err := <-service.ctxErr:
		if err != nil {
			t.Fatalf("expected running job to keep a live context, got %v", err)
		}
	default:
		t.Fatalf("expected job to finish before Stop returned")
	}
}

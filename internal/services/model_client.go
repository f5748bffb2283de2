package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ModelClient sends one prompt to a language model and returns its raw reply.
type ModelClient interface {
	Name() string
	Send(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector for the talent pool.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type ResilienceOptions struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
}

// resilientClient adds a per-call deadline, rate limiting, retries with linear
// backoff and error classification to any ModelClient.
type resilientClient struct {
	next    ModelClient
	limiter *rate.Limiter
	opts    ResilienceOptions
	logger  *zap.Logger
}

func NewResilientClient(next ModelClient, opts ResilienceOptions, log *zap.Logger) ModelClient {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &resilientClient{
		next:    next,
		limiter: rate.NewLimiter(limit, opts.Burst),
		opts:    opts,
		logger:  log.With(zap.String("provider", next.Name())),
	}
}

func (c *resilientClient) Name() string {
	return c.next.Name()
}

// Send implements ModelClient.
func (c *resilientClient) Send(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", classifyModelError(c.Name(), contextCause(ctx, err))
		}

		reply, err := c.sendOnce(ctx, prompt)
		if err == nil {
			c.logger.Debug("model reply received",
				zap.Int("attempt", attempt),
				zap.Int("length", len(reply)),
			)
			return reply, nil
		}

		lastErr = err
		if !IsRetryableModelError(err) || attempt == c.opts.MaxRetries {
			break
		}

		wait := c.opts.RetryDelay * time.Duration(attempt)
		c.logger.Warn("model call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return "", classifyModelError(c.Name(), ctx.Err())
		case <-time.After(wait):
		}
	}

	c.logger.Error("model call failed", zap.Int("attempts", c.opts.MaxRetries), zap.Error(lastErr))
	return "", lastErr
}

func (c *resilientClient) sendOnce(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	reply, err := c.next.Send(callCtx, prompt)
	if err != nil {
		if callCtx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", callCtx.Err(), err)
		}
		return "", classifyModelError(c.Name(), err)
	}

	return reply, nil
}

// contextCause prefers the context error so a limiter wait past the deadline reads as a timeout.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// rate.Limiter.Wait reports a deadline it cannot meet without waiting for it.
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

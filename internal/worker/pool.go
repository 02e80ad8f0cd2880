package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"taquilla/internal/metrics"
)

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("worker pool closed")

// ErrQueueFull is returned by Submit when the buffer is saturated.
var ErrQueueFull = errors.New("worker queue full")

// Job is the envelope handed to a Handler.
type Job struct {
	Type    string
	Payload any
}

// Handler processes one job. A returned error triggers a retry.
type Handler func(ctx context.Context, job Job) error

type PoolConfig struct {
	Queue       string        // label for logs, metrics and dead letters
	Workers     int           // goroutines (default 2)
	QueueSize   int           // buffered jobs (default 256)
	MaxAttempts int           // handler calls before dead-lettering (default 3)
	Backoff     time.Duration // first retry delay, doubled per attempt (default 200ms)
}

// Pool runs jobs on a fixed set of goroutines fed by a buffered channel.
// Submit never blocks the caller.
type Pool struct {
	cfg     PoolConfig
	handler Handler
	dlq     DeadLetter

	mu     sync.RWMutex
	closed bool
	jobs   chan Job
	wg     sync.WaitGroup
}

func NewPool(cfg PoolConfig, h Handler, dlq DeadLetter) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if dlq == nil {
		dlq = LogDeadLetter{}
	}
	return &Pool{cfg: cfg, handler: h, dlq: dlq, jobs: make(chan Job, cfg.QueueSize)}
}

// Start launches the workers. ctx bounds handler calls; cancelling it makes
// in-flight retries give up and dead-letter their job.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Str("queue", p.cfg.Queue).Msgf("worker pool started with %d workers", p.cfg.Workers)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		metrics.WorkerQueueDepth.WithLabelValues(p.cfg.Queue).Set(float64(len(p.jobs)))
		p.process(ctx, job)
	}
	log.Debug().Str("queue", p.cfg.Queue).Msgf("worker %d stopped", id)
}

func (p *Pool) process(ctx context.Context, job Job) {
	var err error
	delay := p.cfg.Backoff
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err = p.handler(ctx, job); err == nil {
			metrics.WorkerJobs.WithLabelValues(p.cfg.Queue, "ok").Inc()
			return
		}
		log.Warn().Err(err).Str("queue", p.cfg.Queue).Str("job_type", job.Type).
			Int("attempt", attempt).Msg("worker: job failed")
		if attempt == p.cfg.MaxAttempts {
			break
		}
		metrics.WorkerJobs.WithLabelValues(p.cfg.Queue, "retried").Inc()
		select {
		case <-ctx.Done():
			p.deadLetter(job, ctx.Err().Error(), attempt)
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
	p.deadLetter(job, err.Error(), p.cfg.MaxAttempts)
}

func (p *Pool) deadLetter(job Job, reason string, attempts int) {
	metrics.WorkerJobs.WithLabelValues(p.cfg.Queue, "dead").Inc()
	payload, merr := json.Marshal(job.Payload)
	if merr != nil {
		payload = nil
	}
	p.dlq.Send(context.Background(), DLQEntry{
		OriginalQueue: p.cfg.Queue,
		JobType:       job.Type,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	})
}

// Submit enqueues job without blocking. A full queue dead-letters the job.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		metrics.WorkerQueueDepth.WithLabelValues(p.cfg.Queue).Set(float64(len(p.jobs)))
		return nil
	default:
		p.deadLetter(job, ErrQueueFull.Error(), 0)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for the queue to drain or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Str("queue", p.cfg.Queue).Msg("worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

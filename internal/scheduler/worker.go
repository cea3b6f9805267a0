package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/config"
	"introportal_backend/platform/logger"
)

// sweepBatchSize bounds how many leads one sweep run touches.
const sweepBatchSize = 500

// sweepConcurrency bounds parallel declines within a sweep.
const sweepConcurrency = 8

// LeadSweeper is the slice of the lead service the sweep needs.
type LeadSweeper interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]repository.Lead, error)
	DeclineExpired(ctx context.Context, leadID uuid.UUID, reason string) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadSweeper
	maxAge time.Duration
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadSweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leads,
		maxAge: cfg.GetStaleLeadMaxAge(),
		log:    log,
	}

	mux.HandleFunc(TaskStaleLeadSweep, w.handleStaleLeadSweep)

	return w, nil
}

func (w *Worker) handleStaleLeadSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStaleLeadSweepPayload(task)
	if err != nil {
		return err
	}

	reason := payload.Reason
	if reason == "" {
		reason = "no_response"
	}

	cutoff := time.Now().Add(-w.maxAge)
	stale, err := w.leads.ListStale(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, lead := range stale {
		leadID := lead.ID
		g.Go(func() error {
			return w.leads.DeclineExpired(ctx, leadID, reason)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.log.Info("stale lead sweep completed", "declined_candidates", len(stale), "cutoff", cutoff)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

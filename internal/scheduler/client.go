package scheduler

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"introportal_backend/platform/config"
	"introportal_backend/platform/logger"
)

// Periodic registers the recurring jobs with the asynq scheduler.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewPeriodic configures the recurring stale-lead sweep.
func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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

	scheduler := asynq.NewScheduler(opt, nil)

	task, err := NewStaleLeadSweepTask(StaleLeadSweepPayload{Reason: "no_response"})
	if err != nil {
		return nil, err
	}

	interval := cfg.GetStaleLeadSweepInterval()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := scheduler.Register(spec, task, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run starts the periodic scheduler and blocks until it stops.
func (p *Periodic) Run() {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}

// Shutdown stops the periodic scheduler.
func (p *Periodic) Shutdown() {
	if p == nil || p.scheduler == nil {
		return
	}
	p.scheduler.Shutdown()
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

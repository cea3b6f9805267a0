// Package scheduler runs the background jobs of the portal: currently the
// stale-lead sweep that declines leads no provider ever responded to.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskStaleLeadSweep = "leads.stale_sweep"

// StaleLeadSweepPayload configures one sweep run.
type StaleLeadSweepPayload struct {
	Reason string `json:"reason"`
}

func NewStaleLeadSweepTask(payload StaleLeadSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleLeadSweep, data), nil
}

func ParseStaleLeadSweepPayload(task *asynq.Task) (StaleLeadSweepPayload, error) {
	var payload StaleLeadSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaleLeadSweepPayload{}, err
	}
	return payload, nil
}

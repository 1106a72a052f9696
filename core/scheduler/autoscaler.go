package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"ci-orchestrator/core/agents"
)

// AutoScaler sizes the remote agent pool against build queue depth
type AutoScaler struct {
	pool              *agents.AgentPool
	scheduler         *Scheduler
	scaleUpThreshold  int           // Queue depth that triggers scale-up
	scaleDownIdleTime time.Duration // Idle time before an agent is released
}

// NewAutoScaler creates a new autoscaler
func NewAutoScaler(
	pool *agents.AgentPool,
	sched *Scheduler,
	scaleUpThreshold int,
	scaleDownIdleTime time.Duration,
) *AutoScaler {
	return &AutoScaler{
		pool:              pool,
		scheduler:         sched,
		scaleUpThreshold:  scaleUpThreshold,
		scaleDownIdleTime: scaleDownIdleTime,
	}
}

// Start starts the autoscaler background worker
func (as *AutoScaler) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := as.CheckAndScale(ctx); err != nil {
				log.Printf("Autoscaler error: %v", err)
			}
		}
	}
}

// CheckAndScale checks queue depth and scales the agent pool accordingly
func (as *AutoScaler) CheckAndScale(ctx context.Context) error {
	queueDepth := as.scheduler.QueueDepth()

	if queueDepth > as.scaleUpThreshold {
		demand := queueDepth - as.scaleUpThreshold
		log.Printf("Autoscaler: queue depth %d exceeds threshold %d, scaling up by %d", queueDepth, as.scaleUpThreshold, demand)
		if err := as.pool.ScaleUp(ctx, demand); err != nil {
			return fmt.Errorf("failed to scale up: %w", err)
		}
	}

	if err := as.pool.ScaleDown(ctx, as.scaleDownIdleTime); err != nil {
		return fmt.Errorf("failed to scale down: %w", err)
	}

	if cost, err := as.pool.HourlyCostEstimate(ctx); err == nil && as.pool.Size() > 0 {
		log.Printf("Autoscaler: %d agents, estimated %.4f USD/hour", as.pool.Size(), cost)
	}

	return nil
}

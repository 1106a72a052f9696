package agents

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ci-orchestrator/providers/aws"
)

// AgentPool manages a pool of remote EC2 build agents for reuse across
// builds, trading idle cost against provisioning latency.
type AgentPool struct {
	client       *aws.Client
	amiID        string
	instanceType string
	spot         bool
	maxSize      int

	agents map[string]*AgentInfo
	mu     sync.RWMutex
}

// AgentInfo tracks one provisioned agent
type AgentInfo struct {
	InstanceID   string
	CreatedAt    time.Time
	LastUsedAt   time.Time
	ActiveBuilds int
}

// NewAgentPool creates an agent pool backed by the given AWS client
func NewAgentPool(client *aws.Client, amiID, instanceType string, spot bool, maxSize int) *AgentPool {
	return &AgentPool{
		client:       client,
		amiID:        amiID,
		instanceType: instanceType,
		spot:         spot,
		maxSize:      maxSize,
		agents:       make(map[string]*AgentInfo),
	}
}

// Size returns the number of provisioned agents
func (ap *AgentPool) Size() int {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return len(ap.agents)
}

// ScaleUp provisions additional agents, staying within the pool's max size
func (ap *AgentPool) ScaleUp(ctx context.Context, demand int) error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if len(ap.agents) >= ap.maxSize {
		return fmt.Errorf("agent pool at max size %d", ap.maxSize)
	}

	toAdd := demand
	if len(ap.agents)+toAdd > ap.maxSize {
		toAdd = ap.maxSize - len(ap.agents)
	}

	instanceIDs, err := ap.client.ProvisionAgents(ctx, ap.amiID, ap.instanceType, ap.spot, toAdd)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, id := range instanceIDs {
		ap.agents[id] = &AgentInfo{
			InstanceID: id,
			CreatedAt:  now,
			LastUsedAt: now,
		}
	}

	log.Printf("Agent pool scaled up by %d (now %d)", len(instanceIDs), len(ap.agents))
	return nil
}

// ScaleDown terminates agents idle for longer than the given duration
func (ap *AgentPool) ScaleDown(ctx context.Context, idleTime time.Duration) error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	var idle []string
	for id, info := range ap.agents {
		if info.ActiveBuilds == 0 && time.Since(info.LastUsedAt) > idleTime {
			idle = append(idle, id)
		}
	}
	if len(idle) == 0 {
		return nil
	}

	if err := ap.client.TerminateAgents(ctx, idle); err != nil {
		return err
	}
	for _, id := range idle {
		delete(ap.agents, id)
	}

	log.Printf("Agent pool scaled down by %d (now %d)", len(idle), len(ap.agents))
	return nil
}

// HourlyCostEstimate returns the pool's estimated hourly spend
func (ap *AgentPool) HourlyCostEstimate(ctx context.Context) (float64, error) {
	price, err := ap.client.OnDemandAgentPrice(ctx, ap.instanceType)
	if err != nil {
		return 0, err
	}
	return price * float64(ap.Size()), nil
}

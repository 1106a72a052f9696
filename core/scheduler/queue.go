package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"ci-orchestrator/core/models"
)

// BuildQueue is a priority queue of pending build requests
type BuildQueue struct {
	requests []*QueuedRequest
	mu       sync.Mutex
}

// BuildRequest asks for one build of a project
type BuildRequest struct {
	Project       *Project
	Trigger       models.BuildTrigger
	Modifications []*models.Modification
	RequestedAt   time.Time
}

// QueuedRequest wraps a request with heap bookkeeping
type QueuedRequest struct {
	Request *BuildRequest
	Index   int // For heap.Interface
}

// NewBuildQueue creates a new build queue
func NewBuildQueue() *BuildQueue {
	bq := &BuildQueue{
		requests: make([]*QueuedRequest, 0),
	}
	heap.Init(bq)
	return bq
}

// Enqueue adds a build request to the queue
func (bq *BuildQueue) Enqueue(req *BuildRequest) {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	heap.Push(bq, &QueuedRequest{Request: req})
}

// PopRequest removes and returns the highest priority request
func (bq *BuildQueue) PopRequest() *BuildRequest {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	if bq.Len() == 0 {
		return nil
	}

	item := heap.Pop(bq).(*QueuedRequest)
	return item.Request
}

// Depth returns the number of queued requests
func (bq *BuildQueue) Depth() int {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return bq.Len()
}

// Len returns the number of requests in the queue
func (bq *BuildQueue) Len() int {
	return len(bq.requests)
}

// Less prioritizes forced builds, then earlier requests
func (bq *BuildQueue) Less(i, j int) bool {
	a, b := bq.requests[i].Request, bq.requests[j].Request
	if (a.Trigger == models.TriggerForced) != (b.Trigger == models.TriggerForced) {
		return a.Trigger == models.TriggerForced
	}
	return a.RequestedAt.Before(b.RequestedAt)
}

// Swap swaps two requests
func (bq *BuildQueue) Swap(i, j int) {
	bq.requests[i], bq.requests[j] = bq.requests[j], bq.requests[i]
	bq.requests[i].Index = i
	bq.requests[j].Index = j
}

// Push implements heap.Interface
func (bq *BuildQueue) Push(x interface{}) {
	n := len(bq.requests)
	item := x.(*QueuedRequest)
	item.Index = n
	bq.requests = append(bq.requests, item)
}

// Pop implements heap.Interface
func (bq *BuildQueue) Pop() interface{} {
	old := bq.requests
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	bq.requests = old[0 : n-1]
	return item
}

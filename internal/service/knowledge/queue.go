package knowledge

import (
	"sync"

	"breakdown/internal/metrics"
)

// Priority orders queued card jobs.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityLow
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// DefaultConcurrency is the number of card jobs allowed to run at once.
const DefaultConcurrency = 4

// Queue runs jobs with a concurrency ceiling. Waiting high-priority jobs
// start before waiting low-priority ones; within a class jobs start in
// submission order. Started jobs always run to completion.
type Queue struct {
	mu     sync.Mutex
	high   []func()
	low    []func()
	active int
	limit  int

	metrics *metrics.Collector
	wg      sync.WaitGroup
}

func NewQueue(limit int, m *metrics.Collector) *Queue {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Queue{limit: limit, metrics: m}
}

// Submit enqueues a job.
func (q *Queue) Submit(p Priority, job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.wg.Add(1)
	if p == PriorityHigh {
		q.high = append(q.high, job)
	} else {
		q.low = append(q.low, job)
	}
	q.dispatchLocked()
}

// Stats reports waiting and running job counts.
func (q *Queue) Stats() (high, low, active int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high), len(q.low), q.active
}

// Wait blocks until every submitted job has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) dispatchLocked() {
	for q.active < q.limit {
		var job func()
		switch {
		case len(q.high) > 0:
			job, q.high = q.high[0], q.high[1:]
		case len(q.low) > 0:
			job, q.low = q.low[0], q.low[1:]
		default:
			q.report()
			return
		}
		q.active++
		go q.run(job)
	}
	q.report()
}

func (q *Queue) run(job func()) {
	defer q.wg.Done()
	defer func() {
		q.mu.Lock()
		q.active--
		q.dispatchLocked()
		q.mu.Unlock()
	}()
	job()
}

func (q *Queue) report() {
	q.metrics.SetCardQueue(len(q.high), len(q.low), q.active)
}

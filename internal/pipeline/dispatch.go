package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khairulh/notulen/internal/metrics"
)

const workerQueueSize = 256

type job func(w *worker)

// worker drains one session's event queue. Exactly one goroutine runs
// per live session identifier, which serializes every state-mutating
// operation for that session. Chunk transcription borrows slots from
// the worker's semaphore so independent chunks may overlap in flight
// without sharing the serialized path.
type worker struct {
	sessionID string
	jobs      chan job
	slots     chan struct{}
	done      chan struct{}
}

// dispatcher routes events to per-session workers. Idle workers are
// garbage-collected after a quiet period so the registry stays bounded
// by the number of recently active sessions.
type dispatcher struct {
	mu      sync.Mutex
	workers map[string]*worker

	chunkSlots int
	idleTTL    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func newDispatcher(chunkSlots int, idleTTL time.Duration, logger *zap.Logger, m *metrics.Metrics) *dispatcher {
	return &dispatcher{
		workers:    make(map[string]*worker),
		chunkSlots: chunkSlots,
		idleTTL:    idleTTL,
		logger:     logger,
		metrics:    m,
	}
}

// dispatch queues a job on the session's worker, creating the worker
// if needed. Jobs for one session run strictly in dispatch order. A
// full queue blocks the caller, which is the transport read loop: a
// bursting client slows itself down.
func (d *dispatcher) dispatch(sessionID string, fn job) {
	for {
		d.mu.Lock()
		w, ok := d.workers[sessionID]
		if !ok {
			w = &worker{
				sessionID: sessionID,
				jobs:      make(chan job, workerQueueSize),
				slots:     make(chan struct{}, d.chunkSlots),
				done:      make(chan struct{}),
			}
			d.workers[sessionID] = w
			if d.metrics != nil {
				d.metrics.ActiveWorkers.Set(float64(len(d.workers)))
			}
			go d.run(w)
		}

		select {
		case w.jobs <- fn:
			d.mu.Unlock()
			return
		default:
		}
		d.mu.Unlock()

		// Queue full: wait for room. The worker cannot retire with a
		// non-empty queue, but it may have retired between the lookup
		// and here, so watch for that and retry.
		select {
		case w.jobs <- fn:
			return
		case <-w.done:
		}
	}
}

func (d *dispatcher) run(w *worker) {
	idle := time.NewTimer(d.idleTTL)
	defer idle.Stop()

	for {
		select {
		case fn := <-w.jobs:
			fn(w)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idleTTL)

		case <-idle.C:
			d.mu.Lock()
			if len(w.jobs) > 0 {
				d.mu.Unlock()
				idle.Reset(d.idleTTL)
				continue
			}
			delete(d.workers, w.sessionID)
			close(w.done)
			if d.metrics != nil {
				d.metrics.ActiveWorkers.Set(float64(len(d.workers)))
			}
			d.mu.Unlock()

			d.logger.Debug("Retired idle session worker",
				zap.String("sessionID", w.sessionID))
			return
		}
	}
}

// workerCount returns the number of live workers.
func (d *dispatcher) workerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/smarty/deliver/contracts"
)

// ProgressTracker accumulates downloaded bytes from concurrent tasks and
// reports them to a sink on a fixed cadence, plus once more on Close.
// Reported values never go backwards even when a failed attempt withdraws
// its bytes.
type ProgressTracker struct {
	completed atomic.Int64
	total     int64
	sink      contracts.ProgressSink

	emitLock    sync.Mutex
	lastEmitted int64
	closed      bool

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func NewProgressTracker(total int64, sink contracts.ProgressSink, interval time.Duration) *ProgressTracker {
	this := &ProgressTracker{total: total, sink: sink, done: make(chan struct{})}
	if sink == nil {
		this.sink = nopProgressSink{}
	}
	if interval > 0 {
		this.ticker = time.NewTicker(interval)
		go this.report()
	}
	return this
}

func (this *ProgressTracker) report() {
	for {
		select {
		case <-this.ticker.C:
			this.tick()
		case <-this.done:
			return
		}
	}
}

func (this *ProgressTracker) Add(delta int64) {
	this.completed.Add(delta)
}

func (this *ProgressTracker) Completed() int64 {
	return this.completed.Load()
}

func (this *ProgressTracker) Close() error {
	this.once.Do(func() {
		if this.ticker != nil {
			this.ticker.Stop()
		}
		close(this.done)

		this.emitLock.Lock()
		defer this.emitLock.Unlock()
		this.emitLocked()
		this.closed = true
	})
	return nil
}

// tick emits on cadence unless Close already sent the final update.
func (this *ProgressTracker) tick() {
	this.emitLock.Lock()
	defer this.emitLock.Unlock()
	if !this.closed {
		this.emitLocked()
	}
}

func (this *ProgressTracker) emitLocked() {
	completed := this.completed.Load()
	if completed < this.lastEmitted {
		completed = this.lastEmitted
	}
	this.lastEmitted = completed
	this.sink.Progress(contracts.ProgressUpdate{Completed: completed, Total: this.total})
}

type nopProgressSink struct{}

func (nopProgressSink) Progress(contracts.ProgressUpdate) {}

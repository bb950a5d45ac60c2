package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quizarena/game"
)

type snapshotOp struct {
	info   game.Info
	remove bool
}

// snapshotQueue writes snapshots off the caller's goroutine with at most one
// write in flight per game code. Only the newest pending operation for a code
// is kept, so an older state can never land after a newer one.
type snapshotQueue struct {
	store   SnapshotStore
	timeout time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]snapshotOp
	busy    map[string]bool
	wg      sync.WaitGroup
}

func newSnapshotQueue(store SnapshotStore, timeout time.Duration, log *slog.Logger) *snapshotQueue {
	return &snapshotQueue{
		store:   store,
		timeout: timeout,
		log:     log,
		pending: make(map[string]snapshotOp),
		busy:    make(map[string]bool),
	}
}

// save queues room's current state. The state is read under the queue lock so
// queue order matches the order states were observed in.
func (q *snapshotQueue) save(room *game.Room) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[room.Code()] = snapshotOp{info: room.Info()}
	q.startLocked(room.Code())
}

func (q *snapshotQueue) remove(code string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[code] = snapshotOp{info: game.Info{Code: code}, remove: true}
	q.startLocked(code)
}

func (q *snapshotQueue) startLocked(code string) {
	if q.busy[code] {
		return
	}
	q.busy[code] = true
	q.wg.Add(1)
	go q.drain(code)
}

func (q *snapshotQueue) drain(code string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		op, ok := q.pending[code]
		if !ok {
			delete(q.busy, code)
			q.mu.Unlock()
			return
		}
		delete(q.pending, code)
		q.mu.Unlock()

		q.apply(op)
	}
}

func (q *snapshotQueue) apply(op snapshotOp) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	var err error
	if op.remove {
		err = q.store.Delete(ctx, op.info.Code)
	} else {
		err = q.store.Save(ctx, op.info)
	}
	if err != nil {
		q.log.Warn("snapshot failed", "code", op.info.Code, "remove", op.remove, "error", err)
	}
}

// flush blocks until every queued operation has been written.
func (q *snapshotQueue) flush() { q.wg.Wait() }

package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
)

// Info is reported to the protocol driver while thinking and after each
// evaluation of the root.
type Info struct {
	Depth int           // deepest ply reached
	Score Weight        // root score, unset for progress reports
	Nodes uint64        // nodes expanded since the engine was created
	Time  time.Duration // time since the current thinking session started
}

// session is one Idle -> Thinking -> Idle cycle.
type session struct {
	pool    *pool
	rootPly int
	started time.Time
}

// brain owns the worker pool and the thinking flag. The flag is the only
// cancellation signal: expansion tasks check it once per node.
type brain struct {
	workers  int
	maxDepth int
	log      zerolog.Logger

	thinking atomic.Bool
	deepest  atomic.Int64
	nodes    atomic.Uint64

	lifecycle sync.Mutex // serializes init and stop
	current   *session

	progressMu sync.Mutex

	mu   sync.Mutex
	idle *sync.Cond

	onInfo atomic.Pointer[func(Info)]
}

func newBrain(workers, maxDepth int, log zerolog.Logger) *brain {
	b := &brain{
		workers:  workers,
		maxDepth: maxDepth,
		log:      log,
	}
	b.idle = sync.NewCond(&b.mu)
	return b
}

// init switches to thinking and schedules root. Only the caller that flips
// the flag creates the pool; everyone else gets false.
func (b *brain) init(root *Node) bool {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if !b.thinking.CompareAndSwap(false, true) {
		return false
	}

	s := &session{
		pool:    newPool(b.workers),
		rootPly: root.ply,
		started: time.Now(),
	}
	b.current = s
	s.pool.submit(func() { b.process(s, root) })

	b.log.Debug().Int("workers", b.workers).Int("root_ply", root.ply).Msg("thinking started")
	return true
}

// stop switches to idle and drains the pool: queued tasks are dropped and
// running ones are joined. Waiters are released afterwards. Stopping an idle
// brain does nothing.
func (b *brain) stop() {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if !b.thinking.CompareAndSwap(true, false) {
		return
	}

	s := b.current
	b.current = nil
	dropped := s.pool.stop()
	if err := s.pool.join(); err != nil {
		b.log.Error().Err(err).Msg("expansion task failed")
	}

	b.log.Debug().
		Str("nodes", humanize.Comma(int64(b.nodes.Load()))).
		Int64("deepest", b.deepest.Load()).
		Str("dropped", humanize.Comma(int64(dropped))).
		Dur("elapsed", time.Since(s.started)).
		Msg("thinking stopped")

	b.mu.Lock()
	b.idle.Broadcast()
	b.mu.Unlock()
}

// wait blocks until the brain is idle.
func (b *brain) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.thinking.Load() {
		b.idle.Wait()
	}
}

// process expands n and fans out one task per child.
//
// TODO: the fan-out is unbounded breadth. Order children by quick score and
// spend depth on the promising ones.
func (b *brain) process(s *session, n *Node) {
	if n.state == board.Unknown {
		n.expand()
		b.nodes.Add(1)
	}

	if n.state != board.InProgress {
		return
	}

	if !b.thinking.Load() {
		return
	}

	b.observe(s, n.ply)

	if b.maxDepth > 0 && n.ply-s.rootPly >= b.maxDepth {
		return
	}

	for _, e := range n.children {
		if !e.node.weight.IsSet() {
			e.node.quickEval()
		}
	}

	for _, e := range n.children {
		child := e.node
		if !s.pool.submit(func() { b.process(s, child) }) {
			return
		}
	}
}

// observe raises the deepest ply seen and reports each increase. Reports
// are made under progressMu so they arrive in increasing order.
func (b *brain) observe(s *session, ply int) {
	if int64(ply) <= b.deepest.Load() {
		return
	}

	b.progressMu.Lock()
	defer b.progressMu.Unlock()
	if int64(ply) <= b.deepest.Load() {
		return
	}
	b.deepest.Store(int64(ply))
	b.notify(Info{
		Depth: ply,
		Nodes: b.nodes.Load(),
		Time:  time.Since(s.started),
	})
}

func (b *brain) notify(info Info) {
	if fn := b.onInfo.Load(); fn != nil {
		(*fn)(info)
	}
}

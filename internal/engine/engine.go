package engine

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
)

// DefaultRetryInterval is how long Respond lets the tree grow before asking
// again when the reply is not yet known.
const DefaultRetryInterval = 100 * time.Millisecond

var (
	// ErrIllegalMove is returned when the opponent's move was never generated.
	ErrIllegalMove = errors.New("the opponent made an illegal move")

	// ErrThinking is returned by operations that read the tree while it is
	// being expanded.
	ErrThinking = errors.New("engine is thinking")

	// ErrNoGame is returned when no game has been set up.
	ErrNoGame = errors.New("no game in progress")
)

// GameOverError is returned when asked to respond in a finished game.
type GameOverError struct {
	State board.State
}

func (e *GameOverError) Error() string {
	switch e.State {
	case board.BlackWins:
		return "black won the game"
	case board.WhiteWins:
		return "white won the game"
	case board.Draw:
		return "the game was a draw"
	default:
		return "the game is over: " + e.State.String()
	}
}

// MinDepth is the smallest usable depth cap. Respond needs the replies to
// the opponent's move expanded, two plies below the root.
const MinDepth = 2

// Options configures an Engine.
type Options struct {
	Workers       int           // worker goroutines, 0 = runtime.NumCPU()
	MaxDepth      int           // plies expanded below the root, 0 = unbounded, otherwise at least MinDepth
	RetryInterval time.Duration // 0 = DefaultRetryInterval
	Logger        zerolog.Logger
}

// Status is a snapshot that is safe to take while thinking.
type Status struct {
	Thinking   bool   `json:"thinking"`
	DeepestPly int    `json:"deepest_ply"`
	Nodes      uint64 `json:"nodes"`
	Pending    int    `json:"pending"`
	RootPly    int    `json:"root_ply"`
	SideToMove string `json:"side_to_move"`
}

// Engine thinks in the background about the current position and answers
// opponent moves from the tree it has built.
//
// The lifecycle methods are meant to be driven from one goroutine (the
// protocol loop); Stop and Status may be called from anywhere.
type Engine struct {
	brain *brain
	retry time.Duration
	log   zerolog.Logger

	mu   sync.Mutex // serializes root changes
	root atomic.Pointer[Node]
}

// New creates an idle engine with no game.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	switch {
	case opts.MaxDepth < 0:
		opts.MaxDepth = 0
	case opts.MaxDepth > 0 && opts.MaxDepth < MinDepth:
		opts.MaxDepth = MinDepth
	}
	return &Engine{
		brain: newBrain(opts.Workers, opts.MaxDepth, opts.Logger),
		retry: opts.RetryInterval,
		log:   opts.Logger,
	}
}

// HandleInfo installs the progress callback. It is called from worker
// goroutines and must be safe for concurrent use.
func (e *Engine) HandleInfo(fn func(Info)) {
	if fn == nil {
		e.brain.onInfo.Store(nil)
		return
	}
	e.brain.onInfo.Store(&fn)
}

// Reset stops thinking.
func (e *Engine) Reset() {
	e.Stop()
}

// Start begins background expansion of the current root. Calling Start while
// already thinking does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.start()
}

func (e *Engine) start() {
	if root := e.root.Load(); root != nil {
		e.brain.init(root)
	}
}

// Stop halts expansion and returns once every running task has finished.
func (e *Engine) Stop() {
	e.brain.stop()
}

// Wait blocks until the engine is idle.
func (e *Engine) Wait() {
	e.brain.wait()
}

// Thinking reports whether background expansion is active.
func (e *Engine) Thinking() bool {
	return e.brain.thinking.Load()
}

// NewGame replaces the tree with a fresh position and starts thinking. The
// root is the position the opponent moves from, so the engine's color is the
// side not to move.
func (e *Engine) NewGame(isWhite bool, b board.Board) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.brain.stop()

	engineSide := board.Black
	if isWhite {
		engineSide = board.White
	}
	old := e.root.Swap(NewNode(b, engineSide.Other(), 0))
	if old != nil {
		old.detach()
	}
	e.brain.deepest.Store(0)

	e.log.Info().Stringer("engine", engineSide).Msg("new game")
	e.start()
}

// Evaluate scores the whole tree and returns the root weight. The engine
// must be idle.
func (e *Engine) Evaluate() (Weight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := e.root.Load()
	if root == nil {
		return Unset, ErrNoGame
	}
	if err := e.evaluate(root); err != nil {
		return Unset, err
	}
	return root.weight, nil
}

func (e *Engine) evaluate(root *Node) error {
	if e.Thinking() {
		return ErrThinking
	}
	start := time.Now()
	root.evaluate()
	e.brain.notify(Info{
		Depth: int(e.brain.deepest.Load()),
		Score: root.weight,
		Nodes: e.brain.nodes.Load(),
		Time:  time.Since(start),
	})
	return nil
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	st := Status{
		Thinking:   e.Thinking(),
		DeepestPly: int(e.brain.deepest.Load()),
		Nodes:      e.brain.nodes.Load(),
		SideToMove: board.NoColor.String(),
	}

	e.brain.lifecycle.Lock()
	if s := e.brain.current; s != nil {
		st.Pending = s.pool.pending()
	}
	e.brain.lifecycle.Unlock()

	if root := e.root.Load(); root != nil {
		st.RootPly = root.ply
		st.SideToMove = root.side.String()
	}
	return st
}

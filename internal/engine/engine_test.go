package engine

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
)

func newTestEngine(t *testing.T, maxDepth int) *Engine {
	t.Helper()
	eng := New(Options{
		Workers:       4,
		MaxDepth:      maxDepth,
		RetryInterval: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})
	t.Cleanup(eng.Stop)
	return eng
}

func TestRespondDefaultPosition(t *testing.T) {
	eng := newTestEngine(t, 3)
	eng.NewGame(true, board.Default())

	if !eng.Thinking() {
		t.Fatal("NewGame did not start thinking")
	}

	opp := board.MustParseMove("a7a6")
	reply, err := eng.Respond(opp)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	start := board.Default()
	after := start.Apply(opp)
	if !slices.Contains(board.GenerateMoves(&after, board.White), reply) {
		t.Fatalf("Reply %s is not a legal white move", reply)
	}

	root := eng.root.Load()
	if root.Board() != after.Apply(reply) {
		t.Errorf("New root is not the position after %s %s", opp, reply)
	}
	if root.Side() != board.Black || root.Ply() != 2 {
		t.Errorf("New root: side %v ply %d", root.Side(), root.Ply())
	}
	if !eng.Thinking() {
		t.Error("Thinking did not resume after the reply")
	}

	// The game continues from the committed reply.
	eng.Stop()
	moves := root.Moves()
	if len(moves) == 0 {
		t.Fatal("New root was never expanded")
	}
	if _, err := eng.Respond(moves[0]); err != nil {
		t.Fatalf("Second reply failed: %v", err)
	}
}

func TestRespondWithShallowDepthCap(t *testing.T) {
	for _, depth := range []int{1, -3} {
		eng := newTestEngine(t, depth)
		eng.NewGame(true, board.Default())

		done := make(chan error, 1)
		go func() {
			_, err := eng.Respond(board.MustParseMove("a7a6"))
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("MaxDepth %d: Respond failed: %v", depth, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("MaxDepth %d: Respond did not return", depth)
		}
		eng.Stop()
	}
}

func TestNewNormalizesDepthCap(t *testing.T) {
	tests := map[int]int{-1: 0, 0: 0, 1: MinDepth, 2: 2, 7: 7}
	for in, want := range tests {
		if got := New(Options{MaxDepth: in, Logger: zerolog.Nop()}).brain.maxDepth; got != want {
			t.Errorf("MaxDepth %d: expected %d, got %d", in, want, got)
		}
	}
}

func TestRespondDiscardsOtherBranches(t *testing.T) {
	eng := newTestEngine(t, 2)
	eng.NewGame(false, board.Default())

	old := eng.root.Load()
	reply, err := eng.Respond(board.MustParseMove("e2e4"))
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	eng.Stop()

	if old.size() != 1 {
		t.Errorf("Old root still holds %d nodes", old.size())
	}
	if eng.root.Load().Side() != board.White {
		t.Errorf("Expected white to move after %s", reply)
	}
}

func TestRespondKingsOnlyIsDraw(t *testing.T) {
	var b board.Board
	b[0][3] = board.NewSquare(board.King, board.White)
	b[7][3] = board.NewSquare(board.King, board.Black)

	eng := newTestEngine(t, 0)
	eng.NewGame(true, b)

	_, err := eng.Respond(board.MustParseMove("h8h7"))
	var gameOver *GameOverError
	if !errors.As(err, &gameOver) || gameOver.State != board.Draw {
		t.Fatalf("Expected a draw, got %v", err)
	}
}

func TestRespondIllegalMove(t *testing.T) {
	eng := newTestEngine(t, 2)
	eng.NewGame(true, board.Default())

	// White pawn moves are not black's to make.
	_, err := eng.Respond(board.MustParseMove("a2a3"))
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Expected ErrIllegalMove, got %v", err)
	}
}

func TestRespondWithoutGame(t *testing.T) {
	eng := newTestEngine(t, 2)
	if _, err := eng.Respond(board.MustParseMove("a7a6")); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	if _, err := eng.Evaluate(); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	eng.Start()
	if eng.Thinking() {
		t.Error("Start without a game began thinking")
	}
}

func TestEvaluateWhileThinking(t *testing.T) {
	eng := newTestEngine(t, 2)
	eng.NewGame(true, board.Default())

	if _, err := eng.Evaluate(); !errors.Is(err, ErrThinking) {
		t.Fatalf("Expected ErrThinking, got %v", err)
	}

	eng.Stop()
	eng.Wait()
	if _, err := eng.Evaluate(); err != nil {
		t.Fatalf("Evaluate after stop: %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	eng := newTestEngine(t, 2)
	eng.NewGame(true, board.Default())

	eng.Start() // already thinking
	eng.Stop()
	eng.Stop()
	if eng.Thinking() {
		t.Fatal("Still thinking after Stop")
	}
	eng.Wait()

	eng.Start()
	if !eng.Thinking() {
		t.Fatal("Start did not resume thinking")
	}
	eng.Reset()
	if eng.Thinking() {
		t.Fatal("Reset did not stop thinking")
	}
}

func TestProgressInfo(t *testing.T) {
	eng := newTestEngine(t, 2)

	var mu sync.Mutex
	var depths []int
	eng.HandleInfo(func(info Info) {
		if info.Score.IsSet() {
			return
		}
		mu.Lock()
		depths = append(depths, info.Depth)
		mu.Unlock()
	})

	eng.NewGame(true, board.Default())
	eventually(t, "ply 2 reported", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(depths) > 0 && depths[len(depths)-1] == 2
	})
	eng.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(depths) == 0 {
		t.Fatal("No progress reported")
	}
	for i := 1; i < len(depths); i++ {
		if depths[i] <= depths[i-1] {
			t.Fatalf("Depths not strictly increasing: %v", depths)
		}
	}
	if last := depths[len(depths)-1]; last != 2 {
		t.Errorf("Expected to reach ply 2, got %v", depths)
	}
}

func TestStatus(t *testing.T) {
	eng := newTestEngine(t, 2)

	st := eng.Status()
	if st.Thinking || st.SideToMove != board.NoColor.String() {
		t.Errorf("Unexpected idle status: %+v", st)
	}

	eng.NewGame(false, board.Default())
	eventually(t, "ply 2 in status", func() bool { return eng.Status().DeepestPly == 2 })
	eng.Stop()

	st = eng.Status()
	if st.Thinking {
		t.Error("Status reports thinking after Stop")
	}
	if st.SideToMove != board.White.String() || st.RootPly != 0 {
		t.Errorf("Unexpected status: %+v", st)
	}
	if st.Nodes == 0 || st.DeepestPly != 2 {
		t.Errorf("Expected progress in status: %+v", st)
	}
}

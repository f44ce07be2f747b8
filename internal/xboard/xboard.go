// Package xboard drives the engine over the xboard/CECP text protocol.
package xboard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/board"
	"github.com/hailam/auntysue/internal/config"
	"github.com/hailam/auntysue/internal/engine"
	"github.com/hailam/auntysue/internal/storage"
)

// setupLine tells the GUI the starting position of the variant.
const setupLine = "setup 8x8+0_suicide rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Engine is what the driver needs from the engine.
type Engine interface {
	Reset()
	Start()
	Stop()
	NewGame(isWhite bool, b board.Board)
	Respond(m board.Move) (board.Move, error)
	HandleInfo(fn func(engine.Info))
}

// Recorder persists finished games and analysis. It may be nil.
type Recorder interface {
	RecordGame(rec *storage.GameRecord) error
	RecordIllegalMove() error
	SaveAnalysis(hash uint64, a storage.Analysis) error
}

// game is the driver's copy of the game being played.
type game struct {
	pos     board.Board
	engine  board.Color
	moves   []string
	started time.Time
	over    bool
}

// Driver reads protocol commands and writes replies.
type Driver struct {
	eng Engine
	rec Recorder
	log zerolog.Logger

	outMu sync.Mutex // guards out; never held while calling the engine
	out   io.Writer

	post      atomic.Bool
	lastScore atomic.Pointer[engine.Info]

	game *game
}

// New creates a driver writing to out. Thinking output starts enabled when
// post is set.
func New(eng Engine, out io.Writer, rec Recorder, post bool, log zerolog.Logger) *Driver {
	d := &Driver{eng: eng, rec: rec, out: out, log: log}
	d.post.Store(post)
	eng.HandleInfo(d.handleInfo)
	return d
}

// Run processes commands from in until quit or end of input.
func (d *Driver) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.log.Info().Msg(">> " + line)

		parts := strings.Fields(line)
		if !d.handle(parts[0], parts[1:]) {
			d.finish(storage.ResultAborted)
			return nil
		}
	}

	d.finish(storage.ResultAborted)
	return scanner.Err()
}

// handle runs one command. It returns false on quit.
func (d *Driver) handle(verb string, args []string) bool {
	switch verb {
	case "xboard":
		d.eng.Reset()
	case "protover":
		d.send(
			"feature usermove=1",
			"feature time=0",
			`feature variants="`+config.Variant+`"`,
			"feature done=1",
		)
	case "new":
		d.newGame()
	case "variant":
		d.handleVariant(args)
	case "force":
		d.eng.Stop()
	case "go":
		d.eng.Start()
	case "usermove":
		if len(args) == 0 {
			d.send("Error (missing argument): usermove")
			return true
		}
		d.handleUserMove(args[0])
	case "post":
		d.post.Store(true)
	case "nopost":
		d.post.Store(false)
	case "ping":
		d.send("pong " + strings.Join(args, " "))
	case "quit":
		d.eng.Stop()
		return false
	case "random", "level", "hard", "easy", "accepted", "rejected", "hint", "computer", "otim", "time":
		// Accepted and ignored.
	default:
		d.send("Error (unknown command): " + verb)
	}
	return true
}

func (d *Driver) newGame() {
	d.finish(storage.ResultAborted)

	// The engine plays black unless told otherwise.
	d.game = &game{
		pos:     board.Default(),
		engine:  board.Black,
		started: time.Now(),
	}
	d.lastScore.Store(nil)
	d.eng.NewGame(false, board.Default())
}

func (d *Driver) handleVariant(args []string) {
	if len(args) == 0 {
		d.send("Error (missing argument): variant")
		return
	}
	if args[0] != config.Variant {
		d.send("Error (unsupported variant): " + args[0])
		return
	}
	d.send(setupLine)
}

func (d *Driver) handleUserMove(text string) {
	m, err := board.ParseMove(text)
	if err != nil {
		d.log.Info().Err(err).Str("move", text).Msg("bad move text")
		d.send("Illegal move: " + text)
		return
	}

	d.eng.Start()
	reply, err := d.eng.Respond(m)

	var gameOver *engine.GameOverError
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrIllegalMove):
		d.send("Illegal move: " + text)
		if d.rec != nil {
			if err := d.rec.RecordIllegalMove(); err != nil {
				d.log.Error().Err(err).Msg("record illegal move")
			}
		}
		return
	case errors.As(err, &gameOver):
		d.play(m)
		d.finish(result(gameOver.State))
		return
	default:
		d.send(fmt.Sprintf("Error (%s): usermove", err))
		return
	}

	d.play(m)
	d.analysed()
	d.play(reply)
	d.send("move " + reply.String())

	if st := d.classify(); st.Terminal() {
		d.finish(result(st))
	}
}

// play records a move in the driver's copy of the game.
func (d *Driver) play(m board.Move) {
	if d.game == nil || d.game.over {
		return
	}
	d.game.pos = d.game.pos.Apply(m)
	d.game.moves = append(d.game.moves, m.String())
}

// analysed stores the last root score for the position the engine just
// replied from.
func (d *Driver) analysed() {
	info := d.lastScore.Load()
	if d.rec == nil || d.game == nil || info == nil {
		return
	}
	a := storage.Analysis{
		Score: info.Score.Neg().Centipawns(),
		Depth: info.Depth,
		Nodes: info.Nodes,
	}
	if err := d.rec.SaveAnalysis(d.game.pos.Hash(d.game.engine), a); err != nil {
		d.log.Error().Err(err).Msg("save analysis")
	}
}

// classify reports whether the engine's reply ended the game.
func (d *Driver) classify() board.State {
	if d.game == nil {
		return board.Unknown
	}
	if st := d.game.pos.Classify(); st != board.NotAWin {
		return st
	}
	if len(board.GenerateMoves(&d.game.pos, d.game.engine.Other())) == 0 {
		return board.Draw
	}
	return board.InProgress
}

// finish ends the current game. Finished games print a result line; every
// game with at least one move is recorded.
func (d *Driver) finish(res string) {
	g := d.game
	if g == nil || g.over {
		return
	}
	g.over = true

	if res != storage.ResultAborted {
		d.send("result " + res + " " + comment(res))
	}
	if d.rec == nil || len(g.moves) == 0 {
		return
	}
	rec := &storage.GameRecord{
		Started:     g.started,
		Finished:    time.Now(),
		EngineColor: g.engine.String(),
		Moves:       g.moves,
		Result:      res,
	}
	if err := d.rec.RecordGame(rec); err != nil {
		d.log.Error().Err(err).Msg("record game")
		return
	}
	d.log.Info().Str("id", rec.ID).Str("result", res).Int("moves", len(g.moves)).Msg("game recorded")
}

func (d *Driver) handleInfo(info engine.Info) {
	if info.Score.IsSet() {
		d.lastScore.Store(&info)
	}
	if !d.post.Load() {
		return
	}
	d.send(fmt.Sprintf("%d %d %d %d", info.Depth, info.Score.Centipawns(), info.Time.Milliseconds()/10, info.Nodes))
}

func (d *Driver) send(lines ...string) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(d.out, line)
		d.log.Info().Msg("<< " + line)
	}
}

func result(st board.State) string {
	switch st {
	case board.WhiteWins:
		return storage.ResultWhiteWins
	case board.BlackWins:
		return storage.ResultBlackWins
	default:
		return storage.ResultDraw
	}
}

func comment(res string) string {
	switch res {
	case storage.ResultWhiteWins:
		return "{White wins}"
	case storage.ResultBlackWins:
		return "{Black wins}"
	default:
		return "{Draw}"
	}
}

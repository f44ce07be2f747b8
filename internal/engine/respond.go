package engine

import (
	"time"

	"github.com/hailam/auntysue/internal/board"
)

// choice is the reply selected under the opponent's move.
type choice struct {
	parent *Node // node reached by the opponent's move
	reply  edge
}

// score returns a reply's weight from the engine's point of view. A reply's
// own weight is from the side to move there, which is the opponent.
func (e edge) score() Weight {
	return e.node.weight.Neg()
}

// findBestResponse picks the engine's reply to move m among the children
// already in the tree. ok is false when the tree is not deep enough yet and
// the caller should let it grow and ask again.
func (n *Node) findBestResponse(m board.Move) (c choice, ok bool, err error) {
	switch n.state {
	case board.InProgress:
	case board.Unknown:
		return choice{}, false, nil
	default:
		return choice{}, false, &GameOverError{State: n.state}
	}

	opp := n.Child(m)
	if opp == nil {
		return choice{}, false, ErrIllegalMove
	}

	switch opp.state {
	case board.InProgress:
	case board.Unknown:
		return choice{}, false, nil
	default:
		return choice{}, false, &GameOverError{State: opp.state}
	}

	us := opp.side
	best := -1

scan:
	for i, reply := range opp.children {
		switch st := reply.node.state; {
		case st == board.Unknown:
			return choice{}, false, nil
		case st.Winner() == us:
			best = i
			break scan
		case st.Winner() == us.Other():
			continue
		case st == board.Draw:
			// A draw is an upgrade only while the best so far loses.
			if best < 0 || opp.children[best].score().Negative() {
				best = i
			}
		case st == board.InProgress:
			if best < 0 || betterScore(reply.score(), opp.children[best].score()) {
				best = i
			}
		}
	}

	// Every reply loses; play the first one.
	if best < 0 {
		best = 0
	}

	return choice{parent: opp, reply: opp.children[best]}, true, nil
}

// betterScore reports whether a is known and beats b. An unknown b is
// beaten by any known a; an unknown a never wins.
func betterScore(a, b Weight) bool {
	if !a.IsSet() {
		return false
	}
	if !b.IsSet() {
		return true
	}
	return a.Greater(b)
}

// Respond answers the opponent's move. It stops thinking, evaluates the tree
// and selects a reply; while the tree is too shallow it thinks for another
// retry interval and tries again. The chosen reply becomes the new root,
// every other branch is discarded, and thinking resumes.
func (e *Engine) Respond(m board.Move) (board.Move, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := e.root.Load()
	if root == nil {
		return board.NoMove, ErrNoGame
	}

	e.brain.stop()

	var c choice
	for attempt := 1; ; attempt++ {
		if err := e.evaluate(root); err != nil {
			return board.NoMove, err
		}

		var ok bool
		var err error
		c, ok, err = root.findBestResponse(m)
		if err != nil {
			e.log.Info().Err(err).Stringer("move", m).Msg("cannot respond")
			return board.NoMove, err
		}
		if ok {
			break
		}

		e.log.Debug().Int("attempt", attempt).Stringer("move", m).Msg("need more time")
		e.brain.init(root)
		time.Sleep(e.retry)
		e.brain.stop()
	}

	e.commit(root, c)

	e.log.Info().
		Stringer("opponent", m).
		Stringer("reply", c.reply.move).
		Stringer("score", c.reply.score()).
		Int("ply", c.reply.node.ply).
		Msg("reply committed")

	e.start()
	return c.reply.move, nil
}

// commit makes the chosen reply the root. The old root and every sibling
// branch are detached so nothing but the new root references them.
func (e *Engine) commit(old *Node, c choice) {
	e.root.Store(c.reply.node)
	c.parent.detach()
	old.detach()
}

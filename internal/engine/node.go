package engine

import (
	"slices"

	"github.com/hailam/auntysue/internal/board"
)

// Node is one position in the move tree. A node owns its children: the only
// path to a child is through its parent's edge list, and the list is written
// once, by the single task expanding the node, before any child is scheduled.
type Node struct {
	board    board.Board
	side     board.Color // side to move
	state    board.State
	weight   Weight
	ply      int // half-moves since the start of the game
	children []edge
}

// edge links a node to the child reached by move. Edges are kept sorted by move.
type edge struct {
	move board.Move
	node *Node
}

// NewNode creates an unexpanded node. A position where one side has run out
// of pieces is classified immediately; anything else is Unknown until expanded.
func NewNode(b board.Board, side board.Color, ply int) *Node {
	n := &Node{board: b, side: side, ply: ply}
	if st := b.Classify(); st != board.NotAWin {
		n.state = st
	}
	return n
}

// Board returns the position.
func (n *Node) Board() board.Board { return n.board }

// Side returns the side to move.
func (n *Node) Side() board.Color { return n.side }

// Ply returns the number of half-moves played since the start of the game.
func (n *Node) Ply() int { return n.ply }

// State returns the classification. Only meaningful while the engine is idle.
func (n *Node) State() board.State { return n.state }

// Weight returns the last computed weight. Only meaningful while the engine is idle.
func (n *Node) Weight() Weight { return n.weight }

// Moves returns the moves leading to the generated children, in order.
func (n *Node) Moves() []board.Move {
	moves := make([]board.Move, len(n.children))
	for i, e := range n.children {
		moves[i] = e.move
	}
	return moves
}

// Child returns the child reached by m, or nil if m was not generated.
func (n *Node) Child(m board.Move) *Node {
	i, ok := slices.BinarySearchFunc(n.children, m, func(e edge, m board.Move) int {
		return e.move.Compare(m)
	})
	if !ok {
		return nil
	}
	return n.children[i].node
}

// expand generates the children and classifies the node: no moves is a
// draw, anything else is in progress. It runs at most once per node.
func (n *Node) expand() {
	if n.state != board.Unknown {
		return
	}

	moves := board.GenerateMoves(&n.board, n.side)
	children := make([]edge, len(moves))
	for i, m := range moves {
		children[i] = edge{
			move: m,
			node: NewNode(n.board.Apply(m), n.side.Other(), n.ply+1),
		}
	}
	n.children = children

	if len(children) == 0 {
		n.state = board.Draw
	} else {
		n.state = board.InProgress
	}
}

// detach drops the node's children so the subtree can be collected.
func (n *Node) detach() {
	n.children = nil
}

// size counts the nodes in the subtree, the node included.
func (n *Node) size() int {
	total := 1
	for _, e := range n.children {
		total += e.node.size()
	}
	return total
}

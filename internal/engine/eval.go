package engine

import "github.com/hailam/auntysue/internal/board"

// quickEval sets a provisional weight from material balance: white pieces
// minus black pieces, from the point of view of the side to move.
func (n *Node) quickEval() {
	white, black := n.board.Count()
	sum := white - black
	if n.side == board.Black {
		sum = -sum
	}
	n.weight = Known(float64(sum))
}

// evaluate scores the subtree recursively, negamax style: an expanded node
// scores the negation of its best child. It must only run while no
// expansion task can touch the tree.
func (n *Node) evaluate() {
	switch n.state {
	case board.Draw:
		n.weight = Known(0)
	case board.WhiteWins:
		if n.side == board.White {
			n.weight = Infinite(1)
		} else {
			n.weight = Infinite(-1)
		}
	case board.BlackWins:
		if n.side == board.White {
			n.weight = Infinite(-1)
		} else {
			n.weight = Infinite(1)
		}
	case board.InProgress:
		best := Unset
		for _, e := range n.children {
			e.node.evaluate()
			best = best.Max(e.node.weight)
		}
		n.weight = best.Neg()
	default:
		n.quickEval()
	}
}

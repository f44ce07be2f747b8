package board

import "slices"

// Ray directions as (rank, file) deltas.
var (
	rookDirections   = [4][2]int8{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirections = [4][2]int8{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// generator accumulates candidate moves under the forced-capture rule: the
// first capture found anywhere on the board discards every quiet move
// collected so far, and from then on only captures are accepted.
type generator struct {
	b       *Board
	side    Color
	enemy   Color
	moves   []Move
	capture bool
}

func (g *generator) quiet(from, to Coord) {
	if g.capture {
		return
	}
	g.moves = append(g.moves, NewMove(from, to))
}

func (g *generator) take(from, to Coord) {
	if !g.capture {
		g.moves = g.moves[:0]
		g.capture = true
	}
	g.moves = append(g.moves, NewMove(from, to))
}

// GenerateMoves returns the candidate moves for side, sorted by Move.Less.
// Only pawns, rooks and bishops generate moves. Knight, queen and king moves
// and pawn promotion are not implemented and yield nothing.
func GenerateMoves(b *Board, side Color) []Move {
	g := generator{
		b:     b,
		side:  side,
		enemy: side.Other(),
		moves: make([]Move, 0, 32),
	}

	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := b[rank][file]
			if !sq.Is(side) {
				continue
			}

			from := NewCoord(rank, file)
			switch sq.Kind() {
			case Pawn:
				g.pawn(from, sq)
			case Rook:
				g.rays(from, rookDirections)
			case Bishop:
				g.rays(from, bishopDirections)
			}
		}
	}

	slices.SortFunc(g.moves, Move.Compare)
	return g.moves
}

func (g *generator) pawn(from Coord, sq Square) {
	dir, promoteRank := int8(1), int8(7)
	if g.side == Black {
		dir, promoteRank = -1, 0
	}

	// TODO: promotion. Pawns that reached the last rank stay put.
	if from.Rank == promoteRank {
		return
	}

	one := from.Add(dir, 0)
	if g.b.At(one).IsEmpty() {
		g.quiet(from, one)

		two := from.Add(2*dir, 0)
		if !sq.HasMoved() && two.IsValid() && g.b.At(two).IsEmpty() {
			g.quiet(from, two)
		}
	}

	for _, df := range [2]int8{-1, 1} {
		target := from.Add(dir, df)
		if target.IsValid() && g.b.At(target).Is(g.enemy) {
			g.take(from, target)
		}
	}
}

func (g *generator) rays(from Coord, dirs [4][2]int8) {
	for _, d := range dirs {
		for to := from.Add(d[0], d[1]); to.IsValid(); to = to.Add(d[0], d[1]) {
			occupant := g.b.At(to)
			if occupant.Is(g.enemy) {
				g.take(from, to)
				break
			}
			if !occupant.IsEmpty() {
				break
			}
			g.quiet(from, to)
		}
	}
}

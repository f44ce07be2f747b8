package board

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Board is an 8x8 grid of squares indexed [rank][file]. It is a value type:
// assigning a Board copies it.
type Board [8][8]Square

// Default returns the starting position. White occupies ranks 0-1 with the
// king on the d-file, black mirrors it on ranks 6-7.
func Default() Board {
	back := [8]Kind{Rook, Knight, Bishop, King, Queen, Bishop, Knight, Rook}

	var b Board
	for file := 0; file < 8; file++ {
		b[0][file] = NewSquare(back[file], White)
		b[1][file] = NewSquare(Pawn, White)
		b[6][file] = NewSquare(Pawn, Black)
		b[7][file] = NewSquare(back[file], Black)
	}
	return b
}

// At returns the square at the coordinate. The coordinate must be valid.
func (b *Board) At(c Coord) Square {
	return b[c.Rank][c.File]
}

// Set places a square at the coordinate.
func (b *Board) Set(c Coord, sq Square) {
	b[c.Rank][c.File] = sq
}

// Apply returns a copy of the board with the move played: the origin is
// cleared and the destination receives the moving piece marked as moved.
// Whatever stood on the destination is captured.
func (b *Board) Apply(m Move) Board {
	next := *b
	piece := next.At(m.From)
	if !piece.IsEmpty() {
		piece = piece.Moved()
	}
	next.Set(m.To, piece)
	next.Set(m.From, Empty)
	return next
}

// Count returns the number of white and black pieces on the board.
func (b *Board) Count() (white, black int) {
	for rank := range b {
		for _, sq := range b[rank] {
			if sq.Is(White) {
				white++
			} else if sq.Is(Black) {
				black++
			}
		}
	}
	return white, black
}

// Classify applies the counting rule. A side with no pieces left wins; when
// both sides are empty the result is WhiteWins. If both sides have pieces
// the result is NotAWin.
func (b *Board) Classify() State {
	white, black := b.Count()
	switch {
	case white == 0:
		return WhiteWins
	case black == 0:
		return BlackWins
	default:
		return NotAWin
	}
}

// Hash returns a 64-bit hash of the board contents and the side to move.
func (b *Board) Hash(side Color) uint64 {
	var buf [8*8*2 + 1]byte
	i := 0
	for rank := range b {
		for _, sq := range b[rank] {
			buf[i] = byte(sq)
			buf[i+1] = byte(sq >> 8)
			i += 2
		}
	}
	buf[i] = byte(side)
	return xxhash.Sum64(buf[:])
}

// String returns a diagram with rank 8 on top.
func (b *Board) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			sb.WriteString(b[rank][file].String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh\n")
	return sb.String()
}
